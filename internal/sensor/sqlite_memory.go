package sensor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteMemory keeps simulated sensor memory in the sensor_slots and
// sensor_marker tables.
type SQLiteMemory struct {
	db *sql.DB
}

// NewSQLiteMemory creates a Memory on an already-migrated database.
func NewSQLiteMemory(db *sql.DB) *SQLiteMemory {
	return &SQLiteMemory{db: db}
}

func (m *SQLiteMemory) Slots(ctx context.Context) (map[int]Template, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT slot_id, name, template FROM sensor_slots")
	if err != nil {
		return nil, fmt.Errorf("querying sensor slots: %w", err)
	}
	defer rows.Close()

	slots := make(map[int]Template)
	for rows.Next() {
		var id int
		var t Template
		if err := rows.Scan(&id, &t.Name, &t.Token); err != nil {
			return nil, fmt.Errorf("scanning sensor slot: %w", err)
		}
		slots[id] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sensor slots: %w", err)
	}
	return slots, nil
}

func (m *SQLiteMemory) Store(ctx context.Context, slot int, t Template) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO sensor_slots (slot_id, name, template, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(slot_id) DO UPDATE SET name = excluded.name, template = excluded.template`,
		slot, t.Name, t.Token, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("storing slot %d: %w", slot, err)
	}
	return nil
}

func (m *SQLiteMemory) Remove(ctx context.Context, slot int) error {
	if _, err := m.db.ExecContext(ctx, "DELETE FROM sensor_slots WHERE slot_id = ?", slot); err != nil {
		return fmt.Errorf("removing slot %d: %w", slot, err)
	}
	return nil
}

func (m *SQLiteMemory) RemoveAll(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, "DELETE FROM sensor_slots"); err != nil {
		return fmt.Errorf("removing all slots: %w", err)
	}
	return nil
}

func (m *SQLiteMemory) Marker(ctx context.Context) (string, error) {
	var marker string
	err := m.db.QueryRowContext(ctx, "SELECT marker FROM sensor_marker WHERE id = 1").Scan(&marker)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading pairing marker: %w", err)
	}
	return marker, nil
}

func (m *SQLiteMemory) SetMarker(ctx context.Context, marker string) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO sensor_marker (id, marker) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET marker = excluded.marker`,
		marker,
	)
	if err != nil {
		return fmt.Errorf("writing pairing marker: %w", err)
	}
	return nil
}
