package database

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/nerrad567/gray-logic-doorbell/migrations"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"20260101_000000_create_users.up.sql":   {Data: []byte("CREATE TABLE test_users (id INTEGER PRIMARY KEY);")},
		"20260101_000000_create_users.down.sql": {Data: []byte("DROP TABLE test_users;")},
		"20260102_000000_create_doors.up.sql":   {Data: []byte("CREATE TABLE test_doors (id INTEGER PRIMARY KEY);")},
		"README.md":                             {Data: []byte("ignored")},
	}
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&n)
	if err != nil {
		t.Fatalf("querying sqlite_master: %v", err)
	}
	return n == 1
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	fsys := testMigrations()

	if err := db.Migrate(ctx, fsys); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !tableExists(t, db, "test_users") || !tableExists(t, db, "test_doors") {
		t.Fatal("migrations did not create tables")
	}

	// Second run is a no-op.
	if err := db.Migrate(ctx, fsys); err != nil {
		t.Fatalf("Migrate() second run error = %v", err)
	}

	applied, pending, err := db.MigrationStatus(ctx, fsys)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("applied = %d, want 2", len(applied))
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0", len(pending))
	}
}

func TestMigrate_FailureStopsAtBrokenMigration(t *testing.T) {
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"20260101_000000_ok.up.sql":     {Data: []byte("CREATE TABLE ok_table (id INTEGER);")},
		"20260102_000000_broken.up.sql": {Data: []byte("CREATE TABLEX nope;")},
		"20260103_000000_later.up.sql":  {Data: []byte("CREATE TABLE later_table (id INTEGER);")},
	}

	if err := db.Migrate(context.Background(), fsys); err == nil {
		t.Fatal("Migrate() expected error for broken SQL")
	}
	if !tableExists(t, db, "ok_table") {
		t.Error("earlier migration should stay applied")
	}
	if tableExists(t, db, "later_table") {
		t.Error("later migration should not be attempted")
	}
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	fsys := fstest.MapFS{
		"20260101_000000_create_users.up.sql":   {Data: []byte("CREATE TABLE test_users (id INTEGER PRIMARY KEY);")},
		"20260101_000000_create_users.down.sql": {Data: []byte("DROP TABLE test_users;")},
	}
	if err := db.Migrate(ctx, fsys); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx, fsys); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	if tableExists(t, db, "test_users") {
		t.Error("test_users should be dropped")
	}

	// Nothing left to roll back.
	if err := db.MigrateDown(ctx, fsys); err != nil {
		t.Errorf("MigrateDown() on empty history error = %v", err)
	}
}

func TestMigrateDown_MissingDownSQL(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	fsys := testMigrations()

	if err := db.Migrate(ctx, fsys); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	// Latest migration (create_doors) has no down file.
	if err := db.MigrateDown(ctx, fsys); err == nil {
		t.Error("MigrateDown() expected error when down SQL is missing")
	}
}

func TestMigrate_EmbeddedSchema(t *testing.T) {
	db := openTestDB(t)

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate(migrations.FS) error = %v", err)
	}
	for _, table := range []string{"settings", "audit_events", "sensor_slots", "sensor_marker"} {
		if !tableExists(t, db, table) {
			t.Errorf("table %s not created", table)
		}
	}
}

func TestLoadMigrations_NilFS(t *testing.T) {
	got, err := LoadMigrations(nil)
	if err != nil || got != nil {
		t.Errorf("LoadMigrations(nil) = %v, %v; want nil, nil", got, err)
	}
}

func TestLoadMigrations_OrphanDown(t *testing.T) {
	fsys := fstest.MapFS{
		"20260101_000000_orphan.down.sql": {Data: []byte("DROP TABLE x;")},
	}
	if _, err := LoadMigrations(fsys); err == nil {
		t.Error("LoadMigrations() expected error for down file without up file")
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantUp      bool
		wantOK      bool
	}{
		{"20260118_120000_initial_schema.up.sql", "20260118_120000", "initial_schema", true, true},
		{"20260118_120000_initial_schema.down.sql", "20260118_120000", "initial_schema", false, true},
		{"20260118_120000.up.sql", "20260118_120000", "", true, true},
		{"20260118_120000_x.sql", "", "", false, false},
		{"readme.md", "", "", false, false},
		{"nounderscore.up.sql", "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, up, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion || name != tt.wantName || up != tt.wantUp {
				t.Errorf("got (%q, %q, %v), want (%q, %q, %v)",
					version, name, up, tt.wantVersion, tt.wantName, tt.wantUp)
			}
		})
	}
}
