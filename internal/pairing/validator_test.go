package pairing

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-doorbell/internal/notify"
	"github.com/nerrad567/gray-logic-doorbell/internal/sensor"
	"github.com/nerrad567/gray-logic-doorbell/internal/settings"
)

type mockStore struct {
	state   settings.PairingState
	readErr error
	writes  int
}

func (m *mockStore) PairingState(context.Context) (settings.PairingState, error) {
	return m.state, m.readErr
}

func (m *mockStore) SetPairingState(_ context.Context, s settings.PairingState) error {
	m.writes++
	m.state = s
	return nil
}

type mockNotifier struct {
	messages []string
}

func (m *mockNotifier) Notify(msg string) { m.messages = append(m.messages, msg) }

type mockRecorder struct {
	outcomes []bool
}

func (m *mockRecorder) RecordPairing(valid bool) { m.outcomes = append(m.outcomes, valid) }

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func connectedSimulator(t *testing.T) *sensor.Simulator {
	t.Helper()
	sim := sensor.NewSimulator()
	if err := sim.Connect(context.Background(), "00000000"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return sim
}

func fixedSources() []Option {
	return []Option{
		WithRandom(bytes.NewReader(bytes.Repeat([]byte{7}, 64))),
		WithUptime(func() (uint64, error) { return 3600, nil }),
		WithClock(notify.ClockFunc(func() time.Time {
			return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
		})),
	}
}

func TestGenerateCode_Format(t *testing.T) {
	v := NewValidator(nil, &mockStore{}, &mockNotifier{}, WithCredentials("user", "secret"))

	code := v.GenerateCode()
	if len(code) != 2*CodeBytes {
		t.Fatalf("len(code) = %d, want %d", len(code), 2*CodeBytes)
	}
	if strings.Trim(code, "0123456789abcdef") != "" {
		t.Errorf("code %q is not lower-case hex", code)
	}
	if other := v.GenerateCode(); other == code {
		t.Error("two codes from crypto/rand should differ")
	}
}

func TestGenerateCode_Deterministic(t *testing.T) {
	a := NewValidator(nil, &mockStore{}, &mockNotifier{}, append(fixedSources(), WithCredentials("u", "p"))...)
	b := NewValidator(nil, &mockStore{}, &mockNotifier{}, append(fixedSources(), WithCredentials("u", "p"))...)
	c := NewValidator(nil, &mockStore{}, &mockNotifier{}, append(fixedSources(), WithCredentials("u", "other"))...)

	if a.GenerateCode() != b.GenerateCode() {
		t.Error("same inputs should give the same code")
	}
	if a.GenerateCode() == c.GenerateCode() {
		t.Error("different credentials should give a different code")
	}
}

func TestGenerateCode_SourcesFail(t *testing.T) {
	v := NewValidator(nil, &mockStore{}, &mockNotifier{},
		WithRandom(failingReader{}),
		WithUptime(func() (uint64, error) { return 0, errors.New("no /proc") }),
		WithClock(nil),
	)

	if code := v.GenerateCode(); len(code) != 2*CodeBytes {
		t.Errorf("GenerateCode() = %q, want a full code despite failures", code)
	}
}

func TestPair(t *testing.T) {
	tests := []struct {
		name       string
		reject     bool
		wantOK     bool
		wantNotice string
		wantWrites int
	}{
		{"sensor accepts", false, true, MsgPairingSuccessful, 1},
		{"sensor rejects", true, false, MsgPairingFailed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := connectedSimulator(t)
			sim.SetMarkerRejection(tt.reject)
			store := &mockStore{state: settings.PairingState{Code: "previous", Valid: false}}
			n := &mockNotifier{}
			rec := &mockRecorder{}
			v := NewValidator(sim, store, n, WithRecorder(rec))

			if got := v.Pair(context.Background()); got != tt.wantOK {
				t.Fatalf("Pair() = %v, want %v", got, tt.wantOK)
			}
			if len(n.messages) != 1 || n.messages[0] != tt.wantNotice {
				t.Errorf("notifications = %v, want [%s]", n.messages, tt.wantNotice)
			}
			if store.writes != tt.wantWrites {
				t.Errorf("store writes = %d, want %d", store.writes, tt.wantWrites)
			}

			marker, _ := sim.PairingMarker(context.Background())
			if tt.wantOK {
				if !store.state.Valid || store.state.Code != marker {
					t.Errorf("persisted %+v, sensor holds %q", store.state, marker)
				}
				if len(rec.outcomes) != 1 || !rec.outcomes[0] {
					t.Errorf("recorded = %v, want [true]", rec.outcomes)
				}
			} else if store.state.Code != "previous" || store.state.Valid {
				t.Errorf("rejected pairing changed state to %+v", store.state)
			}
		})
	}
}

func TestCheckValid_FirstUsePairs(t *testing.T) {
	sim := connectedSimulator(t)
	store := &mockStore{}
	n := &mockNotifier{}
	v := NewValidator(sim, store, n)

	if !v.CheckValid(context.Background()) {
		t.Fatal("CheckValid() = false on first use")
	}
	if store.state.Code == "" || !store.state.Valid {
		t.Errorf("state after first use = %+v", store.state)
	}
	if len(n.messages) != 1 || n.messages[0] != MsgPairingSuccessful {
		t.Errorf("notifications = %v", n.messages)
	}

	// The next check compares against the sensor without re-pairing.
	if !v.CheckValid(context.Background()) {
		t.Error("CheckValid() = false for the paired sensor")
	}
	if store.writes != 1 {
		t.Errorf("store writes = %d, want 1", store.writes)
	}
}

func TestCheckValid(t *testing.T) {
	const code = "0123456789abcdef0123456789abcdef"

	tests := []struct {
		name       string
		state      settings.PairingState
		marker     string
		readFails  bool
		want       bool
		wantState  settings.PairingState
		wantWrites int
	}{
		{
			name:      "matching marker",
			state:     settings.PairingState{Code: code, Valid: true},
			marker:    code,
			want:      true,
			wantState: settings.PairingState{Code: code, Valid: true},
		},
		{
			name:       "different marker invalidates",
			state:      settings.PairingState{Code: code, Valid: true},
			marker:     "ffffffffffffffffffffffffffffffff",
			want:       false,
			wantState:  settings.PairingState{Code: code, Valid: false},
			wantWrites: 1,
		},
		{
			name:      "empty marker keeps previous state",
			state:     settings.PairingState{Code: code, Valid: true},
			readFails: true,
			want:      true,
			wantState: settings.PairingState{Code: code, Valid: true},
		},
		{
			name:      "invalid pairing is sticky",
			state:     settings.PairingState{Code: code, Valid: false},
			marker:    code,
			want:      false,
			wantState: settings.PairingState{Code: code, Valid: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			sim := connectedSimulator(t)
			if err := sim.OverwriteMarker(ctx, tt.marker); err != nil {
				t.Fatalf("OverwriteMarker() error = %v", err)
			}
			sim.SetMarkerReadFailure(tt.readFails)
			store := &mockStore{state: tt.state}
			n := &mockNotifier{}
			v := NewValidator(sim, store, n)

			if got := v.CheckValid(ctx); got != tt.want {
				t.Errorf("CheckValid() = %v, want %v", got, tt.want)
			}
			if store.state != tt.wantState {
				t.Errorf("state = %+v, want %+v", store.state, tt.wantState)
			}
			if store.writes != tt.wantWrites {
				t.Errorf("store writes = %d, want %d", store.writes, tt.wantWrites)
			}
			if len(n.messages) != 0 {
				t.Errorf("unexpected notifications %v", n.messages)
			}
		})
	}
}

func TestCheckValid_MismatchInvalidatesOnce(t *testing.T) {
	const code = "0123456789abcdef0123456789abcdef"
	ctx := context.Background()
	sim := connectedSimulator(t)
	if err := sim.OverwriteMarker(ctx, "XYZ"); err != nil {
		t.Fatalf("OverwriteMarker() error = %v", err)
	}
	store := &mockStore{state: settings.PairingState{Code: code, Valid: true}}
	rec := &mockRecorder{}
	v := NewValidator(sim, store, &mockNotifier{}, WithRecorder(rec))

	for i := range 2 {
		if v.CheckValid(ctx) {
			t.Fatalf("check %d: CheckValid() = true with a foreign marker", i+1)
		}
	}
	if store.writes != 1 {
		t.Errorf("store writes = %d, want 1", store.writes)
	}
	if want := (settings.PairingState{Code: code, Valid: false}); store.state != want {
		t.Errorf("state = %+v, want %+v", store.state, want)
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0] {
		t.Errorf("recorded outcomes = %v, want [false]", rec.outcomes)
	}
}

func TestCheckValid_StoreUnreadable(t *testing.T) {
	sim := connectedSimulator(t)
	store := &mockStore{readErr: errors.New("database is locked")}
	v := NewValidator(sim, store, &mockNotifier{})

	if v.CheckValid(context.Background()) {
		t.Error("CheckValid() = true with unreadable store")
	}
	if store.writes != 0 {
		t.Errorf("store writes = %d, want 0", store.writes)
	}
}

func TestRepairAfterInvalidation(t *testing.T) {
	ctx := context.Background()
	sim := connectedSimulator(t)
	store := &mockStore{}
	v := NewValidator(sim, store, &mockNotifier{})

	v.CheckValid(ctx)
	if err := sim.OverwriteMarker(ctx, "substituted"); err != nil {
		t.Fatal(err)
	}
	if v.CheckValid(ctx) {
		t.Fatal("substituted sensor passed the check")
	}
	if !v.Pair(ctx) {
		t.Fatal("Pair() failed")
	}
	if !v.CheckValid(ctx) {
		t.Error("CheckValid() = false after re-pairing")
	}
}
