package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/nerrad567/gray-logic-doorbell/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-doorbell/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-doorbell/migrations"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "settings.db"),
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewStore(db.DB)
}

func TestStore_GetDefault(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Get(context.Background(), "appSettings", "mqttServer", "fallback")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "fallback" {
		t.Errorf("Get() = %q, want fallback", got)
	}
}

func TestStore_PutGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "appSettings", "mqttServer", "broker.lan"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Put(ctx, "appSettings", "mqttServer", "broker2.lan"); err != nil {
		t.Fatalf("Put() overwrite error = %v", err)
	}

	got, err := s.Get(ctx, "appSettings", "mqttServer", "")
	if err != nil || got != "broker2.lan" {
		t.Errorf("Get() = %q, %v; want broker2.lan", got, err)
	}

	// Same key in another namespace is independent.
	other, _ := s.Get(ctx, "networkSettings", "mqttServer", "none") //nolint:errcheck // checked via value
	if other != "none" {
		t.Errorf("namespaces leaked: got %q", other)
	}
}

func TestStore_Bool(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if v, _ := s.GetBool(ctx, "appSettings", "pairingValid", true); !v { //nolint:errcheck // default path
		t.Error("GetBool() default = false, want true")
	}
	if err := s.PutBool(ctx, "appSettings", "pairingValid", false); err != nil {
		t.Fatalf("PutBool() error = %v", err)
	}
	if v, err := s.GetBool(ctx, "appSettings", "pairingValid", true); err != nil || v {
		t.Errorf("GetBool() = %v, %v; want false", v, err)
	}

	// Unparsable values fall back to the default.
	if err := s.Put(ctx, "appSettings", "pairingValid", "maybe"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if v, err := s.GetBool(ctx, "appSettings", "pairingValid", true); err != nil || !v {
		t.Errorf("GetBool() unparsable = %v, %v; want default true", v, err)
	}
}

func TestStore_Clear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, ns := range []string{"appSettings", "networkSettings"} {
		if err := s.Put(ctx, ns, "k", "v"); err != nil {
			t.Fatalf("Put(%s) error = %v", ns, err)
		}
	}
	if err := s.Clear(ctx, "appSettings"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	if v, _ := s.Get(ctx, "appSettings", "k", "gone"); v != "gone" { //nolint:errcheck // checked via value
		t.Errorf("cleared key = %q, want default", v)
	}
	if v, _ := s.Get(ctx, "networkSettings", "k", "gone"); v != "v" { //nolint:errcheck // checked via value
		t.Errorf("other namespace = %q, want v", v)
	}
}

func TestStore_Validation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"get empty namespace", func() error { _, err := s.Get(ctx, "", "k", ""); return err }(), ErrInvalidNamespace},
		{"get empty key", func() error { _, err := s.Get(ctx, "ns", "", ""); return err }(), ErrInvalidKey},
		{"put empty namespace", s.Put(ctx, "", "k", "v"), ErrInvalidNamespace},
		{"put empty key", s.Put(ctx, "ns", "", "v"), ErrInvalidKey},
		{"clear empty namespace", s.Clear(ctx, ""), ErrInvalidNamespace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.wantErr) {
				t.Errorf("error = %v, want %v", tt.err, tt.wantErr)
			}
		})
	}
}

func TestNamespace_ReadOnly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rw := s.Open("appSettings", ReadWrite)
	if err := rw.Put(ctx, "ntpServer", "time.lan"); err != nil {
		t.Fatalf("ReadWrite Put() error = %v", err)
	}

	ro := s.Open("appSettings", ReadOnly)
	if v, err := ro.Get(ctx, "ntpServer", ""); err != nil || v != "time.lan" {
		t.Errorf("ReadOnly Get() = %q, %v", v, err)
	}

	writes := map[string]error{
		"Put":     ro.Put(ctx, "ntpServer", "x"),
		"PutBool": ro.PutBool(ctx, "pairingValid", true),
		"PutMany": ro.PutMany(ctx, map[string]string{"a": "b"}),
		"Clear":   ro.Clear(ctx),
	}
	for op, err := range writes {
		if !errors.Is(err, ErrReadOnly) {
			t.Errorf("%s on read-only namespace = %v, want ErrReadOnly", op, err)
		}
	}

	if v, _ := ro.Get(ctx, "ntpServer", ""); v != "time.lan" { //nolint:errcheck // checked via value
		t.Errorf("value changed through read-only handle: %q", v)
	}
	if ro.Name() != "appSettings" {
		t.Errorf("Name() = %q", ro.Name())
	}
}
