// Package database provides SQLite storage for the doorbell controller.
//
// The database holds the persisted settings namespaces, the audit trail and
// the cached fingerprint label table. It is opened once at boot and shared
// by the settings, audit and sensor packages.
//
// Security Considerations:
//   - All queries use parameterised statements
//   - The database file is chmod 0600 after opening
//   - The pairing code and MQTT password live in this file, so it must not
//     be world readable
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration Strategy:
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql. Each one is applied in its own transaction
// and recorded in schema_migrations.
package database
