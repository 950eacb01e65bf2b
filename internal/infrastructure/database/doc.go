// Package database provides SQLite connectivity for the Alpha 2 mock.
//
// The database holds two things:
//   - the command journal (audit_logs)
//   - the device document when the sqlite store backend is selected
//     (device_state, a single row)
//
// Both tables come from the SQL files embedded by the migrations package,
// which registers them through MigrationsFS at init time.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are additive. Each version is a pair of files named
// YYYYMMDD_HHMMSS_description.up.sql and .down.sql; every version is
// applied in its own transaction and recorded in schema_migrations.
package database
