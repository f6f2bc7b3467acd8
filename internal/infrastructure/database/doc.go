// Package database provides the SQLite connection behind the poll-cycle journal.
//
// This package manages:
//   - Database connection with WAL mode and a busy timeout
//   - Schema migrations from an fs.FS of *.up.sql / *.down.sql files
//
// The database file is created with 0600 permissions. All queries use
// parameterised statements.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns must be nullable or carry a default,
// and every .up.sql has a matching .down.sql.
package database
