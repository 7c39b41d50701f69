// Package sqlite stores simulation runs in a SQLite database file.
//
//	s, err := sqlite.NewSqliteEventStore(sqlite.SqliteOptions{Path: "./runs.db"})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
package sqlite
