// Package postgres stores simulation runs in a PostgreSQL table so several
// game servers can share one history.
//
// DBPool is satisfied by *pgxpool.Pool and by pgxmock pools in tests.
package postgres
