package history

import "fmt"

// PostgresDialect implements Dialect for PostgreSQL databases.
type PostgresDialect struct{}

// DriverName returns "postgres" for the lib/pq driver.
func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

// Placeholder returns "$1", "$2", ... for the given 1-indexed position.
func (d *PostgresDialect) Placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}

// InitStatements returns no statements; PostgreSQL needs no per-connection
// setup for the history schema.
func (d *PostgresDialect) InitStatements() []string {
	return nil
}

// AutoIncrementPK returns the PostgreSQL serial primary key definition.
func (d *PostgresDialect) AutoIncrementPK() string {
	return "SERIAL PRIMARY KEY"
}
