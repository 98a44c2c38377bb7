// Package database provides the PostgreSQL-backed record store: connection
// pooling, schema migrations, and the append-only analysis history with
// filtered, sorted, paginated retrieval and aggregation queries.
package database
