package sqlite

import "database/sql"

// schema sets up the database. It runs on startup to ensure tables exist.
// Documents are kept whole as JSON text, one row per receipt.
const schema = `
CREATE TABLE IF NOT EXISTS receipts (
    id TEXT PRIMARY KEY,
    document TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_receipts_updated_at ON receipts(updated_at);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
