// SQLite-backed audit.Sink: a schema and open/create-table pattern for
// an append-only decision history, never read back to make a protocol
// decision.
package audit

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3" // blank import: driver registration only.
)

const sqliteDriver = "sqlite3"

// SQLiteSink appends one row per Decision to a local database file.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (creating if necessary) the sqlite file at path and
// ensures the decisions table exists.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open(sqliteDriver, path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS decisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		time DATETIME,
		role TEXT,
		node_id TEXT,
		proposal_id TEXT,
		outcome TEXT,
		value TEXT
	)`)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteSink{db: db}, nil
}

// Record appends d as a new row. An insert failure is logged here and
// also returned to the caller.
func (s *SQLiteSink) Record(d Decision) error {
	_, err := s.db.Exec(
		`INSERT INTO decisions (time, role, node_id, proposal_id, outcome, value) VALUES (?, ?, ?, ?, ?, ?)`,
		d.Time, d.Role, d.NodeID, d.ProposalID, d.Outcome, d.Value,
	)
	if err != nil {
		log.Printf("[AUDIT] -> sqlite insert failed: %v", err)
	}
	return err
}

// History returns the latest rows, optionally filtered by proposalID.
func (s *SQLiteSink) History(proposalID string, limit int) ([]Decision, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	if proposalID == "" {
		rows, err = s.db.Query(`SELECT time, role, node_id, proposal_id, outcome, value FROM decisions ORDER BY id DESC LIMIT ?`, limit)
	} else {
		rows, err = s.db.Query(`SELECT time, role, node_id, proposal_id, outcome, value FROM decisions WHERE proposal_id = ? ORDER BY id DESC LIMIT ?`, proposalID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var d Decision
		var t time.Time
		if err := rows.Scan(&t, &d.Role, &d.NodeID, &d.ProposalID, &d.Outcome, &d.Value); err != nil {
			return nil, err
		}
		d.Time = t
		out = append(out, d)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
