package passage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	_ "modernc.org/sqlite" // SQLite driver
)

var (
	ErrEmptyPath = errors.New("catalog path cannot be empty")
)

const schema = `
CREATE TABLE IF NOT EXISTS passages (
	id            TEXT PRIMARY KEY,
	source_id     TEXT NOT NULL,
	section_label TEXT NOT NULL DEFAULT '',
	text          TEXT NOT NULL,
	embedding     BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_passages_source ON passages(source_id);
`

// Store is the SQLite-backed passage catalog. The indexing command writes
// to it; generation runs load it once and treat it as read-only.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens (or creates) the catalog database at path.
func OpenStore(path string) (*Store, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating passages table: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Insert writes passages to the catalog. Existing ids are replaced.
func (s *Store) Insert(ctx context.Context, passages []Passage) error {
	if len(passages) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO passages (id, source_id, section_label, text, embedding) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range passages {
		if p.ID == "" {
			return fmt.Errorf("passage with empty id (source %q)", p.SourceID)
		}
		if _, err := stmt.ExecContext(ctx, p.ID, p.SourceID, p.SectionLabel, p.Text, encodeEmbedding(p.Embedding)); err != nil {
			return fmt.Errorf("inserting passage %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// LoadAll reads the full catalog into memory. Generation runs call this
// once at startup and share the result read-only.
func (s *Store) LoadAll(ctx context.Context) (*MemoryCatalog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_id, section_label, text, embedding FROM passages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying passages: %w", err)
	}
	defer rows.Close()

	var passages []Passage
	for rows.Next() {
		var p Passage
		var blob []byte
		if err := rows.Scan(&p.ID, &p.SourceID, &p.SectionLabel, &p.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning passage row: %w", err)
		}
		p.Embedding = decodeEmbedding(blob)
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading passage rows: %w", err)
	}

	return NewMemoryCatalog(passages), nil
}

// Count returns the number of passages stored.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM passages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting passages: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// encodeEmbedding packs a vector as little-endian float32 bytes.
func encodeEmbedding(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeEmbedding(buf []byte) []float32 {
	if len(buf) < 4 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
