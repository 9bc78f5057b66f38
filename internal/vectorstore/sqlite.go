package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// SQLite is a single-file store for local runs. Search is a full scan.
type SQLite struct {
	db  *sql.DB
	dim int

	mu      sync.Mutex
	entropy *rand.Rand
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string, dim int) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLite{
		db:      db,
		dim:     dim,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLite) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS ` + TableName + ` (
		id          TEXT PRIMARY KEY,
		source_type TEXT NOT NULL,
		source_id   INTEGER,
		tour_id     INTEGER,
		spot_id     INTEGER,
		content     TEXT NOT NULL,
		title       TEXT,
		embedding   BLOB,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tke_tour ON ` + TableName + `(tour_id);
	`)
	return err
}

type scored struct {
	content string
	score   float64
}

func (s *SQLite) Search(ctx context.Context, vec []float32, limit int) ([]string, error) {
	if len(vec) != s.dim {
		return nil, fmt.Errorf("%w: got %d want %d", ErrDimension, len(vec), s.dim)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT content, embedding FROM `+TableName+` WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var hits []scored
	for rows.Next() {
		var content string
		var blob []byte
		if err := rows.Scan(&content, &blob); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		emb := decodeVector(blob)
		if len(emb) != s.dim {
			continue
		}
		hits = append(hits, scored{content: content, score: Cosine(vec, emb)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if n := ClampLimit(limit); len(hits) > n {
		hits = hits[:n]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.content
	}
	return out, nil
}

func (s *SQLite) ReplaceTour(ctx context.Context, tourID int64, docs []Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+TableName+` WHERE tour_id = ?`, tourID); err != nil {
		return fmt.Errorf("delete tour %d: %w", tourID, err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, d := range docs {
		if len(d.Embedding) != s.dim {
			return fmt.Errorf("%w: got %d want %d", ErrDimension, len(d.Embedding), s.dim)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO `+TableName+` (id, source_type, source_id, tour_id, spot_id, content, title, embedding, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.newID(), d.SourceType, d.SourceID, tourID, d.SpotID, d.Content, d.Title, encodeVector(d.Embedding), now,
		)
		if err != nil {
			return fmt.Errorf("insert %s %d: %w", d.SourceType, d.SourceID, err)
		}
	}
	return tx.Commit()
}

// Count returns the number of stored rows for tourID.
func (s *SQLite) Count(ctx context.Context, tourID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+TableName+` WHERE tour_id = ?`, tourID).Scan(&n)
	return n, err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// encodeVector packs vec as little-endian float32 values.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	if len(buf)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
