package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"paperqa/internal/chunker"
	"paperqa/internal/embeddings"
)

// PostgresStore persists index records in Postgres. Vectors are stored as
// JSON text so the schema works for any embedding dimension and without the
// pgvector extension; ranking happens in the retrieval strategies.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	// Advisory lock so concurrent services do not race the migration.
	const lockID = 842120931

	var acquired bool
	if err := s.db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&acquired); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !acquired {
		time.Sleep(2 * time.Second)
		return nil
	}
	defer func() {
		_, _ = s.db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS doc_indexes (
			document_id TEXT PRIMARY KEY,
			strategy TEXT NOT NULL,
			model TEXT,
			created_at TIMESTAMPTZ DEFAULT now(),
			summary TEXT,
			summary_vector TEXT,
			citations TEXT[],
			dois TEXT[]
		);`,
		`CREATE TABLE IF NOT EXISTS index_entries (
			document_id TEXT REFERENCES doc_indexes(document_id) ON DELETE CASCADE,
			ord INT NOT NULL,
			page INT NOT NULL,
			chunk_text TEXT NOT NULL,
			vector_json TEXT,
			PRIMARY KEY (document_id, ord)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save replaces the whole index of rec.DocumentID in one transaction, so
// re-ingestion can never leave stale chunks behind.
func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	if rec.DocumentID == "" {
		return fmt.Errorf("document id required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM doc_indexes WHERE document_id=$1`, rec.DocumentID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO doc_indexes(document_id, strategy, model, created_at, summary, summary_vector, citations, dois)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		rec.DocumentID, rec.Strategy, rec.Model, rec.CreatedAt,
		rec.Summary, vectorJSON(rec.SummaryVector), pq.Array(rec.Citations), pq.Array(rec.DOIs)); err != nil {
		return err
	}

	// Multi-row inserts keep round trips down without COPY, which the pgx
	// stdlib driver does not speak through database/sql prepare.
	const batchSize = 200
	for start := 0; start < len(rec.Entries); start += batchSize {
		end := start + batchSize
		if end > len(rec.Entries) {
			end = len(rec.Entries)
		}
		if err := insertEntryBatch(ctx, tx, rec.DocumentID, rec.Entries[start:end]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertEntryBatch(ctx context.Context, tx *sql.Tx, docID string, entries []Entry) error {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`INSERT INTO index_entries(document_id, ord, page, chunk_text, vector_json) VALUES`)
	for i, e := range entries {
		if i > 0 {
			sb.WriteString(",")
		}
		n := i * 5
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d)", n+1, n+2, n+3, n+4, n+5)
		args = append(args, docID, e.Chunk.Index, e.Chunk.Page, e.Chunk.Text, vectorJSON(e.Vector))
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

func (s *PostgresStore) Load(ctx context.Context, docID string) (Record, error) {
	rec := Record{DocumentID: docID}
	var summaryVec string
	err := s.db.QueryRowContext(ctx,
		`SELECT strategy, COALESCE(model,''), created_at, COALESCE(summary,''), COALESCE(summary_vector,''), citations, dois
		 FROM doc_indexes WHERE document_id=$1`, docID).
		Scan(&rec.Strategy, &rec.Model, &rec.CreatedAt, &rec.Summary, &summaryVec,
			pq.Array(&rec.Citations), pq.Array(&rec.DOIs))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrIndexNotFound, docID)
	}
	if err != nil {
		return Record{}, err
	}
	if rec.SummaryVector, err = parseVectorJSON(summaryVec); err != nil {
		return Record{}, fmt.Errorf("corrupt summary vector for %s: %w", docID, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ord, page, chunk_text, COALESCE(vector_json,'') FROM index_entries WHERE document_id=$1 ORDER BY ord`, docID)
	if err != nil {
		return Record{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ord, page int
			text, vj  string
		)
		if err := rows.Scan(&ord, &page, &text, &vj); err != nil {
			return Record{}, err
		}
		vec, err := parseVectorJSON(vj)
		if err != nil {
			return Record{}, fmt.Errorf("corrupt vector for %s ord %d: %w", docID, ord, err)
		}
		rec.Entries = append(rec.Entries, Entry{
			Chunk:  chunker.Chunk{Text: text, Source: docID, Page: page, Index: ord},
			Vector: vec,
		})
	}
	return rec, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, docID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM doc_indexes WHERE document_id=$1`, docID)
	return err
}

func (s *PostgresStore) Close() error { return s.db.Close() }

// vectorJSON serializes a vector as a compact numeric array, "[]" for nil.
func vectorJSON(v embeddings.Vector) string {
	if len(v) == 0 {
		return "[]"
	}
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = strconv.FormatFloat(float64(val), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func parseVectorJSON(s string) (embeddings.Vector, error) {
	if s == "" || s == "[]" {
		return nil, nil
	}
	var vec embeddings.Vector
	if err := json.Unmarshal([]byte(s), &vec); err != nil {
		return nil, err
	}
	return vec, nil
}
