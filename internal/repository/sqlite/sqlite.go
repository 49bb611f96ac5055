package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"vocabhub/internal/domain"
	"vocabhub/internal/repository"

	_ "modernc.org/sqlite"
)

var _ repository.Repository = (*Repository)(nil)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS vocabularies (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		root TEXT,
		endpoint TEXT,
		download TEXT,
		settings JSON,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS graph_cache (
		source TEXT NOT NULL,
		uri TEXT NOT NULL,
		payload BLOB NOT NULL,
		fetched_at INTEGER NOT NULL,
		PRIMARY KEY (source, uri)
	);

	CREATE INDEX IF NOT EXISTS idx_graph_cache_fetched ON graph_cache(fetched_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// GetVocabulary retrieves a single vocabulary by ID
func (r *Repository) GetVocabulary(ctx context.Context, id string) (*domain.Vocabulary, error) {
	row := &vocabularyRow{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, source, root, endpoint, download, settings, updated_at
		FROM vocabularies WHERE id = ?
	`, id).Scan(row.scanArgs()...)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query vocabulary: %w", err)
	}

	return row.toDomain()
}

// ListVocabularies returns every vocabulary ordered by ID
func (r *Repository) ListVocabularies(ctx context.Context) ([]domain.Vocabulary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, source, root, endpoint, download, settings, updated_at
		FROM vocabularies ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vocabularies: %w", err)
	}
	defer rows.Close()

	vocabs := []domain.Vocabulary{}
	for rows.Next() {
		row := &vocabularyRow{}
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan vocabulary: %w", err)
		}
		v, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		vocabs = append(vocabs, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vocabularies: %w", err)
	}

	return vocabs, nil
}

// UpsertVocabulary inserts or replaces a vocabulary, stamping UpdatedAt
func (r *Repository) UpsertVocabulary(ctx context.Context, v *domain.Vocabulary) error {
	if v.UpdatedAt.IsZero() {
		v.UpdatedAt = time.Now().UTC()
	}
	args, err := vocabularyInsertArgs(v)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO vocabularies (id, title, source, root, endpoint, download, settings, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			source = excluded.source,
			root = excluded.root,
			endpoint = excluded.endpoint,
			download = excluded.download,
			settings = excluded.settings,
			updated_at = excluded.updated_at
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to upsert vocabulary: %w", err)
	}

	return nil
}

// DeleteVocabulary removes a vocabulary and its cached graphs
func (r *Repository) DeleteVocabulary(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM graph_cache WHERE source = ?`, id); err != nil {
		return fmt.Errorf("failed to delete cached graphs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM vocabularies WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete vocabulary: %w", err)
	}

	return tx.Commit()
}

// GetCachedGraph looks up a cached narrower graph
func (r *Repository) GetCachedGraph(ctx context.Context, source, uri string) (*repository.CachedGraph, error) {
	var (
		payload   []byte
		fetchedAt int64
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT payload, fetched_at FROM graph_cache WHERE source = ? AND uri = ?
	`, source, uri).Scan(&payload, &fetchedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query graph cache: %w", err)
	}

	return &repository.CachedGraph{
		Source:    source,
		URI:       uri,
		Payload:   payload,
		FetchedAt: unixToTime(fetchedAt),
	}, nil
}

// PutCachedGraph stores or refreshes a cached narrower graph
func (r *Repository) PutCachedGraph(ctx context.Context, entry *repository.CachedGraph) error {
	if entry.FetchedAt.IsZero() {
		entry.FetchedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO graph_cache (source, uri, payload, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source, uri) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`, entry.Source, entry.URI, entry.Payload, timeToUnix(entry.FetchedAt))
	if err != nil {
		return fmt.Errorf("failed to store cached graph: %w", err)
	}

	return nil
}

// PurgeCache deletes cache entries fetched before olderThan
func (r *Repository) PurgeCache(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM graph_cache WHERE fetched_at < ?
	`, timeToUnix(olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to purge graph cache: %w", err)
	}

	return result.RowsAffected()
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
