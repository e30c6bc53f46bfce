package repository

import (
	"context"
	"strconv"

	"github.com/clarivex-health/advera/internal/domain"
	"github.com/clarivex-health/advera/internal/pagination"
	"github.com/clarivex-health/advera/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ChunkRepository handles persistence and vector search of knowledge chunks.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx pgx.Tx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// InsertMany appends chunks to the store. There is no uniqueness constraint;
// re-ingestion resets the store first.
func (r *ChunkRepository) InsertMany(ctx context.Context, chunks []domain.DocumentChunk) error {
	for _, c := range chunks {
		_, err := r.db.Exec(ctx,
			`INSERT INTO knowledge_chunks
				(id, document_type, name, section, content, embedding, source_file, token_count, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			c.ID,
			c.DocumentType,
			c.Name,
			c.Section,
			c.Content,
			pgvector.NewVector(c.Embedding),
			c.SourceFile,
			c.TokenCount,
			c.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteAll clears the store ahead of re-ingestion.
func (r *ChunkRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM knowledge_chunks`)
	return err
}

// SearchByEmbedding returns up to topK chunks ranked by descending cosine
// similarity to the query vector, optionally filtered to one document type.
// Fewer matching chunks than topK is not an error.
func (r *ChunkRepository) SearchByEmbedding(ctx context.Context, embedding []float32, docType domain.DocumentType, topK int) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		topK = 5
	}

	vec := pgvector.NewVector(embedding)

	query := `
		SELECT document_type, name, section, content,
		       1.0 / (1.0 + (embedding <=> $1)) AS score
		FROM knowledge_chunks`
	args := []interface{}{vec}

	if docType != "" {
		query += ` WHERE document_type = $2`
		args = append(args, docType)
	}

	// id breaks distance ties so repeated searches return a stable order.
	query += `
		ORDER BY embedding <=> $1, id
		LIMIT $` + placeholder(len(args)+1)
	args = append(args, topK)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.RetrievedChunk, 0, topK)
	for rows.Next() {
		var c domain.RetrievedChunk
		if err := rows.Scan(&c.DocumentType, &c.Name, &c.Section, &c.Content, &c.Score); err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// CountByType returns the number of stored chunks of a document type.
func (r *ChunkRepository) CountByType(ctx context.Context, docType domain.DocumentType) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM knowledge_chunks WHERE document_type = $1`,
		docType,
	).Scan(&count)
	return count, err
}

// ListNames returns the distinct document names of a type, alphabetically.
func (r *ChunkRepository) ListNames(ctx context.Context, docType domain.DocumentType) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT name FROM knowledge_chunks WHERE document_type = $1 ORDER BY name`,
		docType,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ListChunks returns a page of chunk metadata ordered by creation time.
func (r *ChunkRepository) ListChunks(ctx context.Context, docType domain.DocumentType, cursor *pagination.Cursor, limit int) (*service.ChunkPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, document_type, name, section, source_file, token_count, created_at
		FROM knowledge_chunks`
	args := []interface{}{}
	where := []string{}

	if docType != "" {
		args = append(args, docType)
		where = append(where, `document_type = $`+placeholder(len(args)))
	}
	if cursor != nil {
		args = append(args, cursor.Timestamp, cursor.LastID)
		where = append(where, `(created_at, id) < ($`+placeholder(len(args)-1)+`, $`+placeholder(len(args))+`)`)
	}

	for i, cond := range where {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}

	args = append(args, limit+1)
	query += `
		ORDER BY created_at DESC, id DESC
		LIMIT $` + placeholder(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*service.ChunkSummary
	for rows.Next() {
		var c service.ChunkSummary
		if err := rows.Scan(&c.ID, &c.DocumentType, &c.Name, &c.Section, &c.SourceFile, &c.TokenCount, &c.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}

	return &service.ChunkPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func placeholder(n int) string {
	return strconv.Itoa(n)
}
