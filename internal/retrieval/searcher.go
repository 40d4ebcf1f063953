// Package retrieval finds synced content relevant to a query via pgvector
// cosine similarity, with a plain substring fallback when embedding or the
// vector query fails.
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"advisorhub.app/assistant/internal/model"
	"advisorhub.app/assistant/internal/store"
)

// Source filters accepted by Search.
const (
	FilterAll      = "all"
	FilterEmails   = "emails"
	FilterCalendar = "calendar"
	FilterContacts = "contacts"
)

type Searcher interface {
	Search(ctx context.Context, userID int64, query string, limit int, filter string) ([]model.RelevantDocument, error)
}

type pgSearcher struct {
	db       store.DBTX
	embedder Embedder
}

func NewSearcher(db store.DBTX, embedder Embedder) Searcher {
	return &pgSearcher{db: db, embedder: embedder}
}

func (s *pgSearcher) Search(ctx context.Context, userID int64, query string, limit int, filter string) ([]model.RelevantDocument, error) {
	if len(strings.TrimSpace(query)) < 3 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	docs, err := s.vectorSearch(ctx, userID, query, limit)
	if err != nil {
		slog.WarnContext(ctx, "vector search failed, falling back to substring search", "error", err)
		docs, err = s.substringSearch(ctx, userID, query, limit)
		if err != nil {
			return nil, err
		}
	}

	return filterBySource(docs, filter), nil
}

func (s *pgSearcher) vectorSearch(ctx context.Context, userID int64, query string, limit int) ([]model.RelevantDocument, error) {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT content, metadata, 1 - (embedding <=> $1::vector) AS similarity
		 FROM vector_documents
		 WHERE user_id = $2 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $1::vector
		 LIMIT $3`,
		vectorLiteral(embedding), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

func (s *pgSearcher) substringSearch(ctx context.Context, userID int64, query string, limit int) ([]model.RelevantDocument, error) {
	firstWord := query
	if fields := strings.Fields(query); len(fields) > 0 {
		firstWord = fields[0]
	}

	rows, err := s.db.Query(ctx,
		`SELECT content, metadata, 0::float8 AS similarity
		 FROM vector_documents
		 WHERE user_id = $1 AND (content ILIKE $2 OR content ILIKE $3)
		 ORDER BY created_at DESC
		 LIMIT $4`,
		userID, "%"+query+"%", "%"+firstWord+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("substring query: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

type docRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanDocuments(rows docRows) ([]model.RelevantDocument, error) {
	var out []model.RelevantDocument
	for rows.Next() {
		var (
			doc     model.RelevantDocument
			rawMeta []byte
		)
		if err := rows.Scan(&doc.Content, &rawMeta, &doc.Score); err != nil {
			return nil, err
		}
		if len(rawMeta) > 0 {
			if err := json.Unmarshal(rawMeta, &doc.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal document metadata: %w", err)
			}
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func filterBySource(docs []model.RelevantDocument, filter string) []model.RelevantDocument {
	if filter == "" || filter == FilterAll {
		return docs
	}

	var out []model.RelevantDocument
	for _, doc := range docs {
		switch filter {
		case FilterEmails:
			if doc.Metadata.Source == model.DocSourceEmail {
				out = append(out, doc)
			}
		case FilterCalendar:
			if doc.Metadata.Source == model.DocSourceCalendar {
				out = append(out, doc)
			}
		case FilterContacts:
			if doc.Metadata.Source == model.DocSourceContact || doc.Metadata.Source == model.DocSourceContactNote {
				out = append(out, doc)
			}
		default:
			out = append(out, doc)
		}
	}
	return out
}

// vectorLiteral renders an embedding in pgvector's input format.
func vectorLiteral(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = fmt.Sprintf("%g", f)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
