package postgres

import (
	"context"
	"fmt"

	"github.com/webster-hq/webster/internal/core/domain"
)

type ContentRepository struct {
	db DBTX
}

func NewContentRepository(db DBTX) *ContentRepository {
	return &ContentRepository{db: db}
}

func (r *ContentRepository) Get(ctx context.Context, pageKey, languageCode string) ([]domain.ContentEntry, error) {
	query :=
		`SELECT page_key, section_key, language_code, body, modified_by, modified_at
		 FROM page_content
		 WHERE page_key = $1 AND language_code = $2
		 ORDER BY section_key`

	rows, err := r.db.QueryContext(ctx, query, pageKey, languageCode)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []domain.ContentEntry
	for rows.Next() {
		var e domain.ContentEntry
		if err := rows.Scan(&e.PageKey, &e.SectionKey, &e.LanguageCode, &e.Body, &e.Editor, &e.ModifiedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *ContentRepository) Upsert(ctx context.Context, e domain.ContentEntry) error {
	query :=
		`INSERT INTO page_content (page_key, section_key, language_code, body, modified_by, modified_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (page_key, section_key, language_code) DO UPDATE
		 SET body = EXCLUDED.body, modified_by = EXCLUDED.modified_by, modified_at = EXCLUDED.modified_at`

	if _, err := r.db.ExecContext(ctx, query,
		e.PageKey, e.SectionKey, e.LanguageCode, e.Body, e.Editor, e.ModifiedAt,
	); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
