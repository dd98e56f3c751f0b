package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/webster-hq/webster/internal/core/domain"
	"github.com/webster-hq/webster/internal/core/ports"
	"github.com/webster-hq/webster/internal/metrics"
)

// ContentService reads and writes language-scoped page sections.
type ContentService struct {
	store ports.Store
	now   func() time.Time
	log   zerolog.Logger
}

func NewContentService(store ports.Store, now func() time.Time, log zerolog.Logger) *ContentService {
	if now == nil {
		now = time.Now
	}
	return &ContentService{store: store, now: now, log: log}
}

// Get returns section bodies for a page in a language. A page without rows
// yields an empty map.
func (s *ContentService) Get(ctx context.Context, pageKey, languageCode string) (map[string]string, error) {
	pageKey, languageCode = contentDefaults(pageKey, languageCode)

	entries, err := s.store.Content().Get(ctx, pageKey, languageCode)
	if err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.SectionKey] = e.Body
	}
	return out, nil
}

// Upsert writes every section of update in one transaction.
func (s *ContentService) Upsert(ctx context.Context, update domain.ContentUpdate) error {
	page := strings.TrimSpace(update.PageKey)
	lang := strings.TrimSpace(update.LanguageCode)
	editor := strings.TrimSpace(update.Editor)
	switch {
	case page == "":
		return domain.Invalid("page", "is required")
	case lang == "":
		return domain.Invalid("lang", "is required")
	case editor == "":
		return domain.Invalid("modifiedBy", "is required")
	case len(update.Sections) == 0:
		return domain.Invalid("content", "must contain at least one section")
	}

	keys := make([]string, 0, len(update.Sections))
	for k := range update.Sections {
		if strings.TrimSpace(k) == "" {
			return domain.Invalid("content", "section keys must not be empty")
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := s.now().UTC()
	err := s.store.WithinTx(ctx, func(uow ports.UnitOfWork) error {
		repo := uow.Content()
		for _, k := range keys {
			if err := repo.Upsert(ctx, domain.ContentEntry{
				ContentKey: domain.ContentKey{PageKey: page, SectionKey: k, LanguageCode: lang},
				Body:       update.Sections[k],
				Editor:     editor,
				ModifiedAt: now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert content: %w", err)
	}

	metrics.ContentSectionsWrittenTotal.WithLabelValues(lang).Add(float64(len(keys)))
	s.log.Info().Str("page", page).Str("lang", lang).Int("sections", len(keys)).Msg("content updated")
	return nil
}

func contentDefaults(pageKey, languageCode string) (string, string) {
	pageKey, languageCode = strings.TrimSpace(pageKey), strings.TrimSpace(languageCode)
	if pageKey == "" {
		pageKey = domain.DefaultPageKey
	}
	if languageCode == "" {
		languageCode = domain.DefaultLanguage
	}
	return pageKey, languageCode
}
