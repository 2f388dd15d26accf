package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/immxrtalbeast/verbis/internal/domain"
	"github.com/immxrtalbeast/verbis/internal/repository/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresTranslationCache keeps cache entries in the translation_cache_entries
// table. Expired rows are removed by PurgeExpired, never filtered on read.
type PostgresTranslationCache struct {
	db *gorm.DB
}

func NewPostgresTranslationCache(db *gorm.DB) *PostgresTranslationCache {
	return &PostgresTranslationCache{db: db}
}

func (c *PostgresTranslationCache) Lookup(ctx context.Context, key domain.CacheKey) (*domain.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var row model.TranslationCacheEntry
	err := c.db.WithContext(ctx).
		Where("text_hash = ? AND original_language = ? AND target_language = ?", key.TextHash(), key.SourceLang, key.TargetLang).
		Where("original_text = ?", key.Text).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("gorm: lookup translation %s->%s: %w", key.SourceLang, key.TargetLang, err)
	}

	return toDomainCacheEntry(&row), nil
}

func (c *PostgresTranslationCache) Record(ctx context.Context, entry *domain.CacheEntry) (*domain.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, errors.New("cache entry is nil")
	}

	row := toModelCacheEntry(entry)
	res := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "text_hash"},
			{Name: "original_language"},
			{Name: "target_language"},
		},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return nil, fmt.Errorf("gorm: record translation %s->%s: %w", entry.Key.SourceLang, entry.Key.TargetLang, res.Error)
	}
	if res.RowsAffected > 0 {
		return toDomainCacheEntry(row), nil
	}

	// Another writer won the race; hand back its entry.
	existing, err := c.Lookup(ctx, entry.Key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return entry, nil
		}
		return nil, err
	}
	return existing, nil
}

func (c *PostgresTranslationCache) Touch(ctx context.Context, key domain.CacheKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := c.db.WithContext(ctx).Model(&model.TranslationCacheEntry{}).
		Where("text_hash = ? AND original_language = ? AND target_language = ?", key.TextHash(), key.SourceLang, key.TargetLang).
		Where("original_text = ?", key.Text).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("gorm: touch translation %s->%s: %w", key.SourceLang, key.TargetLang, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCacheMiss
	}
	return nil
}

func (c *PostgresTranslationCache) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	res := c.db.WithContext(ctx).Where("created_at < ?", before.UTC()).Delete(&model.TranslationCacheEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("gorm: purge translations before %s: %w", before.Format(time.RFC3339), res.Error)
	}
	return res.RowsAffected, nil
}

func toModelCacheEntry(entry *domain.CacheEntry) *model.TranslationCacheEntry {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	usage := entry.UsageCount
	if usage < 1 {
		usage = 1
	}
	return &model.TranslationCacheEntry{
		TextHash:         entry.Key.TextHash(),
		OriginalText:     entry.Key.Text,
		OriginalLanguage: entry.Key.SourceLang,
		TargetLanguage:   entry.Key.TargetLang,
		TranslatedText:   entry.TranslatedText,
		TranslationModel: entry.Model,
		UsageCount:       usage,
		CreatedAt:        createdAt.UTC(),
	}
}

func toDomainCacheEntry(row *model.TranslationCacheEntry) *domain.CacheEntry {
	return &domain.CacheEntry{
		Key: domain.CacheKey{
			Text:       row.OriginalText,
			SourceLang: row.OriginalLanguage,
			TargetLang: row.TargetLanguage,
		},
		TranslatedText: row.TranslatedText,
		Model:          row.TranslationModel,
		UsageCount:     row.UsageCount,
		CreatedAt:      row.CreatedAt.UTC(),
	}
}
