package service

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/immxrtalbeast/verbis/internal/domain"
	"github.com/immxrtalbeast/verbis/internal/provider"
	"github.com/immxrtalbeast/verbis/internal/repository"
	"github.com/immxrtalbeast/verbis/lib/logger/sl"
	"golang.org/x/sync/singleflight"
)

const touchTimeout = 5 * time.Second

type TranslationService struct {
	log      *slog.Logger
	cache    repository.TranslationCache
	provider provider.Provider
	inflight singleflight.Group
}

func NewTranslationService(cache repository.TranslationCache, p provider.Provider, log *slog.Logger) *TranslationService {
	return &TranslationService{
		log:      log,
		cache:    cache,
		provider: p,
	}
}

// GetTranslation returns text translated from sourceLang to targetLang,
// serving repeats from the cache. Text shorter than two runes is returned
// unchanged.
func (s *TranslationService) GetTranslation(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	const op = "service.translation.get"
	log := s.log.With(
		slog.String("op", op),
		slog.String("source", sourceLang),
		slog.String("target", targetLang),
	)

	if utf8.RuneCountInString(text) < domain.MinTranslatableLength {
		return text, nil
	}

	key := domain.CacheKey{Text: text, SourceLang: sourceLang, TargetLang: targetLang}

	entry, err := s.cache.Lookup(ctx, key)
	switch {
	case err == nil:
		log.Debug("cache hit")
		go s.touch(key)
		return entry.TranslatedText, nil
	case !errors.Is(err, repository.ErrCacheMiss):
		log.Warn("cache lookup failed, treating as miss", sl.Err(err))
	}

	// Concurrent misses for one key share a single provider call. The call
	// outlives any one caller, so it is detached from their cancellation.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.inflight.Do(key.Hash(), func() (any, error) {
		translated, err := s.provider.Translate(shared, text, sourceLang, targetLang)
		if err != nil {
			return nil, err
		}

		if _, err := s.cache.Record(shared, domain.NewCacheEntry(key, translated, s.provider.Model())); err != nil {
			log.Error("failed to record translation", sl.Err(err))
		}
		return translated, nil
	})
	if err != nil {
		log.Error("provider translation failed", sl.Err(err))
		return "", &TranslationError{SourceLang: sourceLang, TargetLang: targetLang, Err: err}
	}

	return v.(string), nil
}

func (s *TranslationService) Model() string {
	return s.provider.Model()
}

func (s *TranslationService) Languages() []domain.Language {
	return domain.SupportedLanguages()
}

func (s *TranslationService) touch(key domain.CacheKey) {
	ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
	defer cancel()

	if err := s.cache.Touch(ctx, key); err != nil && !errors.Is(err, repository.ErrCacheMiss) {
		s.log.Warn("failed to bump usage counter", slog.String("op", "service.translation.touch"), sl.Err(err))
	}
}
