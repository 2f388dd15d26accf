package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// MinTranslatableLength is the rune count below which text is returned as is.
const MinTranslatableLength = 2

// CacheKey identifies one cached translation.
type CacheKey struct {
	Text       string
	SourceLang string
	TargetLang string
}

// Hash is the hex SHA-256 of the key, used for storage indexes.
func (k CacheKey) Hash() string {
	h := sha256.New()
	h.Write([]byte(k.SourceLang))
	h.Write([]byte{0})
	h.Write([]byte(k.TargetLang))
	h.Write([]byte{0})
	h.Write([]byte(k.Text))
	return hex.EncodeToString(h.Sum(nil))
}

// TextHash is the hex SHA-256 of the source text alone.
func (k CacheKey) TextHash() string {
	sum := sha256.Sum256([]byte(k.Text))
	return hex.EncodeToString(sum[:])
}

type CacheEntry struct {
	Key            CacheKey
	TranslatedText string
	Model          string
	UsageCount     int64
	CreatedAt      time.Time
}

func NewCacheEntry(key CacheKey, translated, model string) *CacheEntry {
	return &CacheEntry{
		Key:            key,
		TranslatedText: translated,
		Model:          model,
		UsageCount:     1,
		CreatedAt:      time.Now().UTC(),
	}
}

// Utterance is one message submitted for translation during a call.
type Utterance struct {
	RoomID      string
	SpeakerID   string
	Text        string
	SourceLang  string
	TargetLangs []string
}

type TranslationResult struct {
	TargetLanguage string `json:"targetLanguage"`
	TranslatedText string `json:"translatedText"`
}

type TranslationFailure struct {
	TargetLanguage string `json:"targetLanguage"`
	Error          string `json:"error"`
}
