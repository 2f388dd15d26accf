package relay

import (
	"encoding/json"

	"github.com/immxrtalbeast/verbis/internal/domain"
)

// Client events.
const (
	EventJoinRoom         = "join-room"
	EventLeaveRoom        = "leave-room"
	EventTranslateMessage = "translate-message"
)

// Server events.
const (
	EventTranslationResult = "translation-result"
	EventTranslationError  = "translation-error"
	EventRoomJoined        = "room-joined"
	EventRoomLeft          = "room-left"
	EventRoomError         = "room-error"
)

// Envelope is the frame exchanged in both directions over the socket.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type RoomPayload struct {
	RoomID string `json:"roomId"`
}

type RoomErrorPayload struct {
	RoomID string `json:"roomId"`
	Error  string `json:"error"`
}

type TranslateMessagePayload struct {
	RoomID          string   `json:"roomId"`
	UserID          string   `json:"userId"`
	OriginalText    string   `json:"originalText"`
	SourceLanguage  string   `json:"sourceLanguage"`
	TargetLanguages []string `json:"targetLanguages"`
}

type TranslationResultPayload struct {
	UserID         string                      `json:"userId"`
	OriginalText   string                      `json:"originalText"`
	SourceLanguage string                      `json:"sourceLanguage"`
	Translations   []domain.TranslationResult  `json:"translations"`
	Failures       []domain.TranslationFailure `json:"failures,omitempty"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func encode(eventType string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: eventType, Data: raw})
}
