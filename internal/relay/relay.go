package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/verbis/internal/domain"
	"github.com/immxrtalbeast/verbis/internal/provider"
	"github.com/immxrtalbeast/verbis/lib/logger/sl"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxConcurrent = 4
	defaultSendBuffer    = 32
	defaultMaxTextLength = 4000
)

var (
	errNotJoined       = errors.New("not joined to room")
	errEmptyText       = errors.New("originalText is required")
	errTextTooLong     = errors.New("originalText is too long")
	errBadSource       = errors.New("unsupported source language")
	errRoomUnavailable = errors.New("room not found or inactive")
	errNotParticipant  = errors.New("not a participant of this room")
	errBadRoomID       = errors.New("invalid room id")
	errShuttingDown    = errors.New("server is shutting down")
)

// Directory resolves rooms and their membership.
type Directory interface {
	GetRoom(ctx context.Context, roomID uuid.UUID) (*domain.Room, error)
	GetParticipant(ctx context.Context, roomID, userID uuid.UUID) (*domain.Participant, error)
	ListParticipants(ctx context.Context, roomID uuid.UUID) ([]*domain.Participant, error)
}

type Translator interface {
	GetTranslation(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

type Options struct {
	// MaxConcurrent bounds provider calls per utterance.
	MaxConcurrent int
	SendBuffer    int
	MaxTextLength int
}

// Relay turns utterances from one session into translated messages for every
// session joined to the same room.
type Relay struct {
	log        *slog.Logger
	hub        *Hub
	directory  Directory
	translator Translator
	opts       Options

	mu       sync.Mutex
	closing  bool
	inflight sync.WaitGroup
}

func New(log *slog.Logger, hub *Hub, directory Directory, translator Translator, opts Options) *Relay {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultMaxConcurrent
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	if opts.MaxTextLength <= 0 {
		opts.MaxTextLength = defaultMaxTextLength
	}
	return &Relay{
		log:        log,
		hub:        hub,
		directory:  directory,
		translator: translator,
		opts:       opts,
	}
}

// Dispatch routes one raw client frame.
func (r *Relay) Dispatch(ctx context.Context, s *Session, raw []byte) {
	const op = "relay.dispatch"
	log := r.log.With(slog.String("op", op), slog.String("session_id", s.ID()))

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Debug("malformed frame", sl.Err(err))
		r.sendTo(s, EventTranslationError, ErrorPayload{Error: "malformed message"})
		return
	}

	switch env.Type {
	case EventJoinRoom:
		var p RoomPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			r.sendTo(s, EventRoomError, RoomErrorPayload{Error: "malformed join-room payload"})
			return
		}
		_ = r.JoinRoom(ctx, s, p.RoomID)
	case EventLeaveRoom:
		var p RoomPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			r.sendTo(s, EventRoomError, RoomErrorPayload{Error: "malformed leave-room payload"})
			return
		}
		r.LeaveRoom(s, p.RoomID)
	case EventTranslateMessage:
		var p TranslateMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			r.sendTo(s, EventTranslationError, ErrorPayload{Error: "malformed translate-message payload"})
			return
		}
		// Utterances outlive the connection that sent them.
		detached := context.WithoutCancel(ctx)
		if !r.track() {
			r.sendTo(s, EventTranslationError, ErrorPayload{Error: errShuttingDown.Error()})
			return
		}
		go func() {
			defer r.inflight.Done()
			r.HandleUtterance(detached, s, p)
		}()
	default:
		log.Debug("unknown event", slog.String("type", env.Type))
		r.sendTo(s, EventTranslationError, ErrorPayload{Error: "unsupported event type: " + env.Type})
	}
}

// JoinRoom subscribes s to the room channel. The user must already be a
// participant of an active room. Any previously joined room is left first.
func (r *Relay) JoinRoom(ctx context.Context, s *Session, roomID string) error {
	const op = "relay.joinRoom"
	log := r.log.With(
		slog.String("op", op),
		slog.String("session_id", s.ID()),
		slog.String("room_id", roomID),
	)

	id, err := uuid.Parse(roomID)
	if err != nil {
		r.sendTo(s, EventRoomError, RoomErrorPayload{RoomID: roomID, Error: errBadRoomID.Error()})
		return errBadRoomID
	}

	room, err := r.directory.GetRoom(ctx, id)
	if err != nil || !room.IsActive || room.IsExpired() {
		if err != nil {
			log.Debug("room lookup failed", sl.Err(err))
		}
		r.sendTo(s, EventRoomError, RoomErrorPayload{RoomID: roomID, Error: errRoomUnavailable.Error()})
		return errRoomUnavailable
	}
	if _, err := r.directory.GetParticipant(ctx, id, s.UserID()); err != nil {
		log.Debug("participant lookup failed", sl.Err(err))
		r.sendTo(s, EventRoomError, RoomErrorPayload{RoomID: roomID, Error: errNotParticipant.Error()})
		return errNotParticipant
	}

	previous, ok := s.join(roomID)
	if !ok {
		return errNotJoined
	}
	if previous != "" && previous != roomID {
		r.hub.Unsubscribe(previous, s)
		r.sendTo(s, EventRoomLeft, RoomPayload{RoomID: previous})
	}
	if !r.hub.Subscribe(roomID, s) {
		return errNotJoined
	}
	r.sendTo(s, EventRoomJoined, RoomPayload{RoomID: roomID})

	log.Info("session joined room", slog.String("user_id", s.UserID().String()))
	return nil
}

func (r *Relay) LeaveRoom(s *Session, roomID string) {
	if !s.leave(roomID) {
		r.sendTo(s, EventRoomError, RoomErrorPayload{RoomID: roomID, Error: errNotJoined.Error()})
		return
	}
	r.hub.Unsubscribe(roomID, s)
	r.sendTo(s, EventRoomLeft, RoomPayload{RoomID: roomID})
}

// Disconnect releases the session's room subscription.
func (r *Relay) Disconnect(s *Session) {
	if roomID := s.Close(); roomID != "" {
		r.hub.Unsubscribe(roomID, s)
	}
	r.hub.Unregister(s)
}

// HandleUtterance translates msg into every target language and emits the
// gathered outcome. Every language is attempted even if others fail.
func (r *Relay) HandleUtterance(ctx context.Context, s *Session, msg TranslateMessagePayload) {
	const op = "relay.handleUtterance"
	log := r.log.With(
		slog.String("op", op),
		slog.String("session_id", s.ID()),
		slog.String("room_id", msg.RoomID),
	)

	if !s.JoinedTo(msg.RoomID) {
		r.sendTo(s, EventTranslationError, ErrorPayload{Error: errNotJoined.Error()})
		return
	}

	text := strings.TrimSpace(msg.OriginalText)
	switch {
	case text == "":
		r.sendTo(s, EventTranslationError, ErrorPayload{Error: errEmptyText.Error()})
		return
	case utf8.RuneCountInString(text) > r.opts.MaxTextLength:
		r.sendTo(s, EventTranslationError, ErrorPayload{Error: errTextTooLong.Error()})
		return
	case !domain.IsSupportedLanguage(msg.SourceLanguage):
		r.sendTo(s, EventTranslationError, ErrorPayload{Error: errBadSource.Error()})
		return
	}

	targets, err := r.resolveTargets(ctx, msg.RoomID, msg.SourceLanguage, msg.TargetLanguages)
	if err != nil {
		log.Error("failed to resolve target languages", sl.Err(err))
		r.sendTo(s, EventTranslationError, ErrorPayload{Error: errRoomUnavailable.Error()})
		return
	}

	translations, failures := r.translateAll(ctx, text, msg.SourceLanguage, targets)

	if len(translations) == 0 && len(failures) > 0 {
		log.Warn("all translations failed", slog.Int("targets", len(targets)))
		r.sendTo(s, EventTranslationError, ErrorPayload{Error: "translation failed for all target languages"})
		return
	}

	frame, err := encode(EventTranslationResult, TranslationResultPayload{
		UserID:         s.UserID().String(),
		OriginalText:   text,
		SourceLanguage: msg.SourceLanguage,
		Translations:   translations,
		Failures:       failures,
	})
	if err != nil {
		log.Error("failed to encode translation result", sl.Err(err))
		return
	}

	delivered := r.hub.Publish(msg.RoomID, frame)
	log.Debug("translation result published",
		slog.Int("translations", len(translations)),
		slog.Int("failures", len(failures)),
		slog.Int("delivered", delivered),
	)
}

// translateAll returns results and failures in target order.
func (r *Relay) translateAll(ctx context.Context, text, source string, targets []string) ([]domain.TranslationResult, []domain.TranslationFailure) {
	outcomes := make([]string, len(targets))
	errs := make([]error, len(targets))

	var g errgroup.Group
	g.SetLimit(r.opts.MaxConcurrent)
	for i, target := range targets {
		g.Go(func() error {
			outcomes[i], errs[i] = r.translator.GetTranslation(ctx, text, source, target)
			return nil
		})
	}
	_ = g.Wait()

	translations := make([]domain.TranslationResult, 0, len(targets))
	var failures []domain.TranslationFailure
	for i, target := range targets {
		if errs[i] != nil {
			r.log.Warn("translation failed",
				slog.String("source", source),
				slog.String("target", target),
				sl.Err(errs[i]),
			)
			failures = append(failures, domain.TranslationFailure{TargetLanguage: target, Error: publicError(errs[i])})
			continue
		}
		translations = append(translations, domain.TranslationResult{TargetLanguage: target, TranslatedText: outcomes[i]})
	}
	return translations, failures
}

// resolveTargets keeps the requested languages the room supports. When none
// remain it falls back to what participants listen in, again limited to the
// room's languages. The source language is never a target.
func (r *Relay) resolveTargets(ctx context.Context, roomID, source string, requested []string) ([]string, error) {
	id, err := uuid.Parse(roomID)
	if err != nil {
		return nil, err
	}
	room, err := r.directory.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}

	targets := make([]string, 0, len(requested))
	add := func(lang string) {
		if lang == "" || lang == source || !domain.IsSupportedLanguage(lang) || slices.Contains(targets, lang) {
			return
		}
		targets = append(targets, lang)
	}

	for _, lang := range requested {
		if room.Supports(lang) {
			add(lang)
		}
	}
	if len(targets) > 0 {
		return targets, nil
	}

	participants, err := r.directory.ListParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, p := range participants {
		if room.Supports(p.ListeningLanguage) {
			add(p.ListeningLanguage)
		}
	}
	return targets, nil
}

func (r *Relay) sendTo(s *Session, eventType string, data any) {
	frame, err := encode(eventType, data)
	if err != nil {
		r.log.Error("failed to encode event", slog.String("type", eventType), sl.Err(err))
		return
	}
	if !s.enqueue(frame) {
		r.log.Debug("event not delivered", slog.String("type", eventType), slog.String("session_id", s.ID()))
	}
}

// track registers one in-flight utterance unless the relay is shutting down.
func (r *Relay) track() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closing {
		return false
	}
	r.inflight.Add(1)
	return true
}

// Shutdown stops accepting utterances, closes every session and waits for
// in-flight utterances to finish.
func (r *Relay) Shutdown() {
	r.mu.Lock()
	r.closing = true
	r.mu.Unlock()

	closed := r.hub.CloseAll()
	r.inflight.Wait()
	r.log.Info("relay stopped", slog.Int("closed_sessions", closed))
}

func publicError(err error) string {
	switch {
	case provider.IsKind(err, provider.KindTimeout):
		return "translation timed out"
	case provider.IsKind(err, provider.KindUnavailable):
		return "translation provider unavailable"
	case provider.IsKind(err, provider.KindRejected):
		return "translation rejected by provider"
	default:
		return "translation failed"
	}
}
