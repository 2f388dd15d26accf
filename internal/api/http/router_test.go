package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/verbis/internal/provider"
	"github.com/immxrtalbeast/verbis/internal/provider/mocks"
	"github.com/immxrtalbeast/verbis/internal/relay"
	"github.com/immxrtalbeast/verbis/internal/repository"
	"github.com/immxrtalbeast/verbis/internal/service"
	"github.com/immxrtalbeast/verbis/lib/logger/slogdiscard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type apiFixture struct {
	router   *gin.Engine
	provider *mocks.MockProvider
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := slogdiscard.NewDiscardLogger()

	ctrl := gomock.NewController(t)
	p := mocks.NewMockProvider(ctrl)
	p.EXPECT().Model().Return("gpt-3.5-turbo").AnyTimes()

	userRepo := repository.NewInMemoryUserRepository()
	users := service.NewUserService(userRepo, log, "test-secret", time.Hour)
	rooms := service.NewRoomService(
		repository.NewInMemoryRoomRepository(),
		repository.NewInMemoryParticipantRepository(),
		userRepo,
		log,
	)
	translations := service.NewTranslationService(repository.NewInMemoryTranslationCache(), p, log)
	speech := service.NewSpeechService(p, log)
	rt := relay.New(log, relay.NewHub(log), rooms, translations, relay.Options{})

	router := SetupRouter([]string{"*"}, users, Controllers{
		Users:        NewUserController(users, log),
		Rooms:        NewRoomController(rooms, log),
		Translations: NewTranslationController(translations, log),
		Speech:       NewSpeechController(speech, log),
		Realtime:     NewRealtimeController(rt, log, []string{"*"}),
	})
	return &apiFixture{router: router, provider: p}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) register(t *testing.T, email string) string {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/users/register", "", gin.H{
		"email": email, "password": "password1", "name": strings.Split(email, "@")[0],
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUsers_RegisterLoginMe(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "deniz@verbis.app")

	w := f.do(t, http.MethodPost, "/api/users/register", "", gin.H{"email": "deniz@verbis.app", "password": "password1", "name": "D"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/api/users/login", "", gin.H{"email": "deniz@verbis.app", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/api/users/login", "", gin.H{"email": "deniz@verbis.app", "password": "password1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]any](t, w)
	assert.Equal(t, "deniz@verbis.app", me["email"])
	assert.NotContains(t, w.Body.String(), "password")

	w = f.do(t, http.MethodPut, "/api/users/profile", token, gin.H{"preferredLanguage": "it"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "it", decode[map[string]any](t, w)["preferredLanguage"])
}

func TestAuth_TokenSources(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "a@verbis.app")

	w := f.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)

	w = f.do(t, http.MethodGet, "/api/users/me", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("x-auth-token", token)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTranslate_Text(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "t@verbis.app")

	f.provider.EXPECT().Translate(gomock.Any(), "Hello", "en", "es").Return("Hola", nil).Times(1)

	w := f.do(t, http.MethodPost, "/api/translate/text", token, gin.H{"text": "Hello", "sourceLanguage": "en", "targetLanguage": "es"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{
		"originalText": "Hello",
		"originalLanguage": "en",
		"translatedText": "Hola",
		"targetLanguage": "es",
		"translationModel": "gpt-3.5-turbo"
	}`, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/translate/text", token, gin.H{"text": "Hello", "sourceLanguage": "en", "targetLanguage": "es"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/translate/text", token, gin.H{"text": "Hello", "sourceLanguage": "en"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranslate_ProviderFailureIsBadGateway(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "t@verbis.app")

	f.provider.EXPECT().Translate(gomock.Any(), "Hello", "en", "fr").
		Return("", &provider.ProviderError{Op: "translate", Kind: provider.KindTimeout, Err: errors.New("deadline")})

	w := f.do(t, http.MethodPost, "/api/translate/text", token, gin.H{"text": "Hello", "sourceLanguage": "en", "targetLanguage": "fr"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "deadline")
}

func TestTranslate_LanguagesIsPublic(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(t, http.MethodGet, "/api/translate/languages", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	langs := decode[[]map[string]string](t, w)
	require.Len(t, langs, 12)
	assert.Equal(t, "en", langs[0]["code"])
	assert.Equal(t, "Turkish", langs[1]["name"])
}

func TestRooms_Lifecycle(t *testing.T) {
	f := newAPIFixture(t)
	owner := f.register(t, "owner@verbis.app")
	guest := f.register(t, "guest@verbis.app")
	stranger := f.register(t, "stranger@verbis.app")

	w := f.do(t, http.MethodPost, "/api/rooms/create", owner, gin.H{"name": "Weekly", "supportedLanguages": []string{"en", "tr"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		Room struct {
			ID       string `json:"id"`
			RoomCode string `json:"roomCode"`
		} `json:"room"`
		UserInfo struct {
			Role string `json:"role"`
		} `json:"userInfo"`
	}](t, w)
	assert.Equal(t, "owner", created.UserInfo.Role)
	roomID := created.Room.ID

	w = f.do(t, http.MethodPost, "/api/rooms/join", guest, gin.H{"roomCode": created.Room.RoomCode, "listeningLanguage": "tr"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/rooms/join", guest, gin.H{"roomCode": "ZZZZZZ"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/api/rooms/list", guest, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = f.do(t, http.MethodGet, "/api/rooms/"+roomID, guest, nil)
	require.Equal(t, http.StatusOK, w.Code)
	details := decode[struct {
		Participants []map[string]any `json:"participants"`
	}](t, w)
	assert.Len(t, details.Participants, 2)

	w = f.do(t, http.MethodGet, "/api/rooms/"+roomID, stranger, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodGet, "/api/rooms/not-a-uuid", guest, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/rooms/"+roomID+"/leave", guest, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodPost, "/api/rooms/"+roomID+"/leave", guest, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSpeech_Synthesize(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "s@verbis.app")

	f.provider.EXPECT().TextToSpeech(gomock.Any(), "Merhaba", "nova").Return([]byte("ID3"), nil)

	w := f.do(t, http.MethodPost, "/api/speech/synthesize", token, gin.H{"text": "Merhaba", "voice": "nova"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "ID3", w.Body.String())

	w = f.do(t, http.MethodPost, "/api/speech/synthesize", token, gin.H{"text": "Merhaba", "voice": "robot"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSpeech_Transcribe(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "s@verbis.app")

	f.provider.EXPECT().SpeechToText(gomock.Any(), []byte("RIFF"), "clip.wav", "en").Return("hello", nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", "clip.wav")
	require.NoError(t, err)
	_, _ = part.Write([]byte("RIFF"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/speech/transcribe", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"text":"hello","language":"en"}`, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/speech/transcribe", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRealtime_RequiresTokenAndRelays(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "ws@verbis.app")

	w := f.do(t, http.MethodPost, "/api/rooms/create", token, gin.H{"name": "Live", "supportedLanguages": []string{"en", "de"}})
	require.Equal(t, http.StatusCreated, w.Code)
	roomID := decode[struct {
		Room struct {
			ID string `json:"id"`
		} `json:"room"`
	}](t, w).Room.ID

	srv := httptest.NewServer(f.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	f.provider.EXPECT().Translate(gomock.Any(), "Good night", "en", "de").Return("Gute Nacht", nil)

	require.NoError(t, conn.WriteJSON(gin.H{"type": relay.EventJoinRoom, "data": gin.H{"roomId": roomID}}))
	var env relay.Envelope
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&env))
	require.Equal(t, relay.EventRoomJoined, env.Type)

	require.NoError(t, conn.WriteJSON(gin.H{"type": relay.EventTranslateMessage, "data": gin.H{
		"roomId": roomID, "originalText": "Good night", "sourceLanguage": "en", "targetLanguages": []string{"de"},
	}}))
	require.NoError(t, conn.ReadJSON(&env))
	require.Equal(t, relay.EventTranslationResult, env.Type)

	var res relay.TranslationResultPayload
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Len(t, res.Translations, 1)
	assert.Equal(t, "Gute Nacht", res.Translations[0].TranslatedText)
}
