package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"portfolio-backend/internal/apperrors"
	"portfolio-backend/internal/audio"
	"portfolio-backend/internal/metrics"
	"portfolio-backend/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubAudioService возвращает заранее заданные ответы и запоминает аргументы
type stubAudioService struct {
	ttsResp    *models.TTSResponse
	ttsErr     error
	entry      *models.AudioCache
	entryErr   error
	stats      *models.CacheStats
	cleanup    *models.CleanupResult
	cleanupErr error
	uploaded   *models.CustomAudio
	uploadErr  error
	updated    *models.CustomAudio
	updateErr  error
	custom     []models.CustomAudio

	evictDays    int
	deleted      []string
	updateID     int64
	updateParams audio.UpdateCustomParams
}

func (s *stubAudioService) GetOrGenerate(ctx context.Context, req models.TTSRequest) (*models.TTSResponse, error) {
	if s.ttsErr != nil {
		return nil, s.ttsErr
	}
	return s.ttsResp, nil
}

func (s *stubAudioService) GetEntry(ctx context.Context, textHash string) (*models.AudioCache, error) {
	if s.entryErr != nil {
		return nil, s.entryErr
	}
	return s.entry, nil
}

func (s *stubAudioService) DeleteEntry(ctx context.Context, textHash string) error {
	if s.entryErr != nil {
		return s.entryErr
	}
	s.deleted = append(s.deleted, textHash)
	return nil
}

func (s *stubAudioService) Stats(ctx context.Context) (*models.CacheStats, error) {
	return s.stats, nil
}

func (s *stubAudioService) Evict(ctx context.Context, olderThanDays int) (*models.CleanupResult, error) {
	if s.cleanupErr != nil {
		return nil, s.cleanupErr
	}
	s.evictDays = olderThanDays
	return s.cleanup, nil
}

func (s *stubAudioService) UploadCustom(ctx context.Context, params audio.UploadParams) (*models.CustomAudio, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	return s.uploaded, nil
}

func (s *stubAudioService) UpdateCustom(ctx context.Context, id int64, params audio.UpdateCustomParams) (*models.CustomAudio, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	s.updateID = id
	s.updateParams = params
	return s.updated, nil
}

func (s *stubAudioService) ListCustom(ctx context.Context, noteID *int64, activeOnly bool) ([]models.CustomAudio, error) {
	return s.custom, nil
}

func (s *stubAudioService) SearchCustom(ctx context.Context, query, searchType string) ([]models.CustomAudio, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.Validation("поисковый запрос не может быть пустым")
	}
	return s.custom, nil
}

func (s *stubAudioService) DeleteCustom(ctx context.Context, id int64) error {
	return nil
}

type stubSynthesizer struct {
	voices []models.VoiceInfo
	err    error
}

func (s *stubSynthesizer) Synthesize(ctx context.Context, text, voiceID string, settings map[string]any) ([]byte, error) {
	return []byte("audio"), nil
}

func (s *stubSynthesizer) Voices(ctx context.Context) ([]models.VoiceInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.voices, nil
}

func newTestRouter(t *testing.T, svc *stubAudioService, synth *stubSynthesizer, adminToken string) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	h := NewHandler(svc, synth, adminToken, 30, 10*1024*1024, []string{"audio/mpeg"}, logger)
	return NewRouter(h, metrics.NewHandler(nil, logger))
}

func TestHandleTTS(t *testing.T) {
	svc := &stubAudioService{
		ttsResp: &models.TTSResponse{
			AudioURL: "/storage/audio/tts_abc.mp3",
			TextHash: "abc",
			Cached:   true,
			VoiceID:  "voice1",
		},
	}
	router := newTestRouter(t, svc, &stubSynthesizer{}, "")

	body := bytes.NewBufferString(`{"text":"привет","use_cache":true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/audio/tts", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.TTSResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "abc", resp.TextHash)
	assert.True(t, resp.Cached)
}

func TestHandleTTSValidationError(t *testing.T) {
	svc := &stubAudioService{ttsErr: apperrors.Validation("текст не может быть пустым")}
	router := newTestRouter(t, svc, &stubSynthesizer{}, "")

	req := httptest.NewRequest(http.MethodPost, "/api/audio/tts", bytes.NewBufferString(`{"text":""}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTTSBadJSON(t *testing.T) {
	router := newTestRouter(t, &stubAudioService{}, &stubSynthesizer{}, "")

	req := httptest.NewRequest(http.MethodPost, "/api/audio/tts", bytes.NewBufferString(`{не json`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetCacheEntry(t *testing.T) {
	svc := &stubAudioService{
		entry: &models.AudioCache{TextHash: "abc", AudioURL: "/storage/audio/tts_abc.mp3"},
	}
	router := newTestRouter(t, svc, &stubSynthesizer{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/audio/cache/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var entry models.AudioCache
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, "abc", entry.TextHash)
}

func TestHandleGetCacheEntryNotFound(t *testing.T) {
	svc := &stubAudioService{entryErr: apperrors.NotFound("запись кеша не найдена")}
	router := newTestRouter(t, svc, &stubSynthesizer{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/audio/cache/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminTokenRequired(t *testing.T) {
	svc := &stubAudioService{stats: &models.CacheStats{TotalCached: 3}}
	router := newTestRouter(t, svc, &stubSynthesizer{}, "secret")

	// Без токена — отказ
	req := httptest.NewRequest(http.MethodGet, "/api/audio/cache/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// С неверным токеном — отказ
	req = httptest.NewRequest(http.MethodGet, "/api/audio/cache/stats", nil)
	req.Header.Set("X-Admin-Token", "wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// С верным токеном — успех
	req = httptest.NewRequest(http.MethodGet, "/api/audio/cache/stats", nil)
	req.Header.Set("X-Admin-Token", "secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.CacheStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(3), stats.TotalCached)
}

func TestAdminTokenUnsetRejectsAll(t *testing.T) {
	// Без настроенного токена привилегированные запросы недоступны
	svc := &stubAudioService{stats: &models.CacheStats{}}
	router := newTestRouter(t, svc, &stubSynthesizer{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/audio/cache/stats", nil)
	req.Header.Set("X-Admin-Token", "")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleCleanup(t *testing.T) {
	svc := &stubAudioService{cleanup: &models.CleanupResult{DeletedEntries: 2, DeletedFiles: 2}}
	router := newTestRouter(t, svc, &stubSynthesizer{}, "secret")

	req := httptest.NewRequest(http.MethodDelete, "/api/audio/cache/cleanup?days_old=7", nil)
	req.Header.Set("X-Admin-Token", "secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, svc.evictDays)

	var result models.CleanupResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, int64(2), result.DeletedEntries)
}

func TestHandleCleanupDefaultDays(t *testing.T) {
	svc := &stubAudioService{cleanup: &models.CleanupResult{}}
	router := newTestRouter(t, svc, &stubSynthesizer{}, "secret")

	req := httptest.NewRequest(http.MethodDelete, "/api/audio/cache/cleanup", nil)
	req.Header.Set("X-Admin-Token", "secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, svc.evictDays)
}

func TestHandleCleanupBadDays(t *testing.T) {
	router := newTestRouter(t, &stubAudioService{}, &stubSynthesizer{}, "secret")

	req := httptest.NewRequest(http.MethodDelete, "/api/audio/cache/cleanup?days_old=abc", nil)
	req.Header.Set("X-Admin-Token", "secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleUploadCustom(t *testing.T) {
	svc := &stubAudioService{
		uploaded: &models.CustomAudio{ID: 1, Title: "Вступление", AudioURL: "/storage/audio/custom_x.mp3"},
	}
	router := newTestRouter(t, svc, &stubSynthesizer{}, "secret")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "intro.mp3")
	require.NoError(t, err)
	_, err = part.Write([]byte("ID3 данные"))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("title", "Вступление"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/audio/custom", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Admin-Token", "secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var uploaded models.CustomAudio
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	assert.Equal(t, int64(1), uploaded.ID)
}

func TestHandleUploadCustomMissingFile(t *testing.T) {
	router := newTestRouter(t, &stubAudioService{}, &stubSynthesizer{}, "secret")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("title", "Без файла"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/audio/custom", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Admin-Token", "secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListCustom(t *testing.T) {
	svc := &stubAudioService{custom: []models.CustomAudio{{ID: 1}, {ID: 2}}}
	router := newTestRouter(t, svc, &stubSynthesizer{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/audio/custom", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var audios []models.CustomAudio
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &audios))
	assert.Len(t, audios, 2)
}

func TestHandleSearchCustomEmptyQuery(t *testing.T) {
	router := newTestRouter(t, &stubAudioService{}, &stubSynthesizer{}, "")

	req := httptest.NewRequest(http.MethodPost, "/api/audio/custom/search", bytes.NewBufferString(`{"query":"  "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleUpdateCustom(t *testing.T) {
	svc := &stubAudioService{
		updated: &models.CustomAudio{ID: 5, Title: "Новый заголовок", IsActive: false},
	}
	router := newTestRouter(t, svc, &stubSynthesizer{}, "secret")

	body := bytes.NewBufferString(`{"title":"Новый заголовок","is_active":false}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/audio/custom/5", body)
	req.Header.Set("X-Admin-Token", "secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), svc.updateID)
	require.NotNil(t, svc.updateParams.Title)
	assert.Equal(t, "Новый заголовок", *svc.updateParams.Title)
	require.NotNil(t, svc.updateParams.IsActive)
	assert.False(t, *svc.updateParams.IsActive)
	// Непереданное поле приходит нулевым указателем
	assert.Nil(t, svc.updateParams.Description)

	var updated models.CustomAudio
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Новый заголовок", updated.Title)
}

func TestHandleUpdateCustomRequiresAdmin(t *testing.T) {
	router := newTestRouter(t, &stubAudioService{}, &stubSynthesizer{}, "secret")

	req := httptest.NewRequest(http.MethodPatch, "/api/audio/custom/5", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleUpdateCustomNotFound(t *testing.T) {
	svc := &stubAudioService{updateErr: apperrors.NotFound("загруженное аудио не найдено")}
	router := newTestRouter(t, svc, &stubSynthesizer{}, "secret")

	req := httptest.NewRequest(http.MethodPatch, "/api/audio/custom/999", bytes.NewBufferString(`{"title":"x"}`))
	req.Header.Set("X-Admin-Token", "secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleUpdateCustomBadID(t *testing.T) {
	router := newTestRouter(t, &stubAudioService{}, &stubSynthesizer{}, "secret")

	req := httptest.NewRequest(http.MethodPatch, "/api/audio/custom/abc", bytes.NewBufferString(`{}`))
	req.Header.Set("X-Admin-Token", "secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDeleteCustomBadID(t *testing.T) {
	router := newTestRouter(t, &stubAudioService{}, &stubSynthesizer{}, "secret")

	req := httptest.NewRequest(http.MethodDelete, "/api/audio/custom/abc", nil)
	req.Header.Set("X-Admin-Token", "secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleVoices(t *testing.T) {
	synth := &stubSynthesizer{voices: []models.VoiceInfo{{VoiceID: "v1", Name: "Анна"}}}
	router := newTestRouter(t, &stubAudioService{}, synth, "")

	req := httptest.NewRequest(http.MethodGet, "/api/voice/voices", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var voices []models.VoiceInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &voices))
	require.Len(t, voices, 1)
	assert.Equal(t, "v1", voices[0].VoiceID)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubAudioService{}, &stubSynthesizer{}, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
