package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"portfolio-backend/internal/apperrors"
	"portfolio-backend/internal/audio"
	"portfolio-backend/internal/tts"
	"portfolio-backend/pkg/models"

	"go.uber.org/zap"
)

// AudioService описывает операции аудио подсистемы, доступные по HTTP
type AudioService interface {
	GetOrGenerate(ctx context.Context, req models.TTSRequest) (*models.TTSResponse, error)
	GetEntry(ctx context.Context, textHash string) (*models.AudioCache, error)
	DeleteEntry(ctx context.Context, textHash string) error
	Stats(ctx context.Context) (*models.CacheStats, error)
	Evict(ctx context.Context, olderThanDays int) (*models.CleanupResult, error)
	UploadCustom(ctx context.Context, params audio.UploadParams) (*models.CustomAudio, error)
	UpdateCustom(ctx context.Context, id int64, params audio.UpdateCustomParams) (*models.CustomAudio, error)
	ListCustom(ctx context.Context, noteID *int64, activeOnly bool) ([]models.CustomAudio, error)
	SearchCustom(ctx context.Context, query, searchType string) ([]models.CustomAudio, error)
	DeleteCustom(ctx context.Context, id int64) error
}

// Handler обрабатывает HTTP запросы аудио подсистемы
type Handler struct {
	audioService AudioService
	synth        tts.Synthesizer
	logger       *zap.Logger

	adminToken    string
	retentionDays int
	maxFileSize   int64
	allowedTypes  []string
}

// NewHandler создает новый обработчик аудио запросов
func NewHandler(audioService AudioService, synth tts.Synthesizer, adminToken string, retentionDays int, maxFileSize int64, allowedTypes []string, logger *zap.Logger) *Handler {
	return &Handler{
		audioService:  audioService,
		synth:         synth,
		logger:        logger,
		adminToken:    adminToken,
		retentionDays: retentionDays,
		maxFileSize:   maxFileSize,
		allowedTypes:  allowedTypes,
	}
}

// HandleTTS обрабатывает запрос на синтез речи
func (h *Handler) HandleTTS(w http.ResponseWriter, r *http.Request) {
	var req models.TTSRequest
	req.UseCache = true

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("ошибка парсинга TTS запроса", zap.Error(err))
		h.writeError(w, apperrors.Validation("некорректное тело запроса"))
		return
	}
	defer r.Body.Close()

	resp, err := h.audioService.GetOrGenerate(r.Context(), req)
	if err != nil {
		h.logger.Error("ошибка обработки TTS запроса", zap.Error(err))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleCacheStats возвращает статистику кеша
func (h *Handler) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.audioService.Stats(r.Context())
	if err != nil {
		h.logger.Error("ошибка получения статистики кеша", zap.Error(err))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// HandleGetCacheEntry возвращает запись кеша по хешу
func (h *Handler) HandleGetCacheEntry(w http.ResponseWriter, r *http.Request) {
	textHash := r.PathValue("hash")
	if textHash == "" {
		h.writeError(w, apperrors.Validation("хеш не может быть пустым"))
		return
	}

	entry, err := h.audioService.GetEntry(r.Context(), textHash)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, entry)
}

// HandleDeleteCacheEntry удаляет запись кеша вместе с файлом
func (h *Handler) HandleDeleteCacheEntry(w http.ResponseWriter, r *http.Request) {
	textHash := r.PathValue("hash")
	if textHash == "" {
		h.writeError(w, apperrors.Validation("хеш не может быть пустым"))
		return
	}

	if err := h.audioService.DeleteEntry(r.Context(), textHash); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "text_hash": textHash})
}

// HandleCleanup удаляет записи кеша старше указанного количества дней
func (h *Handler) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	days := h.retentionDays
	if raw := r.URL.Query().Get("days_old"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, apperrors.Validation("days_old должен быть числом"))
			return
		}
		days = parsed
	}

	result, err := h.audioService.Evict(r.Context(), days)
	if err != nil {
		h.logger.Error("ошибка очистки кеша", zap.Error(err))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleUploadCustom обрабатывает загрузку аудио файла
func (h *Handler) HandleUploadCustom(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		h.logger.Warn("ошибка парсинга multipart формы", zap.Error(err))
		h.writeError(w, apperrors.Validation("некорректная multipart форма"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, apperrors.Validation("файл не найден в форме"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("ошибка чтения загруженного файла", zap.Error(err))
		h.writeError(w, apperrors.Internal("ошибка чтения файла", err))
		return
	}

	params := audio.UploadParams{
		Content:      content,
		ContentType:  header.Header.Get("Content-Type"),
		OriginalName: header.Filename,
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		TextContent:  r.FormValue("text_content"),
		MaxFileSize:  h.maxFileSize,
		AllowedTypes: h.allowedTypes,
	}

	if raw := r.FormValue("note_id"); raw != "" {
		noteID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.writeError(w, apperrors.Validation("note_id должен быть числом"))
			return
		}
		params.NoteID = &noteID
	}

	result, err := h.audioService.UploadCustom(r.Context(), params)
	if err != nil {
		h.logger.Error("ошибка загрузки аудио", zap.Error(err))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, result)
}

// HandleListCustom возвращает список загруженных аудио
func (h *Handler) HandleListCustom(w http.ResponseWriter, r *http.Request) {
	var noteID *int64
	if raw := r.URL.Query().Get("note_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.writeError(w, apperrors.Validation("note_id должен быть числом"))
			return
		}
		noteID = &parsed
	}

	activeOnly := r.URL.Query().Get("active_only") != "false"

	audios, err := h.audioService.ListCustom(r.Context(), noteID, activeOnly)
	if err != nil {
		h.logger.Error("ошибка получения списка аудио", zap.Error(err))
		h.writeError(w, err)
		return
	}

	if audios == nil {
		audios = []models.CustomAudio{}
	}
	h.writeJSON(w, http.StatusOK, audios)
}

// HandleSearchCustom ищет загруженные аудио по тексту
func (h *Handler) HandleSearchCustom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query      string `json:"query"`
		SearchType string `json:"search_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.Validation("некорректное тело запроса"))
		return
	}
	defer r.Body.Close()

	audios, err := h.audioService.SearchCustom(r.Context(), req.Query, req.SearchType)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if audios == nil {
		audios = []models.CustomAudio{}
	}
	h.writeJSON(w, http.StatusOK, audios)
}

// HandleUpdateCustom частично обновляет запись загруженного аудио.
// Отсутствующие в теле поля остаются без изменений.
func (h *Handler) HandleUpdateCustom(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, apperrors.Validation("идентификатор должен быть числом"))
		return
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		TextContent *string `json:"text_content"`
		IsActive    *bool   `json:"is_active"`
		NoteID      *int64  `json:"note_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.Validation("некорректное тело запроса"))
		return
	}
	defer r.Body.Close()

	updated, err := h.audioService.UpdateCustom(r.Context(), id, audio.UpdateCustomParams{
		Title:       req.Title,
		Description: req.Description,
		TextContent: req.TextContent,
		IsActive:    req.IsActive,
		NoteID:      req.NoteID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, updated)
}

// HandleDeleteCustom удаляет загруженное аудио вместе с файлом
func (h *Handler) HandleDeleteCustom(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, apperrors.Validation("идентификатор должен быть числом"))
		return
	}

	if err := h.audioService.DeleteCustom(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "id": id})
}

// HandleVoices возвращает каталог голосов провайдера
func (h *Handler) HandleVoices(w http.ResponseWriter, r *http.Request) {
	voices, err := h.synth.Voices(r.Context())
	if err != nil {
		h.logger.Error("ошибка получения списка голосов", zap.Error(err))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, voices)
}

// requireAdmin оборачивает обработчик проверкой административного токена.
// Без настроенного токена привилегированные запросы отклоняются.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Admin-Token")
		if h.adminToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
			h.logger.Warn("отклонен привилегированный запрос",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// writeJSON пишет JSON ответ
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("ошибка записи JSON ответа", zap.Error(err))
	}
}

// writeError переводит типизированную ошибку в HTTP статус.
// Категория ошибки определяет код ответа только здесь, на границе HTTP.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	h.writeJSON(w, status, map[string]string{"error": apperrors.UserMessage(err)})
}
