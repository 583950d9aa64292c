package server

import (
	"net/http"

	"portfolio-backend/internal/metrics"
)

// NewRouter собирает маршруты аудио подсистемы и служебные endpoint'ы
func NewRouter(h *Handler, metricsHandler *metrics.Handler) http.Handler {
	mux := http.NewServeMux()

	// TTS и кеш
	mux.HandleFunc("POST /api/audio/tts", h.HandleTTS)
	mux.HandleFunc("GET /api/audio/cache/stats", h.requireAdmin(h.HandleCacheStats))
	mux.HandleFunc("DELETE /api/audio/cache/cleanup", h.requireAdmin(h.HandleCleanup))
	mux.HandleFunc("GET /api/audio/cache/{hash}", h.HandleGetCacheEntry)
	mux.HandleFunc("DELETE /api/audio/cache/{hash}", h.requireAdmin(h.HandleDeleteCacheEntry))

	// Загруженные аудио
	mux.HandleFunc("POST /api/audio/custom", h.requireAdmin(h.HandleUploadCustom))
	mux.HandleFunc("GET /api/audio/custom", h.HandleListCustom)
	mux.HandleFunc("POST /api/audio/custom/search", h.HandleSearchCustom)
	mux.HandleFunc("PATCH /api/audio/custom/{id}", h.requireAdmin(h.HandleUpdateCustom))
	mux.HandleFunc("DELETE /api/audio/custom/{id}", h.requireAdmin(h.HandleDeleteCustom))

	// Голоса провайдера
	mux.HandleFunc("GET /api/voice/voices", h.HandleVoices)

	// Служебные endpoint'ы
	mux.Handle("/metrics", metricsHandler.MetricsHandler())
	mux.HandleFunc("/health", metricsHandler.HealthHandler)

	return mux
}
