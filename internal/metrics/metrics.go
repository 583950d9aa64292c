package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics содержит все метрики приложения
type Metrics struct {
	logger *zap.Logger

	// Счетчики
	ttsRequests    *prometheus.CounterVec
	evictedEntries prometheus.Counter
	evictedFiles   prometheus.Counter
	uploads        prometheus.Counter

	// Гистограммы
	providerLatency prometheus.Histogram

	// Gauge метрики
	lastUploadSize prometheus.Gauge
}

// New создает новый экземпляр метрик
func New(logger *zap.Logger) *Metrics {
	m := &Metrics{
		logger: logger,

		// Счетчики TTS запросов
		ttsRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tts_requests_total",
				Help: "Общее количество TTS запросов",
			},
			[]string{"status"}, // hit, miss, error
		),

		// Счетчики очистки кеша
		evictedEntries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_evicted_entries_total",
				Help: "Общее количество удаленных записей кеша",
			},
		),
		evictedFiles: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_evicted_files_total",
				Help: "Общее количество удаленных аудио файлов",
			},
		),

		// Счетчик загрузок
		uploads: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "custom_audio_uploads_total",
				Help: "Общее количество загруженных аудио файлов",
			},
		),

		// Гистограмма времени ответа провайдера
		providerLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tts_provider_latency_seconds",
				Help:    "Время ответа TTS провайдера в секундах",
				Buckets: prometheus.DefBuckets,
			},
		),

		// Gauge размера последней загрузки
		lastUploadSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "custom_audio_last_upload_bytes",
				Help: "Размер последнего загруженного файла в байтах",
			},
		),
	}

	// Регистрируем все метрики
	prometheus.MustRegister(
		m.ttsRequests,
		m.evictedEntries,
		m.evictedFiles,
		m.uploads,
		m.providerLatency,
		m.lastUploadSize,
	)

	return m
}

// RecordTTSRequest записывает TTS запрос. Время провайдера учитывается
// только для промахов: при попадании в кеш провайдер не вызывается.
func (m *Metrics) RecordTTSRequest(status string, providerSeconds float64) {
	m.ttsRequests.WithLabelValues(status).Inc()
	if status == "miss" {
		m.providerLatency.Observe(providerSeconds)
	}
	m.logger.Debug("метрика TTS обновлена",
		zap.String("status", status),
		zap.Float64("provider_seconds", providerSeconds))
}

// RecordEviction записывает результат очистки кеша
func (m *Metrics) RecordEviction(entries, files int64) {
	m.evictedEntries.Add(float64(entries))
	m.evictedFiles.Add(float64(files))
}

// RecordUpload записывает загрузку аудио файла
func (m *Metrics) RecordUpload(sizeBytes int64) {
	m.uploads.Inc()
	m.lastUploadSize.Set(float64(sizeBytes))
}

// Handler возвращает HTTP handler для метрик
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
