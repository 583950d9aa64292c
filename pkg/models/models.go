package models

import (
	"time"
)

// AudioCache представляет запись кеша сгенерированного аудио.
// На один text_hash существует не более одной записи.
type AudioCache struct {
	ID            int64          `json:"id" db:"id"`
	Text          string         `json:"text" db:"text"`
	TextHash      string         `json:"text_hash" db:"text_hash"` // SHA-256 от (текст, голос, настройки)
	VoiceID       string         `json:"voice_id" db:"voice_id"`
	VoiceSettings map[string]any `json:"voice_settings" db:"voice_settings"`
	AudioURL      string         `json:"audio_url" db:"audio_url"`
	FileName      string         `json:"file_name" db:"file_name"`
	FileSize      int64          `json:"file_size" db:"file_size"`
	Duration      *float64       `json:"duration" db:"duration"` // длительность в секундах
	Source        string         `json:"source" db:"source"`     // "generated" или "uploaded"
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	LastUsed      time.Time      `json:"last_used" db:"last_used"`
}

// CustomAudio представляет загруженный вручную аудио файл
type CustomAudio struct {
	ID          int64     `json:"id" db:"id"`
	NoteID      *int64    `json:"note_id" db:"note_id"` // привязка к заметке, опционально
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	AudioURL    string    `json:"audio_url" db:"audio_url"`
	FileName    string    `json:"file_name" db:"file_name"`
	FileSize    int64     `json:"file_size" db:"file_size"`
	Duration    *float64  `json:"duration" db:"duration"`
	ContentType string    `json:"content_type" db:"content_type"`
	TextContent string    `json:"text_content" db:"text_content"` // текст, который озвучивает файл
	IsActive    bool      `json:"is_active" db:"is_active"`
	UploadedAt  time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// CacheStats представляет статистику кеша аудио
type CacheStats struct {
	TotalCached    int64      `json:"total_cached"`
	TotalSizeBytes int64      `json:"total_size_bytes"`
	UniqueVoices   int64      `json:"unique_voices"`
	OldestEntry    *time.Time `json:"oldest_entry"`
	NewestEntry    *time.Time `json:"newest_entry"`
	UsedLastWeek   int64      `json:"used_last_week"`
}

// TTSRequest представляет запрос на синтез речи
type TTSRequest struct {
	Text          string         `json:"text" validate:"required"`
	VoiceID       string         `json:"voice_id"`
	VoiceSettings map[string]any `json:"voice_settings"`
	UseCache      bool           `json:"use_cache"`
}

// TTSResponse представляет результат синтеза речи
type TTSResponse struct {
	AudioURL string   `json:"audio_url"`
	TextHash string   `json:"text_hash"`
	Cached   bool     `json:"cached"`
	FileSize int64    `json:"file_size"`
	Duration *float64 `json:"duration,omitempty"`
	VoiceID  string   `json:"voice_id"`
}

// CleanupResult представляет итог очистки кеша
type CleanupResult struct {
	DeletedEntries int64 `json:"deleted_entries"`
	DeletedFiles   int64 `json:"deleted_files"`
}

// VoiceInfo представляет голос, доступный у провайдера синтеза
type VoiceInfo struct {
	VoiceID  string `json:"voice_id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}
