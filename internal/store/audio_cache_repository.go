package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portfolio-backend/internal/apperrors"
	"portfolio-backend/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// audioCacheRepository реализует AudioCacheRepository
type audioCacheRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewAudioCacheRepository создает новый репозиторий кеша аудио
func NewAudioCacheRepository(db *pgxpool.Pool, logger *zap.Logger) AudioCacheRepository {
	return &audioCacheRepository{
		db:     db,
		logger: logger,
	}
}

// Create создает запись кеша. При конкурентной вставке одного и того же
// text_hash выигрывает первая запись, у проигравшей лишь обновляется last_used.
func (r *audioCacheRepository) Create(ctx context.Context, entry *models.AudioCache) error {
	query := `
		INSERT INTO audio_cache (text, text_hash, voice_id, voice_settings, audio_url, file_name, file_size, duration, source, created_at, last_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (text_hash) DO UPDATE SET last_used = EXCLUDED.last_used
		RETURNING id`

	now := time.Now()
	entry.CreatedAt = now
	entry.LastUsed = now

	if entry.Source == "" {
		entry.Source = "generated"
	}

	err := r.db.QueryRow(ctx, query,
		entry.Text, entry.TextHash, entry.VoiceID, entry.VoiceSettings,
		entry.AudioURL, entry.FileName, entry.FileSize, entry.Duration,
		entry.Source, entry.CreatedAt, entry.LastUsed,
	).Scan(&entry.ID)

	if err != nil {
		return fmt.Errorf("ошибка создания записи кеша: %w", err)
	}

	r.logger.Info("запись кеша создана",
		zap.Int64("id", entry.ID),
		zap.String("text_hash", entry.TextHash),
		zap.String("voice_id", entry.VoiceID),
		zap.Int64("file_size", entry.FileSize))

	return nil
}

// GetByHash получает запись кеша по хешу текста
func (r *audioCacheRepository) GetByHash(ctx context.Context, textHash string) (*models.AudioCache, error) {
	query := `
		SELECT id, text, text_hash, voice_id, voice_settings, audio_url, file_name, file_size, duration, source, created_at, last_used
		FROM audio_cache WHERE text_hash = $1`

	entry := &models.AudioCache{}
	err := r.db.QueryRow(ctx, query, textHash).Scan(
		&entry.ID, &entry.Text, &entry.TextHash, &entry.VoiceID, &entry.VoiceSettings,
		&entry.AudioURL, &entry.FileName, &entry.FileSize, &entry.Duration,
		&entry.Source, &entry.CreatedAt, &entry.LastUsed,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("запись кеша не найдена")
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения записи кеша: %w", err)
	}

	return entry, nil
}

// TouchLastUsed обновляет время последнего использования записи
func (r *audioCacheRepository) TouchLastUsed(ctx context.Context, textHash string) error {
	query := `UPDATE audio_cache SET last_used = $2 WHERE text_hash = $1`

	result, err := r.db.Exec(ctx, query, textHash, time.Now())
	if err != nil {
		return fmt.Errorf("ошибка обновления last_used: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NotFound("запись кеша не найдена")
	}

	return nil
}

// DeleteByHash удаляет запись кеша по хешу
func (r *audioCacheRepository) DeleteByHash(ctx context.Context, textHash string) error {
	query := `DELETE FROM audio_cache WHERE text_hash = $1`

	result, err := r.db.Exec(ctx, query, textHash)
	if err != nil {
		return fmt.Errorf("ошибка удаления записи кеша: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NotFound("запись кеша не найдена")
	}

	r.logger.Info("запись кеша удалена", zap.String("text_hash", textHash))
	return nil
}

// ListOlderThan возвращает записи, не использовавшиеся с указанного момента
func (r *audioCacheRepository) ListOlderThan(ctx context.Context, cutoff time.Time) ([]models.AudioCache, error) {
	query := `
		SELECT id, text, text_hash, voice_id, voice_settings, audio_url, file_name, file_size, duration, source, created_at, last_used
		FROM audio_cache
		WHERE last_used < $1
		ORDER BY last_used ASC`

	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения устаревших записей кеша: %w", err)
	}
	defer rows.Close()

	var entries []models.AudioCache
	for rows.Next() {
		entry := models.AudioCache{}
		err := rows.Scan(
			&entry.ID, &entry.Text, &entry.TextHash, &entry.VoiceID, &entry.VoiceSettings,
			&entry.AudioURL, &entry.FileName, &entry.FileSize, &entry.Duration,
			&entry.Source, &entry.CreatedAt, &entry.LastUsed,
		)
		if err != nil {
			r.logger.Error("ошибка сканирования записи кеша", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// DeleteOlderThan удаляет записи, не использовавшиеся с указанного момента
func (r *audioCacheRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM audio_cache WHERE last_used < $1`

	result, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления устаревших записей кеша: %w", err)
	}

	deleted := result.RowsAffected()
	r.logger.Info("устаревшие записи кеша удалены",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff))

	return deleted, nil
}

// Stats возвращает статистику кеша
func (r *audioCacheRepository) Stats(ctx context.Context) (*models.CacheStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(file_size), 0),
			COUNT(DISTINCT voice_id),
			MIN(created_at),
			MAX(created_at),
			COUNT(*) FILTER (WHERE last_used >= $1)
		FROM audio_cache`

	weekAgo := time.Now().AddDate(0, 0, -7)

	stats := &models.CacheStats{}
	err := r.db.QueryRow(ctx, query, weekAgo).Scan(
		&stats.TotalCached, &stats.TotalSizeBytes, &stats.UniqueVoices,
		&stats.OldestEntry, &stats.NewestEntry, &stats.UsedLastWeek,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения статистики кеша: %w", err)
	}

	return stats, nil
}
