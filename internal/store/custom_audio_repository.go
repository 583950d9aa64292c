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

// customAudioRepository реализует CustomAudioRepository
type customAudioRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewCustomAudioRepository создает новый репозиторий загруженных аудио
func NewCustomAudioRepository(db *pgxpool.Pool, logger *zap.Logger) CustomAudioRepository {
	return &customAudioRepository{
		db:     db,
		logger: logger,
	}
}

// Create создает запись загруженного аудио
func (r *customAudioRepository) Create(ctx context.Context, audio *models.CustomAudio) error {
	query := `
		INSERT INTO custom_audio (note_id, title, description, audio_url, file_name, file_size, duration, content_type, text_content, is_active, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	audio.UploadedAt = time.Now()

	err := r.db.QueryRow(ctx, query,
		audio.NoteID, audio.Title, audio.Description, audio.AudioURL,
		audio.FileName, audio.FileSize, audio.Duration, audio.ContentType,
		audio.TextContent, audio.IsActive, audio.UploadedAt,
	).Scan(&audio.ID)

	if err != nil {
		return fmt.Errorf("ошибка создания записи загруженного аудио: %w", err)
	}

	r.logger.Info("загруженное аудио сохранено",
		zap.Int64("id", audio.ID),
		zap.String("title", audio.Title),
		zap.String("file_name", audio.FileName))

	return nil
}

// GetByID получает запись загруженного аудио по ID
func (r *customAudioRepository) GetByID(ctx context.Context, id int64) (*models.CustomAudio, error) {
	query := `
		SELECT id, note_id, title, description, audio_url, file_name, file_size, duration, content_type, text_content, is_active, uploaded_at
		FROM custom_audio WHERE id = $1`

	audio := &models.CustomAudio{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&audio.ID, &audio.NoteID, &audio.Title, &audio.Description, &audio.AudioURL,
		&audio.FileName, &audio.FileSize, &audio.Duration, &audio.ContentType,
		&audio.TextContent, &audio.IsActive, &audio.UploadedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("загруженное аудио не найдено")
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения загруженного аудио: %w", err)
	}

	return audio, nil
}

// List возвращает загруженные аудио с фильтрами по заметке и активности
func (r *customAudioRepository) List(ctx context.Context, noteID *int64, activeOnly bool) ([]models.CustomAudio, error) {
	query := `
		SELECT id, note_id, title, description, audio_url, file_name, file_size, duration, content_type, text_content, is_active, uploaded_at
		FROM custom_audio
		WHERE ($1::bigint IS NULL OR note_id = $1)
		  AND (NOT $2 OR is_active)
		ORDER BY uploaded_at DESC`

	rows, err := r.db.Query(ctx, query, noteID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка загруженных аудио: %w", err)
	}
	defer rows.Close()

	return r.scanRows(rows)
}

// Search ищет загруженные аудио по заголовку, описанию или тексту
func (r *customAudioRepository) Search(ctx context.Context, query string, searchType string) ([]models.CustomAudio, error) {
	pattern := "%" + query + "%"

	var condition string
	switch searchType {
	case "title":
		condition = "title ILIKE $1"
	case "description":
		condition = "description ILIKE $1"
	case "content":
		condition = "text_content ILIKE $1"
	default: // "all"
		condition = "(title ILIKE $1 OR description ILIKE $1 OR text_content ILIKE $1)"
	}

	sql := fmt.Sprintf(`
		SELECT id, note_id, title, description, audio_url, file_name, file_size, duration, content_type, text_content, is_active, uploaded_at
		FROM custom_audio
		WHERE is_active AND %s
		ORDER BY uploaded_at DESC`, condition)

	rows, err := r.db.Query(ctx, sql, pattern)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска загруженных аудио: %w", err)
	}
	defer rows.Close()

	return r.scanRows(rows)
}

// Update обновляет изменяемые поля записи
func (r *customAudioRepository) Update(ctx context.Context, audio *models.CustomAudio) error {
	query := `
		UPDATE custom_audio
		SET title = $2, description = $3, text_content = $4, is_active = $5, note_id = $6
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query,
		audio.ID, audio.Title, audio.Description, audio.TextContent, audio.IsActive, audio.NoteID,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления загруженного аудио: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NotFound("загруженное аудио не найдено")
	}

	r.logger.Info("загруженное аудио обновлено", zap.Int64("id", audio.ID))
	return nil
}

// Delete удаляет запись загруженного аудио
func (r *customAudioRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM custom_audio WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления загруженного аудио: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NotFound("загруженное аудио не найдено")
	}

	r.logger.Info("загруженное аудио удалено", zap.Int64("id", id))
	return nil
}

// scanRows читает строки выборки в срез моделей
func (r *customAudioRepository) scanRows(rows pgx.Rows) ([]models.CustomAudio, error) {
	var audios []models.CustomAudio
	for rows.Next() {
		audio := models.CustomAudio{}
		err := rows.Scan(
			&audio.ID, &audio.NoteID, &audio.Title, &audio.Description, &audio.AudioURL,
			&audio.FileName, &audio.FileSize, &audio.Duration, &audio.ContentType,
			&audio.TextContent, &audio.IsActive, &audio.UploadedAt,
		)
		if err != nil {
			r.logger.Error("ошибка сканирования загруженного аудио", zap.Error(err))
			continue
		}
		audios = append(audios, audio)
	}

	return audios, nil
}
