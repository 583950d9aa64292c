package audio

import (
	"context"
	"strings"
	"time"

	"portfolio-backend/internal/apperrors"
	"portfolio-backend/internal/blob"
	"portfolio-backend/internal/store"
	"portfolio-backend/internal/tts"
	"portfolio-backend/pkg/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// MaxTextLength ограничивает длину текста для синтеза
const MaxTextLength = 5000

// MetricsRecorder записывает метрики работы аудио подсистемы
type MetricsRecorder interface {
	RecordTTSRequest(status string, providerSeconds float64)
	RecordEviction(entries, files int64)
	RecordUpload(sizeBytes int64)
}

// Service управляет кешем синтезированной речи и загруженными аудио.
// Ключ кеша — отпечаток (текст, голос, настройки); на каждый ключ
// одновременно выполняется не больше одной генерации.
type Service struct {
	store   store.Store
	blobs   *blob.Store
	synth   tts.Synthesizer
	metrics MetricsRecorder
	logger  *zap.Logger

	defaultVoiceID string
	group          singleflight.Group
}

// NewService создает новый сервис аудио
func NewService(st store.Store, blobs *blob.Store, synth tts.Synthesizer, metrics MetricsRecorder, defaultVoiceID string, logger *zap.Logger) *Service {
	return &Service{
		store:          st,
		blobs:          blobs,
		synth:          synth,
		metrics:        metrics,
		logger:         logger,
		defaultVoiceID: defaultVoiceID,
	}
}

// nopMetrics используется там, где метрики не собираются
type nopMetrics struct{}

func (nopMetrics) RecordTTSRequest(status string, providerSeconds float64) {}
func (nopMetrics) RecordEviction(entries, files int64)                    {}
func (nopMetrics) RecordUpload(sizeBytes int64)                           {}

// NewEvictionService создает усеченный сервис только для очистки кеша:
// без провайдера синтеза и без регистрации метрик. Используется
// одноразовыми утилитами.
func NewEvictionService(st store.Store, blobs *blob.Store, logger *zap.Logger) *Service {
	return &Service{
		store:   st,
		blobs:   blobs,
		metrics: nopMetrics{},
		logger:  logger,
	}
}

// GetOrGenerate возвращает аудио из кеша или синтезирует его заново.
// Порядок записи на промахе строго файл-потом-строка: строка кеша никогда
// не ссылается на несохраненный файл.
func (s *Service) GetOrGenerate(ctx context.Context, req models.TTSRequest) (*models.TTSResponse, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, apperrors.Validation("текст не может быть пустым")
	}
	if len(text) > MaxTextLength {
		return nil, apperrors.Validation("текст превышает максимальную длину")
	}

	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = s.defaultVoiceID
	}

	settings := MergeVoiceSettings(req.VoiceSettings)

	textHash, err := Fingerprint(text, voiceID, settings)
	if err != nil {
		return nil, err
	}

	if req.UseCache {
		entry, err := s.store.AudioCache().GetByHash(ctx, textHash)
		switch {
		case err == nil && s.blobs.Exists(entry.FileName):
			if err := s.store.AudioCache().TouchLastUsed(ctx, textHash); err != nil {
				s.logger.Warn("не удалось обновить last_used", zap.Error(err))
			}
			s.metrics.RecordTTSRequest("hit", 0)
			return &models.TTSResponse{
				AudioURL: entry.AudioURL,
				TextHash: textHash,
				Cached:   true,
				FileSize: entry.FileSize,
				Duration: entry.Duration,
				VoiceID:  entry.VoiceID,
			}, nil

		case err == nil:
			// Файл пропал с диска: висячая запись удаляется,
			// запрос уходит на повторную генерацию
			s.logger.Warn("файл кеша отсутствует на диске, запись будет пересоздана",
				zap.String("text_hash", textHash),
				zap.String("file_name", entry.FileName))
			if delErr := s.store.AudioCache().DeleteByHash(ctx, textHash); delErr != nil {
				s.logger.Error("не удалось удалить висячую запись кеша", zap.Error(delErr))
			}

		case apperrors.KindOf(err) != apperrors.KindNotFound:
			return nil, err
		}
	}

	// Конкурентные промахи по одному ключу схлопываются в один вызов провайдера
	v, err, _ := s.group.Do(textHash, func() (interface{}, error) {
		return s.generate(ctx, text, voiceID, settings, textHash, req.UseCache)
	})
	if err != nil {
		s.metrics.RecordTTSRequest("error", 0)
		return nil, err
	}

	return v.(*models.TTSResponse), nil
}

// generate синтезирует аудио, сохраняет файл и создает запись кеша
func (s *Service) generate(ctx context.Context, text, voiceID string, settings map[string]any, textHash string, useCache bool) (*models.TTSResponse, error) {
	start := time.Now()
	audioData, err := s.synth.Synthesize(ctx, text, voiceID, settings)
	providerSeconds := time.Since(start).Seconds()
	if err != nil {
		return nil, err
	}

	fileName := blob.CacheFileName(textHash)
	audioURL, err := s.blobs.Save(audioData, fileName)
	if err != nil {
		return nil, err
	}

	if useCache {
		entry := &models.AudioCache{
			Text:          text,
			TextHash:      textHash,
			VoiceID:       voiceID,
			VoiceSettings: settings,
			AudioURL:      audioURL,
			FileName:      fileName,
			FileSize:      int64(len(audioData)),
			Source:        "generated",
		}
		if err := s.store.AudioCache().Create(ctx, entry); err != nil {
			// Строка не записалась: убираем осиротевший файл
			if delErr := s.blobs.Delete(fileName); delErr != nil {
				s.logger.Error("не удалось удалить осиротевший файл", zap.Error(delErr))
			}
			return nil, err
		}
	}

	s.metrics.RecordTTSRequest("miss", providerSeconds)

	return &models.TTSResponse{
		AudioURL: audioURL,
		TextHash: textHash,
		Cached:   false,
		FileSize: int64(len(audioData)),
		VoiceID:  voiceID,
	}, nil
}

// GetEntry возвращает запись кеша по хешу и обновляет last_used
func (s *Service) GetEntry(ctx context.Context, textHash string) (*models.AudioCache, error) {
	entry, err := s.store.AudioCache().GetByHash(ctx, textHash)
	if err != nil {
		return nil, err
	}

	if err := s.store.AudioCache().TouchLastUsed(ctx, textHash); err != nil {
		s.logger.Warn("не удалось обновить last_used", zap.Error(err))
	}

	return entry, nil
}

// DeleteEntry удаляет запись кеша вместе с файлом
func (s *Service) DeleteEntry(ctx context.Context, textHash string) error {
	entry, err := s.store.AudioCache().GetByHash(ctx, textHash)
	if err != nil {
		return err
	}

	if err := s.store.AudioCache().DeleteByHash(ctx, textHash); err != nil {
		return err
	}

	if err := s.blobs.Delete(entry.FileName); err != nil {
		// Строка уже удалена, отсутствие файла не ошибка для вызывающего
		s.logger.Warn("не удалось удалить файл записи кеша",
			zap.String("file_name", entry.FileName),
			zap.Error(err))
	}

	return nil
}

// Stats возвращает статистику кеша
func (s *Service) Stats(ctx context.Context) (*models.CacheStats, error) {
	return s.store.AudioCache().Stats(ctx)
}

// Evict удаляет записи кеша, не использовавшиеся дольше указанного
// количества дней. Удаление файлов best-effort: ошибка по одному файлу
// не прерывает очистку, строки удаляются в любом случае.
func (s *Service) Evict(ctx context.Context, olderThanDays int) (*models.CleanupResult, error) {
	if olderThanDays <= 0 {
		return nil, apperrors.Validation("количество дней должно быть положительным")
	}

	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	entries, err := s.store.AudioCache().ListOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	var deletedFiles int64
	for _, entry := range entries {
		if err := s.blobs.Delete(entry.FileName); err != nil {
			s.logger.Warn("не удалось удалить файл при очистке",
				zap.String("file_name", entry.FileName),
				zap.Error(err))
			continue
		}
		deletedFiles++
	}

	deletedRows, err := s.store.AudioCache().DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordEviction(deletedRows, deletedFiles)

	s.logger.Info("очистка кеша завершена",
		zap.Int64("deleted_entries", deletedRows),
		zap.Int64("deleted_files", deletedFiles),
		zap.Int("older_than_days", olderThanDays))

	return &models.CleanupResult{
		DeletedEntries: deletedRows,
		DeletedFiles:   deletedFiles,
	}, nil
}

// UploadParams описывает параметры загрузки аудио файла
type UploadParams struct {
	Content      []byte
	ContentType  string
	OriginalName string
	Title        string
	Description  string
	TextContent  string
	NoteID       *int64
	MaxFileSize  int64
	AllowedTypes []string
}

// UploadCustom валидирует и сохраняет загруженный аудио файл
func (s *Service) UploadCustom(ctx context.Context, params UploadParams) (*models.CustomAudio, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, apperrors.Validation("заголовок не может быть пустым")
	}

	if err := ValidateUpload(params.Content, params.ContentType, params.MaxFileSize, params.AllowedTypes); err != nil {
		return nil, err
	}

	fileName := blob.UploadFileName(params.OriginalName)
	audioURL, err := s.blobs.Save(params.Content, fileName)
	if err != nil {
		return nil, err
	}

	audio := &models.CustomAudio{
		NoteID:      params.NoteID,
		Title:       strings.TrimSpace(params.Title),
		Description: params.Description,
		AudioURL:    audioURL,
		FileName:    fileName,
		FileSize:    int64(len(params.Content)),
		ContentType: params.ContentType,
		TextContent: params.TextContent,
		IsActive:    true,
	}

	if err := s.store.CustomAudio().Create(ctx, audio); err != nil {
		if delErr := s.blobs.Delete(fileName); delErr != nil {
			s.logger.Error("не удалось удалить осиротевший файл", zap.Error(delErr))
		}
		return nil, err
	}

	s.metrics.RecordUpload(audio.FileSize)

	return audio, nil
}

// UpdateCustomParams описывает частичное обновление загруженного аудио.
// Нулевой указатель оставляет поле без изменений.
type UpdateCustomParams struct {
	Title       *string
	Description *string
	TextContent *string
	IsActive    *bool
	NoteID      *int64
}

// UpdateCustom частично обновляет запись загруженного аудио
func (s *Service) UpdateCustom(ctx context.Context, id int64, params UpdateCustomParams) (*models.CustomAudio, error) {
	audio, err := s.store.CustomAudio().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		if title == "" {
			return nil, apperrors.Validation("заголовок не может быть пустым")
		}
		audio.Title = title
	}
	if params.Description != nil {
		audio.Description = *params.Description
	}
	if params.TextContent != nil {
		audio.TextContent = *params.TextContent
	}
	if params.IsActive != nil {
		audio.IsActive = *params.IsActive
	}
	if params.NoteID != nil {
		audio.NoteID = params.NoteID
	}

	if err := s.store.CustomAudio().Update(ctx, audio); err != nil {
		return nil, err
	}

	s.logger.Info("загруженное аудио обновлено", zap.Int64("id", id))
	return audio, nil
}

// ListCustom возвращает загруженные аудио
func (s *Service) ListCustom(ctx context.Context, noteID *int64, activeOnly bool) ([]models.CustomAudio, error) {
	return s.store.CustomAudio().List(ctx, noteID, activeOnly)
}

// SearchCustom ищет загруженные аудио по тексту
func (s *Service) SearchCustom(ctx context.Context, query, searchType string) ([]models.CustomAudio, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.Validation("поисковый запрос не может быть пустым")
	}
	return s.store.CustomAudio().Search(ctx, query, searchType)
}

// DeleteCustom удаляет загруженное аудио вместе с файлом
func (s *Service) DeleteCustom(ctx context.Context, id int64) error {
	audio, err := s.store.CustomAudio().GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.CustomAudio().Delete(ctx, id); err != nil {
		return err
	}

	if err := s.blobs.Delete(audio.FileName); err != nil {
		s.logger.Warn("не удалось удалить файл загруженного аудио",
			zap.String("file_name", audio.FileName),
			zap.Error(err))
	}

	return nil
}
