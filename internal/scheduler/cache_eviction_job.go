package scheduler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"portfolio-backend/internal/audio"
)

// CacheEvictionJob удаляет из кеша аудио, которым давно не пользовались
type CacheEvictionJob struct {
	audioService  *audio.Service
	retentionDays int
	logger        *zap.Logger
}

// NewCacheEvictionJob создает новую джобу очистки аудио кеша
func NewCacheEvictionJob(audioService *audio.Service, retentionDays int, logger *zap.Logger) *CacheEvictionJob {
	return &CacheEvictionJob{
		audioService:  audioService,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

// Name возвращает имя джобы для логов планировщика
func (j *CacheEvictionJob) Name() string {
	return "cache_eviction"
}

// Run запускает очистку кеша
func (j *CacheEvictionJob) Run(ctx context.Context) error {
	j.logger.Info("запуск джобы очистки аудио кеша",
		zap.Int("retention_days", j.retentionDays))

	result, err := j.audioService.Evict(ctx, j.retentionDays)
	if err != nil {
		j.logger.Error("ошибка очистки аудио кеша", zap.Error(err))
		return fmt.Errorf("ошибка очистки аудио кеша: %w", err)
	}

	j.logger.Info("джоба очистки аудио кеша завершена",
		zap.Int64("deleted_entries", result.DeletedEntries),
		zap.Int64("deleted_files", result.DeletedFiles))
	return nil
}
