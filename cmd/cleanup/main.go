package main

import (
	"context"
	"flag"
	"log"
	"time"

	"portfolio-backend/internal/audio"
	"portfolio-backend/internal/blob"
	"portfolio-backend/internal/config"
	"portfolio-backend/internal/store"

	"go.uber.org/zap"
)

func main() {
	var (
		days   = flag.Int("days", 0, "Удалить записи старше указанного количества дней (0 = значение из конфигурации)")
		dryRun = flag.Bool("dry-run", false, "Показать что будет удалено без фактического удаления")
	)
	flag.Parse()

	// Инициализация логгера
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Ошибка инициализации логгера:", err)
	}
	defer logger.Sync()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Ошибка загрузки конфигурации", zap.Error(err))
	}

	olderThanDays := *days
	if olderThanDays <= 0 {
		olderThanDays = cfg.Audio.RetentionDays
	}

	// Подключение к базе данных
	store, err := store.NewStore(cfg, logger)
	if err != nil {
		logger.Fatal("Ошибка подключения к базе данных", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()

	if *dryRun {
		if err := showCandidates(ctx, store, olderThanDays, logger); err != nil {
			logger.Fatal("Ошибка получения кандидатов на удаление", zap.Error(err))
		}
		return
	}

	// Для одноразовой очистки не нужны ни провайдер синтеза, ни метрики
	blobStore := blob.NewStore(cfg.Audio.Dir, cfg.Audio.URLPrefix, logger)
	audioService := audio.NewEvictionService(store, blobStore, logger)

	result, err := audioService.Evict(ctx, olderThanDays)
	if err != nil {
		logger.Fatal("Ошибка очистки аудио кеша", zap.Error(err))
	}

	logger.Info("Очистка аудио кеша завершена успешно",
		zap.Int64("deleted_entries", result.DeletedEntries),
		zap.Int64("deleted_files", result.DeletedFiles),
		zap.Int("older_than_days", olderThanDays))
}

// showCandidates выводит записи, которые будут удалены, без удаления
func showCandidates(ctx context.Context, st store.Store, olderThanDays int, logger *zap.Logger) error {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	entries, err := st.AudioCache().ListOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	var totalSize int64
	for _, entry := range entries {
		totalSize += entry.FileSize
		logger.Info("DRY RUN: будет удалена запись",
			zap.String("text_hash", entry.TextHash),
			zap.String("file_name", entry.FileName),
			zap.Int64("file_size", entry.FileSize),
			zap.Time("last_used", entry.LastUsed))
	}

	logger.Info("DRY RUN: итог",
		zap.Int("entries", len(entries)),
		zap.Int64("total_size_bytes", totalSize),
		zap.Int("older_than_days", olderThanDays))

	return nil
}
