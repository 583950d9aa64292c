package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-backend/internal/audio"
	"portfolio-backend/internal/blob"
	"portfolio-backend/internal/config"
	"portfolio-backend/internal/metrics"
	"portfolio-backend/internal/migrations"
	"portfolio-backend/internal/scheduler"
	"portfolio-backend/internal/server"
	"portfolio-backend/internal/store"
	"portfolio-backend/internal/tts"

	"go.uber.org/zap"
)

func main() {
	// Инициализация логгера
	logger, err := initLogger()
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("запуск portfolio-backend")

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("ошибка загрузки конфигурации", zap.Error(err))
	}

	// Инициализация базы данных
	store, err := store.NewStore(cfg, logger)
	if err != nil {
		logger.Fatal("ошибка инициализации базы данных", zap.Error(err))
	}
	defer store.Close()

	// Применение миграций
	if err := migrations.RunMigrations(cfg, logger); err != nil {
		logger.Fatal("ошибка применения миграций", zap.Error(err))
	}

	// Инициализация TTS клиента
	logger.Info("конфигурация TTS провайдера",
		zap.String("base_url", cfg.ElevenLabs.BaseURL),
		zap.String("model", cfg.ElevenLabs.Model),
		zap.String("default_voice", cfg.ElevenLabs.DefaultVoiceID))

	synth := tts.NewElevenLabsService(&cfg.ElevenLabs, logger)

	// Инициализация файлового хранилища аудио
	blobStore := blob.NewStore(cfg.Audio.Dir, cfg.Audio.URLPrefix, logger)

	// Инициализация метрик
	metricsSystem := metrics.New(logger)
	metricsHandler := metrics.NewHandler(metricsSystem, logger)

	// Инициализация аудио сервиса
	audioService := audio.NewService(store, blobStore, synth, metricsSystem, cfg.ElevenLabs.DefaultVoiceID, logger)

	// Инициализация HTTP обработчиков
	handler := server.NewHandler(
		audioService,
		synth,
		cfg.Admin.Token,
		cfg.Audio.RetentionDays,
		cfg.Audio.MaxFileSize,
		cfg.Audio.AllowedTypes,
		logger,
	)
	router := server.NewRouter(handler, metricsHandler)

	// Инициализация планировщика задач
	taskScheduler := scheduler.NewScheduler(logger)

	// Добавляем джобу очистки аудио кеша
	evictionJob := scheduler.NewCacheEvictionJob(audioService, cfg.Audio.RetentionDays, logger)
	taskScheduler.AddJob(evictionJob)

	// Создание канала для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Обработка сигналов для graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Запуск HTTP сервера
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		logger.Info("HTTP сервер запущен", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ошибка HTTP сервера", zap.Error(err))
		}
	}()

	// Запуск планировщика задач
	go taskScheduler.Start(ctx, cfg.Audio.EvictionInterval)

	logger.Info("приложение запущено и готово к работе",
		zap.String("address", fmt.Sprintf("http://localhost:%d", cfg.App.Port)),
	)

	// Ожидание сигнала завершения
	<-sigChan
	logger.Info("получен сигнал завершения, начинаем graceful shutdown")

	// Graceful shutdown HTTP сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка при остановке HTTP сервера", zap.Error(err))
	}

	logger.Info("приложение завершено")
}

// initLogger инициализирует логгер
func initLogger() (*zap.Logger, error) {
	// В продакшене можно использовать JSON формат
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stdout", "logs/app.log"}
	config.ErrorOutputPaths = []string{"stderr", "logs/error.log"}

	// Создаем директорию для логов если её нет
	if err := os.MkdirAll("logs", 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории логов: %w", err)
	}

	return config.Build()
}
