package store

import (
	"context"
	"fmt"
	"time"

	"portfolio-backend/internal/config"
	"portfolio-backend/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Store представляет интерфейс для работы с базой данных
type Store interface {
	AudioCache() AudioCacheRepository
	CustomAudio() CustomAudioRepository
	DB() *pgxpool.Pool
	Close() error
}

// store реализует интерфейс Store
type store struct {
	db          *pgxpool.Pool
	logger      *zap.Logger
	audioCache  AudioCacheRepository
	customAudio CustomAudioRepository
}

// AudioCacheRepository интерфейс для работы с кешем аудио
type AudioCacheRepository interface {
	Create(ctx context.Context, entry *models.AudioCache) error
	GetByHash(ctx context.Context, textHash string) (*models.AudioCache, error)
	TouchLastUsed(ctx context.Context, textHash string) error
	DeleteByHash(ctx context.Context, textHash string) error
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]models.AudioCache, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	Stats(ctx context.Context) (*models.CacheStats, error)
}

// CustomAudioRepository интерфейс для работы с загруженными аудио
type CustomAudioRepository interface {
	Create(ctx context.Context, audio *models.CustomAudio) error
	GetByID(ctx context.Context, id int64) (*models.CustomAudio, error)
	List(ctx context.Context, noteID *int64, activeOnly bool) ([]models.CustomAudio, error)
	Search(ctx context.Context, query string, searchType string) ([]models.CustomAudio, error)
	Update(ctx context.Context, audio *models.CustomAudio) error
	Delete(ctx context.Context, id int64) error
}

// NewStore создает новое подключение к базе данных
func NewStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Создание пула подключений
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	// Настройка пула
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	// Создание пула
	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	// Проверка подключения
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ошибка проверки подключения к базе данных: %w", err)
	}

	logger.Info("успешное подключение к базе данных PostgreSQL")

	s := &store{
		db:     db,
		logger: logger,
	}

	// Инициализация репозиториев
	s.audioCache = NewAudioCacheRepository(db, logger)
	s.customAudio = NewCustomAudioRepository(db, logger)

	return s, nil
}

// AudioCache возвращает репозиторий кеша аудио
func (s *store) AudioCache() AudioCacheRepository {
	return s.audioCache
}

// CustomAudio возвращает репозиторий загруженных аудио
func (s *store) CustomAudio() CustomAudioRepository {
	return s.customAudio
}

// DB возвращает подключение к базе данных
func (s *store) DB() *pgxpool.Pool {
	return s.db
}

// Close закрывает подключение к базе данных
func (s *store) Close() error {
	s.logger.Info("закрытие подключения к базе данных")
	s.db.Close()
	return nil
}
