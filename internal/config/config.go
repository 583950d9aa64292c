package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config содержит все конфигурационные параметры приложения
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	ElevenLabs ElevenLabsConfig
	Audio      AudioConfig
	Admin      AdminConfig
}

type AppConfig struct {
	Env      string
	LogLevel string
	Port     int
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MigrationPath string
}

// ElevenLabsConfig содержит настройки провайдера синтеза речи
type ElevenLabsConfig struct {
	APIKey         string
	BaseURL        string
	DefaultVoiceID string
	Model          string
	RequestTimeout time.Duration
}

// AudioConfig содержит настройки хранения аудио и кеша
type AudioConfig struct {
	Dir              string
	URLPrefix        string
	MaxFileSize      int64
	AllowedTypes     []string
	RetentionDays    int
	EvictionInterval time.Duration
}

// AdminConfig содержит настройки доступа к привилегированным эндпоинтам
type AdminConfig struct {
	Token string
}

// Load загружает конфигурацию из переменных окружения и .env
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// App
	cfg.App.Env = getEnvDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvDefault("LOG_LEVEL", "info")
	cfg.App.Port = getEnvIntDefault("APP_PORT", 8080)

	// Database
	cfg.Database.Host = getEnvDefault("DB_HOST", "localhost")
	cfg.Database.Port = getEnvIntDefault("DB_PORT", 5432)
	cfg.Database.User = os.Getenv("DB_USER")
	cfg.Database.Password = os.Getenv("DB_PASSWORD")
	cfg.Database.Name = os.Getenv("DB_NAME")
	cfg.Database.SSLMode = getEnvDefault("DB_SSL_MODE", "disable")
	cfg.Database.MigrationPath = getEnvDefault("MIGRATION_PATH", "scripts/migrations")

	// ElevenLabs
	cfg.ElevenLabs.APIKey = os.Getenv("ELEVENLABS_API_KEY")
	cfg.ElevenLabs.BaseURL = getEnvDefault("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io")
	cfg.ElevenLabs.DefaultVoiceID = getEnvDefault("DEFAULT_VOICE_ID", "21m00Tcm4TlvDq8ikWAM")
	cfg.ElevenLabs.Model = getEnvDefault("ELEVENLABS_MODEL", "eleven_multilingual_v2")
	cfg.ElevenLabs.RequestTimeout = time.Duration(getEnvIntDefault("ELEVENLABS_TIMEOUT_SECONDS", 30)) * time.Second

	// Audio
	cfg.Audio.Dir = getEnvDefault("AUDIO_DIR", "storage/audio")
	cfg.Audio.URLPrefix = getEnvDefault("AUDIO_URL_PREFIX", "/storage/audio")
	cfg.Audio.MaxFileSize = int64(getEnvIntDefault("MAX_FILE_SIZE", 10*1024*1024))
	cfg.Audio.AllowedTypes = getEnvListDefault("ALLOWED_AUDIO_TYPES",
		[]string{"audio/mpeg", "audio/mp3", "audio/wav", "audio/m4a", "audio/ogg"})
	cfg.Audio.RetentionDays = getEnvIntDefault("CACHE_RETENTION_DAYS", 30)
	cfg.Audio.EvictionInterval = time.Duration(getEnvIntDefault("CACHE_EVICTION_HOURS", 24)) * time.Hour

	// Admin
	cfg.Admin.Token = os.Getenv("ADMIN_TOKEN")

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}

	return cfg, nil
}

func getEnvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvListDefault(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// validateConfig проверяет корректность конфигурации
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("DB_HOST не установлен")
	}
	if config.Database.User == "" {
		return fmt.Errorf("DB_USER не установлен")
	}
	if config.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD не установлен")
	}
	if config.Database.Name == "" {
		return fmt.Errorf("DB_NAME не установлен")
	}
	if config.Audio.Dir == "" {
		return fmt.Errorf("AUDIO_DIR не установлен")
	}
	if config.Audio.RetentionDays <= 0 {
		return fmt.Errorf("CACHE_RETENTION_DAYS должен быть положительным")
	}
	// Ключ ElevenLabs не обязателен на старте: без него первый запрос
	// к синтезу вернет ошибку провайдера

	return nil
}

// GetDSN возвращает строку подключения к базе данных
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// IsDevelopment проверяет, запущено ли приложение в режиме разработки
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction проверяет, запущено ли приложение в продакшн режиме
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// GetLogLevel возвращает уровень логирования в формате zap
func (c *AppConfig) GetLogLevel() zap.AtomicLevel {
	switch c.LogLevel {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
