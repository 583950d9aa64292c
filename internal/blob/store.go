package blob

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"portfolio-backend/internal/apperrors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store хранит аудио файлы в локальной директории.
// Файлы адресуются именем без пути, публичный URL строится из префикса.
type Store struct {
	dir       string
	urlPrefix string
	logger    *zap.Logger
}

// NewStore создает новое файловое хранилище аудио
func NewStore(dir, urlPrefix string, logger *zap.Logger) *Store {
	return &Store{
		dir:       dir,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
		logger:    logger,
	}
}

// Save записывает данные в файл и возвращает его публичный URL
func (s *Store) Save(data []byte, name string) (string, error) {
	name = filepath.Base(name)

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", apperrors.Storage("ошибка создания директории аудио", err)
	}

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", apperrors.Storage("ошибка записи аудио файла", err)
	}

	s.logger.Info("аудио файл сохранен",
		zap.String("file", name),
		zap.Int("size", len(data)))

	return s.URL(name), nil
}

// Delete удаляет файл из хранилища
func (s *Store) Delete(name string) error {
	path := filepath.Join(s.dir, filepath.Base(name))

	err := os.Remove(path)
	if os.IsNotExist(err) {
		return apperrors.NotFound("аудио файл не найден")
	}
	if err != nil {
		return apperrors.Storage("ошибка удаления аудио файла", err)
	}

	s.logger.Info("аудио файл удален", zap.String("file", name))
	return nil
}

// Exists проверяет наличие файла в хранилище
func (s *Store) Exists(name string) bool {
	path := filepath.Join(s.dir, filepath.Base(name))
	_, err := os.Stat(path)
	return err == nil
}

// Path возвращает путь к файлу на диске
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// URL возвращает публичный URL файла
func (s *Store) URL(name string) string {
	return s.urlPrefix + "/" + filepath.Base(name)
}

// CacheFileName строит имя файла для сгенерированного аудио.
// Хеш в имени исключает коллизии между разными ключами кеша.
func CacheFileName(textHash string) string {
	return fmt.Sprintf("tts_%s.mp3", textHash)
}

// UploadFileName строит уникальное имя файла для загруженного аудио
func UploadFileName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".mp3"
	}
	return fmt.Sprintf("custom_%s%s", uuid.New().String(), ext)
}
