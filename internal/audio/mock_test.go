package audio

import (
	"context"
	"sync"
	"time"

	"portfolio-backend/internal/apperrors"
	"portfolio-backend/internal/store"
	"portfolio-backend/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// fakeStore — in-memory реализация store.Store для тестов сервиса
type fakeStore struct {
	audioCache  *fakeAudioCacheRepo
	customAudio *fakeCustomAudioRepo
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		audioCache:  &fakeAudioCacheRepo{entries: make(map[string]*models.AudioCache)},
		customAudio: &fakeCustomAudioRepo{audios: make(map[int64]*models.CustomAudio)},
	}
}

func (s *fakeStore) AudioCache() store.AudioCacheRepository   { return s.audioCache }
func (s *fakeStore) CustomAudio() store.CustomAudioRepository { return s.customAudio }
func (s *fakeStore) DB() *pgxpool.Pool                        { return nil }
func (s *fakeStore) Close() error                             { return nil }

type fakeAudioCacheRepo struct {
	mu      sync.Mutex
	entries map[string]*models.AudioCache
	nextID  int64
}

func (r *fakeAudioCacheRepo) Create(ctx context.Context, entry *models.AudioCache) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if existing, ok := r.entries[entry.TextHash]; ok {
		// Как ON CONFLICT DO UPDATE: выигрывает первая запись
		existing.LastUsed = now
		entry.ID = existing.ID
		return nil
	}

	r.nextID++
	entry.ID = r.nextID
	entry.CreatedAt = now
	entry.LastUsed = now
	copied := *entry
	r.entries[entry.TextHash] = &copied
	return nil
}

func (r *fakeAudioCacheRepo) GetByHash(ctx context.Context, textHash string) (*models.AudioCache, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[textHash]
	if !ok {
		return nil, apperrors.NotFound("запись кеша не найдена")
	}
	copied := *entry
	return &copied, nil
}

func (r *fakeAudioCacheRepo) TouchLastUsed(ctx context.Context, textHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[textHash]
	if !ok {
		return apperrors.NotFound("запись кеша не найдена")
	}
	entry.LastUsed = time.Now()
	return nil
}

func (r *fakeAudioCacheRepo) DeleteByHash(ctx context.Context, textHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[textHash]; !ok {
		return apperrors.NotFound("запись кеша не найдена")
	}
	delete(r.entries, textHash)
	return nil
}

func (r *fakeAudioCacheRepo) ListOlderThan(ctx context.Context, cutoff time.Time) ([]models.AudioCache, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []models.AudioCache
	for _, entry := range r.entries {
		if entry.LastUsed.Before(cutoff) {
			result = append(result, *entry)
		}
	}
	return result, nil
}

func (r *fakeAudioCacheRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for hash, entry := range r.entries {
		if entry.LastUsed.Before(cutoff) {
			delete(r.entries, hash)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeAudioCacheRepo) Stats(ctx context.Context) (*models.CacheStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := &models.CacheStats{}
	voices := make(map[string]bool)
	for _, entry := range r.entries {
		stats.TotalCached++
		stats.TotalSizeBytes += entry.FileSize
		voices[entry.VoiceID] = true
	}
	stats.UniqueVoices = int64(len(voices))
	return stats, nil
}

// setLastUsed подменяет время последнего использования для тестов очистки
func (r *fakeAudioCacheRepo) setLastUsed(textHash string, t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[textHash]; ok {
		entry.LastUsed = t
	}
}

type fakeCustomAudioRepo struct {
	mu     sync.Mutex
	audios map[int64]*models.CustomAudio
	nextID int64
}

func (r *fakeCustomAudioRepo) Create(ctx context.Context, audio *models.CustomAudio) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	audio.ID = r.nextID
	audio.UploadedAt = time.Now()
	copied := *audio
	r.audios[audio.ID] = &copied
	return nil
}

func (r *fakeCustomAudioRepo) GetByID(ctx context.Context, id int64) (*models.CustomAudio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	audio, ok := r.audios[id]
	if !ok {
		return nil, apperrors.NotFound("загруженное аудио не найдено")
	}
	copied := *audio
	return &copied, nil
}

func (r *fakeCustomAudioRepo) List(ctx context.Context, noteID *int64, activeOnly bool) ([]models.CustomAudio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []models.CustomAudio
	for _, audio := range r.audios {
		if noteID != nil && (audio.NoteID == nil || *audio.NoteID != *noteID) {
			continue
		}
		if activeOnly && !audio.IsActive {
			continue
		}
		result = append(result, *audio)
	}
	return result, nil
}

func (r *fakeCustomAudioRepo) Search(ctx context.Context, query string, searchType string) ([]models.CustomAudio, error) {
	return r.List(ctx, nil, true)
}

func (r *fakeCustomAudioRepo) Update(ctx context.Context, audio *models.CustomAudio) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.audios[audio.ID]; !ok {
		return apperrors.NotFound("загруженное аудио не найдено")
	}
	copied := *audio
	r.audios[audio.ID] = &copied
	return nil
}

func (r *fakeCustomAudioRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.audios[id]; !ok {
		return apperrors.NotFound("загруженное аудио не найдено")
	}
	delete(r.audios, id)
	return nil
}

// fakeSynthesizer считает вызовы и возвращает заданные данные
type fakeSynthesizer struct {
	mu      sync.Mutex
	calls   int
	result  []byte
	err     error
	blockCh chan struct{} // если задан, Synthesize ждет закрытия канала
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text, voiceID string, settings map[string]any) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	block := f.blockCh
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeSynthesizer) Voices(ctx context.Context) ([]models.VoiceInfo, error) {
	return []models.VoiceInfo{{VoiceID: "v1", Name: "Test"}}, nil
}

func (f *fakeSynthesizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeMetrics копит значения для проверок
type fakeMetrics struct {
	mu        sync.Mutex
	hits      int
	misses    int
	errors    int
	evictions int64
	uploads   int
}

func (m *fakeMetrics) RecordTTSRequest(status string, providerSeconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch status {
	case "hit":
		m.hits++
	case "miss":
		m.misses++
	case "error":
		m.errors++
	}
}

func (m *fakeMetrics) RecordEviction(entries, files int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictions += entries
}

func (m *fakeMetrics) RecordUpload(sizeBytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads++
}
