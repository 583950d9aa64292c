package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"portfolio-backend/internal/apperrors"
	"portfolio-backend/internal/config"
	"portfolio-backend/pkg/models"

	"go.uber.org/zap"
)

// ElevenLabsService предоставляет синтез речи через ElevenLabs API
type ElevenLabsService struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// NewElevenLabsService создает новый клиент ElevenLabs
func NewElevenLabsService(cfg *config.ElevenLabsConfig, logger *zap.Logger) *ElevenLabsService {
	return &ElevenLabsService{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client: &http.Client{
			Timeout: cfg.RequestTimeout, // Таймаут для генерации аудио
		},
		logger: logger,
	}
}

// synthesizeRequest представляет тело запроса синтеза
type synthesizeRequest struct {
	Text          string         `json:"text"`
	ModelID       string         `json:"model_id"`
	VoiceSettings map[string]any `json:"voice_settings,omitempty"`
}

// voicesResponse представляет ответ со списком голосов
type voicesResponse struct {
	Voices []struct {
		VoiceID  string `json:"voice_id"`
		Name     string `json:"name"`
		Category string `json:"category"`
	} `json:"voices"`
}

// Synthesize преобразует текст в аудио через ElevenLabs.
// Один запрос без повторов: ошибка провайдера сразу возвращается вызывающему.
func (s *ElevenLabsService) Synthesize(ctx context.Context, text, voiceID string, settings map[string]any) ([]byte, error) {
	if s.apiKey == "" {
		return nil, apperrors.Provider("ключ API ElevenLabs не настроен", nil)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", s.baseURL, voiceID)

	body, err := json.Marshal(synthesizeRequest{
		Text:          text,
		ModelID:       s.model,
		VoiceSettings: settings,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации запроса: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.apiKey)

	s.logger.Info("отправка запроса синтеза к ElevenLabs",
		zap.String("voice_id", voiceID),
		zap.Int("text_length", len(text)))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.Provider("ошибка запроса к ElevenLabs", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, apperrors.Provider(
			fmt.Sprintf("неожиданный статус от ElevenLabs: %d, тело: %s", resp.StatusCode, respBody), nil)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Provider("ошибка чтения аудио данных", err)
	}

	if len(audioData) == 0 {
		return nil, apperrors.Provider("провайдер вернул пустой ответ", nil)
	}

	s.logger.Info("аудио успешно сгенерировано",
		zap.String("voice_id", voiceID),
		zap.Int("audio_size", len(audioData)))

	return audioData, nil
}

// Voices возвращает список доступных голосов
func (s *ElevenLabsService) Voices(ctx context.Context) ([]models.VoiceInfo, error) {
	if s.apiKey == "" {
		return nil, apperrors.Provider("ключ API ElevenLabs не настроен", nil)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/v1/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.Provider("ошибка запроса списка голосов", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Provider("ошибка чтения ответа", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Provider(
			fmt.Sprintf("неожиданный статус от ElevenLabs: %d, тело: %s", resp.StatusCode, body), nil)
	}

	var parsed voicesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperrors.Provider("ошибка парсинга списка голосов", err)
	}

	voices := make([]models.VoiceInfo, 0, len(parsed.Voices))
	for _, v := range parsed.Voices {
		voices = append(voices, models.VoiceInfo{
			VoiceID:  v.VoiceID,
			Name:     v.Name,
			Category: v.Category,
		})
	}

	s.logger.Info("список голосов получен", zap.Int("count", len(voices)))
	return voices, nil
}
