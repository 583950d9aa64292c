package tts

import (
	"context"

	"portfolio-backend/pkg/models"
)

// Synthesizer определяет интерфейс провайдера синтеза речи
type Synthesizer interface {
	// Synthesize преобразует текст в аудио данные
	Synthesize(ctx context.Context, text, voiceID string, settings map[string]any) ([]byte, error)
	// Voices возвращает список доступных голосов провайдера
	Voices(ctx context.Context) ([]models.VoiceInfo, error)
}
