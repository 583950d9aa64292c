package audio

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DefaultVoiceSettings возвращает настройки голоса по умолчанию
func DefaultVoiceSettings() map[string]any {
	return map[string]any{
		"stability":         0.75,
		"similarity_boost":  0.75,
		"style":             0.0,
		"use_speaker_boost": true,
	}
}

// MergeVoiceSettings накладывает переданные настройки поверх настроек
// по умолчанию. Благодаря этому явно указанное значение по умолчанию
// и пропущенное поле дают одинаковый ключ кеша.
func MergeVoiceSettings(settings map[string]any) map[string]any {
	merged := DefaultVoiceSettings()
	for k, v := range settings {
		merged[k] = v
	}
	return merged
}

// Fingerprint вычисляет детерминированный ключ кеша из текста, голоса и
// настроек. Настройки сериализуются в канонический JSON (ключи map
// сортируются при маршалинге), поэтому порядок полей не влияет на ключ.
func Fingerprint(text, voiceID string, settings map[string]any) (string, error) {
	canonical, err := json.Marshal(settings)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации настроек голоса: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(text))
	h.Write([]byte{0})
	h.Write([]byte(voiceID))
	h.Write([]byte{0})
	h.Write(canonical)

	return hex.EncodeToString(h.Sum(nil)), nil
}
