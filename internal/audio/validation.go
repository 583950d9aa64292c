package audio

import (
	"bytes"
	"fmt"

	"portfolio-backend/internal/apperrors"
)

// ValidateUpload проверяет загружаемый аудио файл до любых побочных
// эффектов: размер, тип содержимого и сигнатуру формата.
func ValidateUpload(content []byte, contentType string, maxSize int64, allowedTypes []string) error {
	if int64(len(content)) > maxSize {
		return apperrors.Validation(
			fmt.Sprintf("файл слишком большой: %d байт, максимум %d", len(content), maxSize))
	}

	if len(content) == 0 {
		return apperrors.Validation("файл пустой")
	}

	allowed := false
	for _, t := range allowedTypes {
		if t == contentType {
			allowed = true
			break
		}
	}
	if !allowed {
		return apperrors.Validation(fmt.Sprintf("недопустимый тип файла: %s", contentType))
	}

	if !hasAudioSignature(content, contentType) {
		return apperrors.Validation("содержимое файла не соответствует заявленному типу")
	}

	return nil
}

// hasAudioSignature проверяет сигнатуру аудио формата в начале файла
func hasAudioSignature(content []byte, contentType string) bool {
	switch contentType {
	case "audio/mp3", "audio/mpeg":
		// MP3 начинается с ID3 тега или sync фрейма. Sync — это 11
		// установленных бит: 0xFF и три старших бита следующего байта
		// (покрывает MPEG-1/2/2.5 с CRC и без)
		if bytes.HasPrefix(content, []byte("ID3")) {
			return true
		}
		return len(content) >= 2 && content[0] == 0xff && content[1]&0xe0 == 0xe0
	case "audio/wav":
		// WAV начинается с RIFF заголовка
		return bytes.HasPrefix(content, []byte("RIFF")) && bytes.Contains(content[:min(len(content), 20)], []byte("WAVE"))
	case "audio/ogg":
		return bytes.HasPrefix(content, []byte("OggS"))
	case "audio/m4a":
		return bytes.Contains(content[:min(len(content), 20)], []byte("ftyp"))
	}

	return true
}
