package metrics

import (
	"testing"

	"go.uber.org/zap"
)

func TestMetrics(t *testing.T) {
	logger := zap.NewNop()
	m := New(logger)

	// Test TTS request recording
	m.RecordTTSRequest("hit", 0)
	m.RecordTTSRequest("miss", 1.5)
	m.RecordTTSRequest("error", 0)

	// Test eviction recording
	m.RecordEviction(5, 4)

	// Test upload recording
	m.RecordUpload(1024)
}
