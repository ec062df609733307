package obs

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestLogRequestStampsServiceName(t *testing.T) {
	logger := Logger()
	orig := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(orig)

	LogRequest(map[string]any{"msg": "request_complete"})

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log is not valid JSON: %v", err)
	}
	if entry["service"] != serviceName {
		t.Fatalf("expected service tag %q, got %v", serviceName, entry["service"])
	}
}
