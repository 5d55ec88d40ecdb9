package ai

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/marksheetIA/marksheet-ocr-service/internal/models"
)

// chatServer answers chat completion requests with content and records the last request body
func chatServer(t *testing.T, path, content string, lastBody *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if lastBody != nil {
			*lastBody = string(body)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func page() *image.Gray {
	return image.NewGray(image.Rect(0, 0, 8, 8))
}

func TestVisionOracleOpenAI(t *testing.T) {
	t.Parallel()

	fence := strings.Repeat("`", 3)
	var body string
	srv := chatServer(t, "/chat/completions",
		fence+"text\n0801CS021 John Smith 25\n\n0801CS022 Jane Doe Absent\n"+fence, &body)

	oracle := NewVisionOracle(NewOpenAIProvider("test-key", srv.URL, "gpt-4o"), nil)
	if oracle.Name() != "openai" {
		t.Errorf("Name = %q", oracle.Name())
	}

	frags, err := oracle.ReadText(context.Background(), page())
	if err != nil {
		t.Fatalf("ReadText failed: %v", err)
	}
	if len(frags) != 2 {
		t.Fatalf("got %d fragments %+v, want 2", len(frags), frags)
	}
	if frags[0].Text != "0801CS021 John Smith 25" || frags[1].Text != "0801CS022 Jane Doe Absent" {
		t.Errorf("fragments = %+v", frags)
	}
	if !strings.Contains(body, "data:image/png;base64,") {
		t.Error("request does not carry the page as a PNG data URL")
	}
	if !strings.Contains(body, `"model":"gpt-4o"`) {
		t.Errorf("request model missing: %s", body)
	}
}

func TestVisionOracleOllamaUsesV1Path(t *testing.T) {
	t.Parallel()

	srv := chatServer(t, "/v1/chat/completions", "0801CS023 Amit Roy D", nil)
	oracle := NewVisionOracle(NewOllamaProvider(srv.URL+"/", "llava"), nil)

	frags, err := oracle.ReadText(context.Background(), page())
	if err != nil {
		t.Fatalf("ReadText failed: %v", err)
	}
	if len(frags) != 1 || frags[0].Text != "0801CS023 Amit Roy D" {
		t.Errorf("fragments = %+v", frags)
	}
}

func TestVisionOracleBlankPage(t *testing.T) {
	t.Parallel()

	srv := chatServer(t, "/chat/completions", "   ", nil)
	oracle := NewVisionOracle(NewOpenAIProvider("k", srv.URL, ""), nil)

	frags, err := oracle.ReadText(context.Background(), page())
	if err != nil {
		t.Fatalf("ReadText failed: %v", err)
	}
	if len(frags) != 0 {
		t.Errorf("blank page produced %+v", frags)
	}
}

func TestVisionOracleRequestError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	oracle := NewVisionOracle(NewOpenAIProvider("k", srv.URL, ""), nil)
	if _, err := oracle.ReadText(context.Background(), page()); err == nil {
		t.Error("expected error for rejected request")
	}
}

type stubProvider struct {
	answer string
	err    error
}

func (s stubProvider) Name() string { return "stub" }

func (s stubProvider) Transcribe(context.Context, []byte, string) (string, error) {
	return s.answer, s.err
}

func TestVisionOracleProviderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("quota exceeded")
	_, err := NewVisionOracle(stubProvider{err: boom}, nil).ReadText(context.Background(), page())
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
}

func TestCleanTranscription(t *testing.T) {
	t.Parallel()

	fence := strings.Repeat("`", 3)
	tests := []struct {
		in, want string
	}{
		{"0801CS1 A 30", "0801CS1 A 30"},
		{fence + "\n0801CS1 A 30\n" + fence, "0801CS1 A 30"},
		{"  " + fence + "plaintext\nx\ny\n" + fence + "  ", "x\ny"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanTranscription(tt.in); got != tt.want {
			t.Errorf("cleanTranscription(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	cfg := models.DefaultConfig().AI
	if _, err := NewProvider("openai", cfg); err == nil {
		t.Error("openai without key should fail")
	}
	if _, err := NewProvider("gemini", cfg); err == nil {
		t.Error("gemini without key should fail")
	}
	if _, err := NewProvider("tesseract", cfg); err == nil {
		t.Error("tesseract is not an AI provider")
	}

	p, err := NewProvider("ollama", cfg)
	if err != nil || p.Name() != "ollama" {
		t.Errorf("NewProvider(ollama) = %v, %v", p, err)
	}

	cfg.Gemini.APIKey = "k"
	p, err = NewProvider("gemini", cfg)
	if err != nil || p.Name() != "gemini" {
		t.Errorf("NewProvider(gemini) = %v, %v", p, err)
	}
}
