package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/user/mindloom/pkg/llm"
)

func TestComplete(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"role": "assistant", "content": "a reply"}},
			},
		})
	}))
	defer server.Close()

	client := New(&llm.Config{
		BaseURL:           server.URL,
		Model:             "test-model",
		MaxTokens:         256,
		Temperature:       0.7,
		TopK:              40,
		RepetitionPenalty: 1.1,
	})

	resp, err := client.Complete(context.Background(), []llm.Message{
		{Role: "user", Content: "hello", Images: []string{"base64data"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "a reply" {
		t.Errorf("content = %q", resp.Content)
	}

	if gotBody["stream"] != false {
		t.Error("stream must be false")
	}
	if gotBody["top_k"] != float64(40) {
		t.Errorf("top_k = %v", gotBody["top_k"])
	}
	if gotBody["repetition_penalty"] != 1.1 {
		t.Errorf("repetition_penalty = %v", gotBody["repetition_penalty"])
	}
	msgs := gotBody["messages"].([]any)
	first := msgs[0].(map[string]any)
	if imgs := first["images"].([]any); len(imgs) != 1 {
		t.Errorf("images = %v", imgs)
	}
}

func TestCompleteErrorPaths(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		payload string
	}{
		{"http error", http.StatusInternalServerError, `oops`},
		{"error field", http.StatusOK, `{"error":{"message":"overloaded"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"malformed json", http.StatusOK, `{`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.payload))
			}))
			defer server.Close()

			client := New(&llm.Config{BaseURL: server.URL})
			if _, err := client.Complete(context.Background(), []llm.Message{{Role: "user", Content: "x"}}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
