package deepseek

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestChatJSONSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["model"] != "deepseek-chat" {
			t.Errorf("model = %v", req["model"])
		}
		msgs, _ := req["messages"].([]any)
		if len(msgs) != 2 {
			t.Errorf("expected system+user messages, got %d", len(msgs))
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"signal\":\"BUY\"}"}}]}`))
	}))
	defer server.Close()

	client := NewClient("sk-test", zerolog.Nop(), WithBaseURL(server.URL))
	content, err := client.ChatJSON(context.Background(), "you are a trader", "analyze this")
	if err != nil {
		t.Fatalf("ChatJSON: %v", err)
	}
	if content != `{"signal":"BUY"}` {
		t.Fatalf("content = %s", content)
	}
}

func TestChatJSONStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusUnauthorized, ErrAuth},
		{http.StatusForbidden, ErrAuth},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		client := NewClient("sk-test", zerolog.Nop(), WithBaseURL(server.URL))
		_, err := client.ChatJSON(context.Background(), "", "prompt")
		server.Close()
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: got %v, want %v", tc.status, err, tc.want)
		}
	}
}

func TestChatJSONServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient("sk-test", zerolog.Nop(), WithBaseURL(server.URL))
	_, err := client.ChatJSON(context.Background(), "", "prompt")
	if err == nil || errors.Is(err, ErrAuth) || errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected generic call error, got %v", err)
	}
}

func TestChatJSONNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewClient("sk-test", zerolog.Nop(), WithBaseURL(server.URL))
	if _, err := client.ChatJSON(context.Background(), "", "prompt"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
