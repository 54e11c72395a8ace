// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package genclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okazmin/vaultpipe/pkg/types"
)

// fakeAPI stands in for the token and chat endpoints.
type fakeAPI struct {
	t *testing.T

	token      string
	tokenCalls int
	chatCalls  int

	// reply produces the chat response content for a request body.
	reply func(req chatRequest) string

	// rejectToken forces 401 on chat calls bearing this token.
	rejectToken string
}

func (f *fakeAPI) tokenHandler(w http.ResponseWriter, r *http.Request) {
	f.tokenCalls++

	if got := r.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
		f.t.Errorf("token content type = %q", got)
	}
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Basic ") {
		f.t.Errorf("token auth header = %q, want Basic", r.Header.Get("Authorization"))
	}
	if r.Header.Get("RqUID") == "" {
		f.t.Error("token request missing RqUID header")
	}
	if err := r.ParseForm(); err != nil {
		f.t.Fatal(err)
	}
	if got := r.PostFormValue("scope"); got != "TEST_SCOPE" {
		f.t.Errorf("scope = %q", got)
	}

	json.NewEncoder(w).Encode(tokenResponse{AccessToken: f.token})
}

func (f *fakeAPI) chatHandler(w http.ResponseWriter, r *http.Request) {
	f.chatCalls++

	auth := r.Header.Get("Authorization")
	if f.rejectToken != "" && auth == "Bearer "+f.rejectToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if auth != "Bearer "+f.token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		f.t.Fatal(err)
	}

	content := "ok"
	if f.reply != nil {
		content = f.reply(req)
	}
	json.NewEncoder(w).Encode(chatResponse{
		Choices: []chatChoice{{Message: chatMessage{Role: "assistant", Content: content}}},
	})
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Client) {
	t.Helper()

	api := &fakeAPI{t: t, token: "tok-1"}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth", api.tokenHandler)
	mux.HandleFunc("/chat", api.chatHandler)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	client := New(types.GeneratorConfig{
		HTTPConfig:   types.HTTPConfig{Timeout: 5 * time.Second},
		OAuthURL:     ts.URL + "/oauth",
		APIURL:       ts.URL + "/chat",
		Scope:        "TEST_SCOPE",
		Model:        "test-model",
		ClientID:     "id",
		ClientSecret: "secret",
	})
	return api, client
}

func TestChatFetchesTokenOnce(t *testing.T) {
	api, client := newFakeAPI(t)
	api.reply = func(req chatRequest) string {
		if req.Model != "test-model" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}
		return "first"
	}

	ctx := context.Background()
	got, err := client.Chat(ctx, "prompt: ", "body")
	if err != nil {
		t.Fatal(err)
	}
	if got != "first" {
		t.Errorf("reply = %q", got)
	}

	if _, err := client.Chat(ctx, "prompt: ", "body"); err != nil {
		t.Fatal(err)
	}
	if api.tokenCalls != 1 {
		t.Errorf("token calls = %d, want 1 (token should be cached)", api.tokenCalls)
	}
	if api.chatCalls != 2 {
		t.Errorf("chat calls = %d, want 2", api.chatCalls)
	}
}

func TestChatPrependsPrompt(t *testing.T) {
	api, client := newFakeAPI(t)
	api.reply = func(req chatRequest) string {
		return req.Messages[0].Content
	}

	got, err := client.Chat(context.Background(), "PROMPT|", "TEXT")
	if err != nil {
		t.Fatal(err)
	}
	if got != "PROMPT|TEXT" {
		t.Errorf("content = %q, want prompt followed by text", got)
	}
}

func TestChatTruncatesLongInput(t *testing.T) {
	api, client := newFakeAPI(t)
	api.reply = func(req chatRequest) string {
		return fmt.Sprint(len([]rune(req.Messages[0].Content)))
	}

	long := strings.Repeat("д", maxInputChars+500)
	got, err := client.Chat(context.Background(), "", long)
	if err != nil {
		t.Fatal(err)
	}
	if got != fmt.Sprint(maxInputChars) {
		t.Errorf("sent %s runes, want %d", got, maxInputChars)
	}
}

func TestChatRefreshesTokenOnUnauthorized(t *testing.T) {
	api, client := newFakeAPI(t)

	// First issued token is rejected by the chat endpoint; the retry
	// after refresh carries the second token.
	api.rejectToken = "tok-1"

	// Prime the cached token, then rotate what the token endpoint hands out.
	if _, err := client.bearer(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	api.token = "tok-2"

	got, err := client.Chat(context.Background(), "p", "t")
	if err != nil {
		t.Fatal(err)
	}
	if got != "ok" {
		t.Errorf("reply = %q", got)
	}
	if api.tokenCalls != 2 {
		t.Errorf("token calls = %d, want 2 (initial + refresh)", api.tokenCalls)
	}
}

func TestChatTokenEndpointFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad credentials", http.StatusForbidden)
	}))
	defer ts.Close()

	client := New(types.GeneratorConfig{
		OAuthURL: ts.URL,
		APIURL:   ts.URL,
		Scope:    "S",
		Model:    "m",
	})

	if _, err := client.Chat(context.Background(), "p", "t"); err == nil {
		t.Fatal("Chat succeeded with failing token endpoint, want error")
	}
}

func TestChatJSON(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"bare object", `{"title": "Note", "count": 2}`},
		{"json fence", "```json\n{\"title\": \"Note\", \"count\": 2}\n```"},
		{"plain fence", "```\n{\"title\": \"Note\", \"count\": 2}\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, client := newFakeAPI(t)
			api.reply = func(chatRequest) string { return tt.reply }

			got, err := client.ChatJSON(context.Background(), "p", "t")
			if err != nil {
				t.Fatal(err)
			}
			if got["title"] != "Note" {
				t.Errorf("title = %v", got["title"])
			}
		})
	}
}

func TestChatJSONInvalidReply(t *testing.T) {
	api, client := newFakeAPI(t)
	api.reply = func(chatRequest) string { return "not json at all" }

	if _, err := client.ChatJSON(context.Background(), "p", "t"); err == nil {
		t.Fatal("ChatJSON succeeded on non-JSON reply, want error")
	}
}

func TestStripJSONFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```json\n{\"a\": 1}", `{"a": 1}`},
		{"  {\"a\": 1}  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		if got := stripJSONFence(tt.in); got != tt.want {
			t.Errorf("stripJSONFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
