package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/repository"
)

func chatServer(t *testing.T, reply string, capture *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": reply}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(baseURL string) *Client {
	return New(Config{APIKey: "test-key", BaseURL: baseURL, Model: "test-model"}, zap.NewNop())
}

func TestExtractItems(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  int
	}{
		{"object with items", `{"items":[{"title":"a"},{"title":"b"}]}`, 2},
		{"bare array", `[{"title":"a"}]`, 1},
		{"fenced block", "Here you go:\n```json\n{\"items\":[{\"title\":\"a\"}]}\n```\nThanks", 1},
		{"prose around object", `Sure! {"items":[{"title":"a"},{"title":"b"},{"title":"c"}]} Hope it helps.`, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := ExtractItems(tt.reply)
			require.NoError(t, err)
			assert.Len(t, items, tt.want)
		})
	}

	_, err := ExtractItems("no json here")
	assert.ErrorIs(t, err, ErrNoPayload)

	_, err = ExtractItems(`{"dashboards":[]}`)
	assert.ErrorIs(t, err, ErrNoPayload)
}

func TestGenerateItems(t *testing.T) {
	var req chatRequest
	srv := chatServer(t, "```json\n{\"items\":[{\"title\":\"Marketing Funnel Überblick\",\"link\":\"https://x/1\",\"tags\":null}]}\n```", &req)
	gen := NewGenerator(testClient(srv.URL))

	items, err := gen.GenerateItems(context.Background(), "marketing", 3, []entity.CatalogEntry{{Title: "Funnel", SourceURL: "https://x/1"}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "marketing-funnel-uberblick", items[0].Slug)
	assert.Equal(t, []string{}, items[0].Tags)

	assert.Equal(t, "test-model", req.Model)
	require.Len(t, req.Messages, 1)
	prompt, ok := req.Messages[0].Content.(string)
	require.True(t, ok)
	assert.Contains(t, prompt, `"source_url":"https://x/1"`)
	assert.Contains(t, prompt, "return 3 dashboards")
}

func TestScoreParsesFencedReply(t *testing.T) {
	srv := chatServer(t, "```json\n{\"score\": 87, \"reasoning\": \"funnel chart\"}\n```", nil)
	scorer := NewScorer(testClient(srv.URL))

	score, err := scorer.Score(context.Background(), entity.DownloadedImage{URL: "https://x/a.png", ContentType: "image/png", Data: []byte{1, 2, 3}}, "funnel")
	require.NoError(t, err)
	assert.Equal(t, 87.0, score.Score)
	assert.Equal(t, "funnel chart", score.Reasoning)
}

func TestScoreBadJSONIsZero(t *testing.T) {
	srv := chatServer(t, "I think it is an 8/10", nil)
	score, err := NewScorer(testClient(srv.URL)).Score(context.Background(), entity.DownloadedImage{Data: []byte{1}}, "x")
	require.NoError(t, err)
	assert.Zero(t, score.Score)
	assert.Contains(t, score.Reasoning, "JSON error")
}

func TestCompleteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	score, err := NewScorer(testClient(srv.URL)).Score(context.Background(), entity.DownloadedImage{Data: []byte{1}}, "x")
	assert.ErrorIs(t, err, repository.ErrCollaborator)
	assert.Zero(t, score.Score)
}
