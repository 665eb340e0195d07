package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/delivery/http/handler"
	"github.com/user/dashboard-scraper/internal/delivery/http/response"
	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/usecase"
)

type fakeProcessor struct {
	got usecase.WebhookRequest
	err error
}

func (p *fakeProcessor) Process(_ context.Context, req usecase.WebhookRequest) (*entity.PublishSummary, error) {
	p.got = req
	if p.err != nil {
		return nil, p.err
	}
	s := &entity.PublishSummary{RunID: "run-1", Topic: req.Topic}
	s.Add(entity.ItemResult{Slug: "a", Status: entity.ItemCreated, ItemID: "item-1"})
	s.Add(entity.ItemResult{Slug: "b", Status: entity.ItemSkipped})
	return s, nil
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	r := New(handler.NewHandler(nil, zap.NewNop()), zap.NewNop())
	rec := serve(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	r := New(handler.NewHandler(nil, zap.NewNop()), zap.NewNop())
	serve(t, r, http.MethodGet, "/health", "")
	rec := serve(t, r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",path="/health",status="200"}`)
}

func TestWebhookValidation(t *testing.T) {
	proc := &fakeProcessor{}
	r := New(handler.NewHandler(proc, zap.NewNop()), zap.NewNop())

	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `nope`, "No JSON data provided"},
		{"no collection", `{"site_id":"s","fieldData":{"slug":"x"}}`, "collection_id is required"},
		{"no site", `{"collection_id":"c","fieldData":{"slug":"x"}}`, "site_id is required"},
		{"no topic", `{"collection_id":"c","site_id":"s","fieldData":{"name":"x"}}`, "slug or category in fieldData is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, r, http.MethodPost, "/webhook", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp response.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Error)
		})
	}
	assert.Empty(t, proc.got.Topic)
}

func TestWebhookProcesses(t *testing.T) {
	proc := &fakeProcessor{}
	r := New(handler.NewHandler(proc, zap.NewNop()), zap.NewNop())

	rec := serve(t, r, http.MethodPost, "/webhook",
		`{"collection_id":"c","site_id":"s","fieldData":{"category":"Marketing"},"count":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, usecase.WebhookRequest{CollectionID: "c", SiteID: "s", Topic: "Marketing", Count: 3}, proc.got)

	var resp response.WebhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Generated and processed 2 items", resp.Message)
	assert.Equal(t, response.Summary{Total: 2, Created: 1, Skipped: 1}, resp.Summary)
	assert.Len(t, resp.Results, 2)
}

func TestWebhookErrors(t *testing.T) {
	r := New(handler.NewHandler(&fakeProcessor{err: errors.New("generate items: quota")}, zap.NewNop()), zap.NewNop())
	rec := serve(t, r, http.MethodPost, "/webhook", `{"collection_id":"c","site_id":"s","topic":"t"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "quota")

	unconfigured := New(handler.NewHandler(nil, zap.NewNop()), zap.NewNop())
	rec = serve(t, unconfigured, http.MethodPost, "/webhook", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
