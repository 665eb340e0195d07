package response

import "github.com/user/dashboard-scraper/internal/entity"

// Summary counts item outcomes of a webhook run.
type Summary struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type WebhookResponse struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	RunID      string              `json:"run_id"`
	Topic      string              `json:"topic"`
	ContentDir string              `json:"content_dir,omitempty"`
	Summary    Summary             `json:"summary"`
	Results    []entity.ItemResult `json:"results"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// FromSummary builds the webhook reply for a finished run.
func FromSummary(s *entity.PublishSummary) WebhookResponse {
	results := s.Items
	if results == nil {
		results = []entity.ItemResult{}
	}
	return WebhookResponse{
		Success:    true,
		Message:    "Generated and processed items",
		RunID:      s.RunID,
		Topic:      s.Topic,
		ContentDir: s.ContentDir,
		Summary: Summary{
			Total:   s.Total,
			Created: s.Created,
			Skipped: s.Skipped,
			Failed:  s.Failed,
		},
		Results: results,
	}
}
