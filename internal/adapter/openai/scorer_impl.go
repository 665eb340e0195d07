package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/repository"
)

const scorePrompt = `Rate how well this image matches these keywords: %q

Respond with JSON only:
{
  "score": <0-100>,
  "reasoning": "<brief explanation>"
}`

// Scorer rates images with a vision model. Failures score 0 with the error
// as reasoning, so a broken image never stops a selection.
type Scorer struct {
	client *Client
}

var _ repository.ImageScorer = (*Scorer)(nil)

func NewScorer(client *Client) *Scorer {
	return &Scorer{client: client}
}

func (s *Scorer) Score(ctx context.Context, img entity.DownloadedImage, keywords string) (entity.ImageScore, error) {
	contentType := img.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	dataURI := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)

	reply, err := s.client.complete(ctx, []chatMessage{{
		Role: "user",
		Content: []contentPart{
			{Type: "text", Text: fmt.Sprintf(scorePrompt, keywords)},
			{Type: "image_url", ImageURL: &imageURL{URL: dataURI, Detail: "low"}},
		},
	}}, 300)
	if err != nil {
		s.client.logger.Error("image scoring request failed", zap.String("url", img.URL), zap.Error(err))
		return entity.ImageScore{Reasoning: "API error: " + err.Error()}, err
	}

	score := entity.ImageScore{Reasoning: "No reasoning provided"}
	if err := json.Unmarshal([]byte(stripFences(reply)), &score); err != nil {
		s.client.logger.Error("image score is not JSON", zap.String("url", img.URL), zap.Error(err))
		return entity.ImageScore{Reasoning: "JSON error: " + err.Error()}, nil
	}
	return score, nil
}
