package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/repository"
)

// DefaultScoreThreshold stops scoring once an image rates at least this.
const DefaultScoreThreshold = 90.0

// ImageSelector picks the image that best matches some keywords.
type ImageSelector interface {
	Select(ctx context.Context, imageURLs []string, keywords string) (*entity.ScoredImage, error)
}

type imageSelectUseCase struct {
	fetcher   repository.ImageFetcher
	scorer    repository.ImageScorer
	threshold float64
	logger    *zap.Logger
}

func NewImageSelectUseCase(fetcher repository.ImageFetcher, scorer repository.ImageScorer, threshold float64, logger *zap.Logger) ImageSelector {
	if threshold <= 0 {
		threshold = DefaultScoreThreshold
	}
	return &imageSelectUseCase{fetcher: fetcher, scorer: scorer, threshold: threshold, logger: logger}
}

// Select downloads the candidates and scores them in order. With a single
// usable image no scoring happens. Otherwise the highest score wins, ties
// going to the earlier image, and scoring stops at the first image reaching
// the threshold. A scoring error counts as zero.
func (uc *imageSelectUseCase) Select(ctx context.Context, imageURLs []string, keywords string) (*entity.ScoredImage, error) {
	images := uc.download(ctx, imageURLs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch len(images) {
	case 0:
		return nil, repository.ErrNoImages
	case 1:
		uc.logger.Info("only one image found, skipping scoring", zap.String("url", images[0].URL))
		return &entity.ScoredImage{
			Image: images[0],
			Score: entity.ImageScore{Score: 100, Reasoning: "Only one image available, using it by default"},
		}, nil
	}

	var best *entity.ScoredImage
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score, err := uc.scorer.Score(ctx, img, keywords)
		if err != nil {
			uc.logger.Error("image scoring failed", zap.String("url", img.URL), zap.Error(err))
			score = entity.ImageScore{Reasoning: score.Reasoning}
		}
		uc.logger.Info("image scored",
			zap.Int("index", i+1),
			zap.Int("images", len(images)),
			zap.String("url", img.URL),
			zap.Float64("score", score.Score),
			zap.String("reasoning", score.Reasoning),
		)
		if best == nil || score.Score > best.Score.Score {
			best = &entity.ScoredImage{Image: img, Score: score}
		}
		if score.Score >= uc.threshold {
			uc.logger.Info("score threshold reached, stopping", zap.Float64("threshold", uc.threshold))
			break
		}
	}
	return best, nil
}

func (uc *imageSelectUseCase) download(ctx context.Context, urls []string) []entity.DownloadedImage {
	images := make([]entity.DownloadedImage, 0, len(urls))
	for _, u := range urls {
		if ctx.Err() != nil {
			break
		}
		img, err := uc.fetcher.Fetch(ctx, u)
		if err != nil {
			uc.logger.Debug("skipping image", zap.String("url", u), zap.Error(err))
			continue
		}
		images = append(images, img)
	}
	uc.logger.Info("downloaded candidate images", zap.Int("candidates", len(urls)), zap.Int("usable", len(images)))
	return images
}
