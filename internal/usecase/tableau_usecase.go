package usecase

import (
	"context"
	"errors"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/extractor"
	"github.com/user/dashboard-scraper/internal/pagination"
	"github.com/user/dashboard-scraper/internal/repository"
)

const (
	defaultTableauPages = 5
	tableauCardWait     = 10 * time.Second
	tableauPollInterval = 250 * time.Millisecond
)

// TableauSearcher queries Tableau Public's viz search.
type TableauSearcher interface {
	Search(ctx context.Context, query string, numResults, maxPages int) ([]entity.MetadataRecord, error)
}

type tableauUseCase struct {
	launcher repository.BrowserLauncher
	cardWait time.Duration
	logger   *zap.Logger
}

func NewTableauUseCase(launcher repository.BrowserLauncher, logger *zap.Logger) TableauSearcher {
	return &tableauUseCase{launcher: launcher, cardWait: tableauCardWait, logger: logger}
}

// Search walks result pages until numResults vizzes are found, maxPages is
// reached, or a page renders no viz cards.
func (uc *tableauUseCase) Search(ctx context.Context, query string, numResults, maxPages int) ([]entity.MetadataRecord, error) {
	if numResults <= 0 {
		numResults = 10
	}
	if maxPages <= 0 {
		maxPages = defaultTableauPages
	}
	logger := uc.logger.With(zap.String("site", "tableau"), zap.String("query", query))

	session, err := uc.launcher.Launch(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn("closing browser failed", zap.Error(cerr))
		}
	}()

	base, _ := url.Parse(extractor.TableauBase)
	ext := extractor.NewTableau()

	var results []entity.MetadataRecord
	for page := 1; len(results) < numResults && page <= maxPages; page++ {
		pageURL := extractor.TableauSearchURL(query, page)
		if err := session.Open(ctx, pageURL); err != nil {
			return results, err
		}
		err := pagination.WaitForCards(ctx, session, extractor.TableauCardSelector, uc.cardWait, tableauPollInterval)
		if errors.Is(err, pagination.ErrNoCards) {
			logger.Info("no viz cards found", zap.Int("page", page))
			break
		}
		if err != nil {
			return results, err
		}

		html, err := session.RenderedHTML(ctx)
		if err != nil {
			return results, err
		}
		records, err := ext.Extract(html, base)
		if err != nil {
			return results, err
		}
		for _, r := range records {
			results = append(results, r)
			if len(results) >= numResults {
				break
			}
		}
		logger.Debug("tableau page scraped", zap.Int("page", page), zap.Int("vizzes", len(records)))
	}

	logger.Info("tableau search finished", zap.Int("results", len(results)))
	return results, nil
}
