package extractor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/repository"
)

// ProbeMode selects how thumbnails are measured for the dimension filter.
type ProbeMode int

const (
	ProbeNone ProbeMode = iota
	// ProbeBrowser loads the image inside the live page.
	ProbeBrowser
	// ProbeHTTP downloads and decodes the image.
	ProbeHTTP
)

func (m ProbeMode) String() string {
	switch m {
	case ProbeBrowser:
		return "browser"
	case ProbeHTTP:
		return "http"
	default:
		return "none"
	}
}

// Profile bundles everything that varies per gallery site.
type Profile struct {
	Name      string
	Extractor Extractor
	// RequireImageExtension drops scanned images without a raster
	// extension in their URL.
	RequireImageExtension bool
	Probe                 ProbeMode
	// ProbeOrigin is the record origin the dimension filter applies to.
	ProbeOrigin entity.Origin
	// StrictProbe rejects images that cannot be measured.
	StrictProbe bool
	// Pages is the default number of gallery pages; 1 disables paging.
	Pages int
	// CardSelector is polled after a page change until cards render.
	CardSelector string
}

// Paginated reports whether the site pages through a JS pager.
func (p Profile) Paginated() bool { return p.Pages > 1 }

// Generic is the profile used when no site is named.
const Generic = "generic"

var profiles = map[string]Profile{
	Generic: {
		Name:        Generic,
		Extractor:   NewGeneric(),
		Probe:       ProbeBrowser,
		ProbeOrigin: entity.OriginScan,
		Pages:       1,
	},
	"databox": {
		Name:                  "databox",
		Extractor:             NewDatabox(),
		RequireImageExtension: true,
		Probe:                 ProbeBrowser,
		ProbeOrigin:           entity.OriginScan,
		Pages:                 1,
	},
	"agencyanalytics": {
		Name:         "agencyanalytics",
		Extractor:    NewAgencyAnalytics(),
		Pages:        9,
		CardSelector: AgencyAnalyticsCardSelector,
	},
	"supermetrics": {
		Name:      "supermetrics",
		Extractor: NewSupermetrics(),
		Pages:     1,
	},
	"bymarketers": {
		Name:        "bymarketers",
		Extractor:   NewByMarketers(),
		Probe:       ProbeHTTP,
		ProbeOrigin: entity.OriginCard,
		StrictProbe: true,
		Pages:       1,
	},
	"catchr": {
		Name:      "catchr",
		Extractor: NewCatchr(),
		Pages:     1,
	},
	"portermetrics": {
		Name:                  "portermetrics",
		Extractor:             NewPorterMetrics(),
		RequireImageExtension: true,
		Probe:                 ProbeBrowser,
		ProbeOrigin:           entity.OriginScan,
		Pages:                 1,
	},
	"tableau": {
		Name:         "tableau",
		Extractor:    NewTableau(),
		Pages:        1,
		CardSelector: TableauCardSelector,
	},
}

// Lookup returns the profile registered for site, case-insensitively. An
// empty name selects the generic profile.
func Lookup(site string) (Profile, error) {
	site = strings.ToLower(strings.TrimSpace(site))
	if site == "" {
		site = Generic
	}
	p, ok := profiles[site]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (known: %s)", repository.ErrUnknownSite, site, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names lists the registered sites in sorted order.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
