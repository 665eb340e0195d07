package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Target is one gallery page to scrape with a named site profile.
type Target struct {
	Site  string `yaml:"site"`
	URL   string `yaml:"url"`
	Pages int    `yaml:"pages,omitempty"`
}

type targetsFile struct {
	Targets []Target `yaml:"targets"`
}

// LoadTargets reads a YAML target list. A missing file yields nil, nil.
//
//	targets:
//	  - site: databox
//	    url: https://databox.com/dashboard-examples/marketing
func LoadTargets(path string) ([]Target, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read targets file %s: %w", path, err)
	}

	var f targetsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse targets file %s: %w", path, err)
	}

	out := make([]Target, 0, len(f.Targets))
	for i, t := range f.Targets {
		t.Site = strings.ToLower(strings.TrimSpace(t.Site))
		t.URL = strings.TrimSpace(t.URL)
		if t.URL == "" {
			return nil, fmt.Errorf("targets[%d]: url is required", i)
		}
		if t.Site == "" {
			t.Site = "generic"
		}
		out = append(out, t)
	}
	return out, nil
}

// BuiltinTargets returns the known gallery pages for site, or nil.
func BuiltinTargets(site string) []Target {
	urls := builtinGalleries[strings.ToLower(site)]
	out := make([]Target, 0, len(urls))
	for _, u := range urls {
		out = append(out, Target{Site: site, URL: u})
	}
	return out
}

var builtinGalleries = map[string][]string{
	"databox": {
		"https://databox.com/dashboard-examples/marketing",
		"https://databox.com/dashboard-examples/sales",
		"https://databox.com/dashboard-examples/customer-support",
		"https://databox.com/dashboard-examples/ecommerce",
		"https://databox.com/dashboard-examples/project-management",
		"https://databox.com/dashboard-examples/financial",
		"https://databox.com/dashboard-examples/software-development",
		"https://databox.com/dashboard-examples/saas",
		"https://databox.com/dashboard-examples/google-analytics-4-dashboards",
		"https://databox.com/dashboard-examples/hubspot-dashboards",
		"https://databox.com/dashboard-examples/facebook-ads-dashboards",
		"https://databox.com/dashboard-examples/google-ads-dashboards",
		"https://databox.com/dashboard-examples/linkedin-dashboards",
	},
	"agencyanalytics": {
		"https://agencyanalytics.com/templates",
	},
	"portermetrics": {
		"https://portermetrics.com/en/templates/",
		"https://portermetrics.com/en/templates/2",
		"https://portermetrics.com/en/templates/3",
		"https://portermetrics.com/en/report-templates/",
		"https://portermetrics.com/en/dashboard-templates/",
		"https://portermetrics.com/en/examples/",
	},
	"bymarketers": {
		"https://bymarketers.co/file-type/google-looker-studio/",
		"https://bymarketers.co/file-type/powerbi/",
		"https://bymarketers.co/file-type/google-sheets/",
		"https://bymarketers.co/browse/seo/",
		"https://bymarketers.co/browse/paid-advertising/",
		"https://bymarketers.co/platforms/ga4/",
	},
	"catchr": {
		"https://www.catchr.io/template",
	},
	"supermetrics": {
		"https://supermetrics.com/template-gallery",
	},
}
