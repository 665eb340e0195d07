package repository

import "errors"

var (
	// ErrNavigationFailed wraps any failure to load a target page.
	ErrNavigationFailed = errors.New("navigation failed")
	// ErrBrowserLaunch means no browser session could be started.
	ErrBrowserLaunch = errors.New("browser launch failed")
	// ErrExtractionFailed means a document could not be parsed at all.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrStoreWrite means the collection file could not be rewritten.
	ErrStoreWrite = errors.New("metadata store write failed")
	// ErrUnknownSite is returned for a site name with no registered profile.
	ErrUnknownSite = errors.New("unknown site")
	// ErrCollaborator wraps failures of remote services (LLM, CMS, assets).
	ErrCollaborator = errors.New("collaborator request failed")
	// ErrNoImages means an item had no usable image candidates.
	ErrNoImages = errors.New("no candidate images")
)
