package jsonstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/repository"
)

// FileName is the collection file written inside the output directory.
const FileName = "image_metadata.json"

// Store keeps the metadata collection in a single JSON array file. Existing
// entries are carried through rewrites untouched, unknown fields included.
type Store struct {
	path   string
	logger *zap.Logger
}

// New returns a store for dir/image_metadata.json.
func New(dir string, logger *zap.Logger) *Store {
	return &Store{path: filepath.Join(dir, FileName), logger: logger}
}

func (s *Store) Path() string { return s.path }

// storedEntry is one raw array element plus the fields merge needs.
type storedEntry struct {
	raw    json.RawMessage
	record entity.MetadataRecord
	key    string
	object bool
}

// legacyEntry accepts the older image_url field as an identity fallback.
type legacyEntry struct {
	entity.MetadataRecord
	ImageURL string `json:"image_url"`
}

// read loads the file. A missing file is empty; a corrupt one is logged and
// treated as empty.
func (s *Store) read() []storedEntry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("could not read metadata file, starting empty", zap.String("path", s.path), zap.Error(err))
		}
		return nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		s.logger.Warn("metadata file is not a JSON array, starting empty", zap.String("path", s.path), zap.Error(err))
		return nil
	}

	entries := make([]storedEntry, 0, len(raws))
	for _, raw := range raws {
		var le legacyEntry
		if err := json.Unmarshal(raw, &le); err != nil {
			// Non-object entries are preserved but never match a key.
			entries = append(entries, storedEntry{raw: raw})
			continue
		}
		key := le.IdentityKey()
		if le.Thumbnail == "" && le.ImageURL != "" {
			key = le.ImageURL
		}
		entries = append(entries, storedEntry{raw: raw, record: le.MetadataRecord, key: key, object: true})
	}
	return entries
}

func (s *Store) write(entries []json.RawMessage) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func encodeRecord(r entity.MetadataRecord) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Merge appends unseen records and rewrites the file. With nothing new the
// file is left as is.
func (s *Store) Merge(ctx context.Context, records []entity.MetadataRecord) ([]entity.MetadataRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	existing := s.read()
	seen := make(map[string]struct{}, len(existing))
	out := make([]json.RawMessage, 0, len(existing)+len(records))
	for _, e := range existing {
		if e.key != "" {
			seen[e.key] = struct{}{}
		}
		out = append(out, e.raw)
	}

	var added []entity.MetadataRecord
	for _, r := range records {
		key := r.IdentityKey()
		if key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		raw, err := encodeRecord(r)
		if err != nil {
			return nil, fmt.Errorf("encode record: %w", err)
		}
		out = append(out, raw)
		added = append(added, r)
	}

	if len(added) == 0 {
		s.logger.Info("no new metadata entries", zap.String("path", s.path), zap.Int("total", len(out)))
		return nil, nil
	}

	if err := s.write(out); err != nil {
		s.logger.Warn("failed to write metadata file", zap.String("path", s.path), zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", repository.ErrStoreWrite, s.path, err)
	}

	s.logger.Info("metadata saved",
		zap.String("path", s.path),
		zap.Int("added", len(added)),
		zap.Int("total", len(out)),
	)
	return added, nil
}

func (s *Store) Load(ctx context.Context) ([]entity.MetadataRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries := s.read()
	records := make([]entity.MetadataRecord, 0, len(entries))
	for _, e := range entries {
		if !e.object {
			continue
		}
		records = append(records, e.record)
	}
	return records, nil
}

// Prune drops matching entries and rewrites the file when anything changed.
func (s *Store) Prune(ctx context.Context, drop func(entity.MetadataRecord) bool) (entity.CleanupReport, error) {
	report := entity.CleanupReport{Path: s.path}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	entries := s.read()
	kept := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		if drop(e.record) {
			report.Removed++
			continue
		}
		kept = append(kept, e.raw)
	}
	report.Remaining = len(kept)

	if report.Removed == 0 {
		return report, nil
	}
	if err := s.write(kept); err != nil {
		s.logger.Warn("failed to write metadata file", zap.String("path", s.path), zap.Error(err))
		return report, fmt.Errorf("%w: %s: %v", repository.ErrStoreWrite, s.path, err)
	}
	return report, nil
}
