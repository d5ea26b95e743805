package dividendcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"divwatch-api/pkg/dividend"
)

// FileStore keeps one JSON document per ticker under Dir.
type FileStore struct {
	Dir string
}

type fileRecord struct {
	Timestamp string          `json:"timestamp"`
	Data      dividend.Series `json:"data"`
}

// NewFileStore returns a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

// Path returns the file backing ticker.
func (s *FileStore) Path(ticker string) string {
	return filepath.Join(s.Dir, url.PathEscape(dividend.NormalizeTicker(ticker))+".json")
}

func (s *FileStore) Load(ctx context.Context, ticker string) (*Entry, error) {
	data, err := os.ReadFile(s.Path(ticker))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode cache file %s: %w", ticker, err)
	}
	fetchedAt, err := time.Parse(time.RFC3339Nano, rec.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("decode cache file %s: timestamp: %w", ticker, err)
	}
	return &Entry{
		Ticker:    dividend.NormalizeTicker(ticker),
		FetchedAt: fetchedAt,
		Series:    rec.Data.Clone(),
	}, nil
}

func (s *FileStore) Save(ctx context.Context, entry *Entry) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	data, err := json.Marshal(fileRecord{
		Timestamp: entry.FetchedAt.Format(time.RFC3339Nano),
		Data:      entry.Series.Clone(),
	})
	if err != nil {
		return fmt.Errorf("encode cache file: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, ".divwatch-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(entry.Ticker)); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}
