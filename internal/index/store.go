package index

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"eventcore/internal/common/fsutil"
	"eventcore/internal/errs"
	"eventcore/internal/metrics"
	"eventcore/pkg/types"
)

// Load reads and decodes the artifact at path. A missing file is a
// configuration error, not an empty index.
func Load(path string, f Format) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.Configf("index load", path, "index artifact not found; run `eventctl index rebuild`")
		}
		return nil, errs.Config("index load", path, err)
	}
	a, err := Decode(data, f)
	if err != nil {
		var ce *errs.ConfigError
		if errors.As(err, &ce) && ce.Subject == "" {
			ce.Op, ce.Subject = "index load", path
		}
		return nil, err
	}
	return New(a), nil
}

// Replace atomically swaps the artifact at path for the encoding of a and
// returns the bytes written. Missing parent directories are created. On
// failure the previous artifact is untouched.
func Replace(path string, a types.Artifact, f Format) ([]byte, error) {
	data, err := Encode(a, f)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); !fsutil.PathExists(dir) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return nil, err
	}
	return data, nil
}

// Store loads one artifact lazily and keeps the result, error included, for
// the rest of the process. It is safe for concurrent use. Memoization is per
// Store: a program should build one Store per artifact path and share it,
// typically through offline.New.
type Store struct {
	path    string
	format  Format
	metrics *metrics.Metrics

	once sync.Once
	idx  *Index
	err  error
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithFormat overrides the format guessed from the file extension.
func WithFormat(f Format) StoreOption {
	return func(s *Store) { s.format = f }
}

func WithMetrics(m *metrics.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{path: path, format: FormatFromPath(path)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Path() string { return s.path }

func (s *Store) Format() Format { return s.format }

// Index returns the memoized index, loading it on first use.
func (s *Store) Index() (*Index, error) {
	s.once.Do(func() {
		s.idx, s.err = Load(s.path, s.format)
		n := 0
		if s.idx != nil {
			n = s.idx.Len()
		}
		s.metrics.IndexLoaded(n, s.err)
		if s.err != nil {
			zlog.Error().Err(s.err).Str("path", s.path).Msg("listener index load failed")
			return
		}
		zlog.Debug().Str("path", s.path).Int("events", n).Msg("listener index loaded")
	})
	return s.idx, s.err
}

// Preloaded returns a Store that serves ix without touching the filesystem.
func Preloaded(ix *Index) *Store {
	s := &Store{}
	s.once.Do(func() { s.idx = ix })
	return s
}
