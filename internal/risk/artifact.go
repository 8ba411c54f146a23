package risk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"PrivacyScanner/internal/domain"
)

// ArtifactVersion is bumped whenever the serialized layout changes.
const ArtifactVersion = 1

// ErrSchemaMismatch marks an artifact whose embedded feature schema does
// not match the extractor's. Such an artifact must never be used: feature
// positions would silently mean the wrong thing.
var ErrSchemaMismatch = errors.New("model artifact feature schema mismatch")

// Artifact is the serialized trained model together with the feature
// schema it was fit against and provenance metadata.
type Artifact struct {
	Version   int       `json:"version"`
	TrainedAt time.Time `json:"trained_at"`
	Seed      int64     `json:"seed"`
	Schema    []string  `json:"schema"`
	Forest    *Forest   `json:"forest"`
}

// SaveArtifact writes the artifact to a temp file in the target directory
// and renames it into place, so a concurrent reader never sees a partial
// file.
func SaveArtifact(path string, a *Artifact) error {
	raw, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace model artifact %s: %w", path, err)
	}
	return nil
}

// LoadArtifact reads and validates an artifact file. It returns
// ErrSchemaMismatch (wrapped) when the embedded schema differs from the
// current extractor schema.
func LoadArtifact(path string) (*Artifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact %s: %w", path, err)
	}

	var a Artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode model artifact %s: %w", path, err)
	}
	if a.Version != ArtifactVersion {
		return nil, fmt.Errorf("model artifact %s: unsupported version %d", path, a.Version)
	}
	if a.Forest == nil || len(a.Forest.Trees) == 0 {
		return nil, fmt.Errorf("model artifact %s: no trees", path)
	}
	if !schemaMatches(a.Schema, domain.FeatureSchema()) {
		return nil, fmt.Errorf("model artifact %s: %w (artifact has %d features, extractor has %d)",
			path, ErrSchemaMismatch, len(a.Schema), len(domain.FeatureSchema()))
	}
	return &a, nil
}

func schemaMatches(artifact, current []string) bool {
	if len(artifact) != len(current) {
		return false
	}
	for i := range artifact {
		if artifact[i] != current[i] {
			return false
		}
	}
	return true
}

// Loader holds the currently usable artifact behind an atomic pointer so
// the classifier can read it on every request without locking, and reloads
// it when the file changes on disk.
type Loader struct {
	path    string
	logger  *slog.Logger
	current atomic.Pointer[Artifact]
}

// NewLoader creates a loader for the given artifact path. No file is read
// until Load is called.
func NewLoader(path string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{path: path, logger: logger}
}

// Current returns the usable artifact, or nil when none is loaded and the
// classifier must fall back to rule-based scoring.
func (l *Loader) Current() *Artifact {
	return l.current.Load()
}

// Load reads the artifact from disk and swaps it in. On failure the
// previously loaded artifact (if any) stays active; an initial failure
// leaves the loader empty.
func (l *Loader) Load() error {
	a, err := LoadArtifact(l.path)
	if err != nil {
		return err
	}
	l.current.Store(a)
	l.logger.Info("model artifact loaded",
		"path", l.path,
		"trees", len(a.Forest.Trees),
		"trained_at", a.TrainedAt,
	)
	return nil
}

// Watch reloads the artifact whenever its file is rewritten, until the
// context is canceled. The parent directory is watched rather than the
// file itself because atomic rename replaces the inode.
func (l *Loader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create artifact watcher: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch model dir %s: %w", dir, err)
	}

	base := filepath.Base(l.path)
	go func() {
		defer watcher.Close()

		// Rewrites arrive as bursts of events; a short timer coalesces
		// them into one reload.
		var reload *time.Timer
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if reload != nil {
					reload.Stop()
				}
				reload = time.AfterFunc(200*time.Millisecond, func() {
					if err := l.Load(); err != nil {
						l.logger.Warn("model artifact reload failed, keeping previous model",
							"path", l.path, "error", err)
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Warn("model artifact watcher error", "error", err)
			}
		}
	}()
	return nil
}
