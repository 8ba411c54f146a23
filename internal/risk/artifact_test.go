package risk

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"PrivacyScanner/internal/domain"
)

func testArtifact(t *testing.T) *Artifact {
	t.Helper()

	samples, labels := separableSamples()
	forest, err := FitForest(samples, labels, ForestConfig{Trees: 5, MaxDepth: 3, Seed: 1})
	if err != nil {
		t.Fatalf("fit forest: %v", err)
	}
	return &Artifact{
		Version:   ArtifactVersion,
		TrainedAt: time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC),
		Seed:      1,
		Schema:    domain.FeatureSchema(),
		Forest:    forest,
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.json")
	original := testArtifact(t)

	if err := SaveArtifact(path, original); err != nil {
		t.Fatalf("save artifact: %v", err)
	}

	loaded, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("load artifact: %v", err)
	}
	if !reflect.DeepEqual(original, loaded) {
		t.Fatalf("round trip changed the artifact")
	}
}

func TestLoadArtifactRejectsUnsupportedVersion(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.json")
	artifact := testArtifact(t)
	artifact.Version = ArtifactVersion + 1

	if err := SaveArtifact(path, artifact); err != nil {
		t.Fatalf("save artifact: %v", err)
	}
	if _, err := LoadArtifact(path); err == nil {
		t.Fatalf("expected version error")
	}
}

func TestLoadArtifactSchemaMismatch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.json")
	artifact := testArtifact(t)
	artifact.Schema = artifact.Schema[:len(artifact.Schema)-1]

	if err := SaveArtifact(path, artifact); err != nil {
		t.Fatalf("save artifact: %v", err)
	}

	_, err := LoadArtifact(path)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestLoadArtifactCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if _, err := LoadArtifact(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLoaderWatchReloadsOnRewrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.json")
	first := testArtifact(t)
	if err := SaveArtifact(path, first); err != nil {
		t.Fatalf("save artifact: %v", err)
	}

	loader := NewLoader(path, nil)
	if err := loader.Load(); err != nil {
		t.Fatalf("initial load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := loader.Watch(ctx); err != nil {
		t.Fatalf("watch: %v", err)
	}

	second := testArtifact(t)
	second.Seed = 99
	if err := SaveArtifact(path, second); err != nil {
		t.Fatalf("rewrite artifact: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if current := loader.Current(); current != nil && current.Seed == 99 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("watcher did not reload the rewritten artifact")
}

func TestLoaderKeepsPreviousModelOnFailedReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.json")
	if err := SaveArtifact(path, testArtifact(t)); err != nil {
		t.Fatalf("save artifact: %v", err)
	}

	loader := NewLoader(path, nil)
	if err := loader.Load(); err != nil {
		t.Fatalf("initial load: %v", err)
	}
	current := loader.Current()
	if current == nil {
		t.Fatalf("expected loaded artifact")
	}

	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("corrupt artifact: %v", err)
	}
	if err := loader.Load(); err == nil {
		t.Fatalf("expected reload failure")
	}
	if loader.Current() != current {
		t.Fatalf("failed reload must keep the previous model")
	}
}
