package detector

import (
	"context"
	"fmt"
	"log/slog"

	"PrivacyScanner/internal/domain"
	"PrivacyScanner/internal/ports"
)

// Registry keeps a mapping from detector names to their implementations.
type Registry struct {
	order     []string
	detectors map[string]ports.Detector
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{detectors: map[string]ports.Detector{}}
}

// Register adds or replaces a detector implementation.
func (r *Registry) Register(det ports.Detector) {
	if r.detectors == nil {
		r.detectors = map[string]ports.Detector{}
	}
	if _, ok := r.detectors[det.Name()]; !ok {
		r.order = append(r.order, det.Name())
	}
	r.detectors[det.Name()] = det
}

// Resolve returns a detector by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.Detector, error) {
	if det, ok := r.detectors[name]; ok {
		return det, nil
	}
	return nil, fmt.Errorf("detector %s is not registered", name)
}

// All returns detectors in registration order.
func (r *Registry) All() []ports.Detector {
	out := make([]ports.Detector, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.detectors[name])
	}
	return out
}

// RunAll executes every detector concurrently and collects their spans.
// Detector failure is non-fatal: a panicking adapter contributes nothing
// and the request proceeds with the remaining results. Completion order
// does not matter because the merger sorts before resolving conflicts.
func RunAll(ctx context.Context, detectors []ports.Detector, text string, logger *slog.Logger, onFailure func(name string)) []domain.Span {
	if len(detectors) == 0 {
		return nil
	}

	type result struct {
		name  string
		spans []domain.Span
	}

	ch := make(chan result, len(detectors))
	for _, det := range detectors {
		go func(d ports.Detector) {
			defer func() {
				if rec := recover(); rec != nil {
					if logger != nil {
						logger.Warn("detector panicked", "detector", d.Name(), "panic", rec)
					}
					if onFailure != nil {
						onFailure(d.Name())
					}
					ch <- result{name: d.Name()}
				}
			}()
			ch <- result{name: d.Name(), spans: d.Detect(ctx, text)}
		}(det)
	}

	var all []domain.Span
	for range detectors {
		select {
		case r := <-ch:
			all = append(all, r.spans...)
		case <-ctx.Done():
			if logger != nil {
				logger.Warn("detection cancelled, using partial results", "collected", len(all))
			}
			return all
		}
	}
	return all
}
