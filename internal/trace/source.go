// Package trace loads replay artifacts: the trace manifest, the recorded event
// traces, and the security report.
package trace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/rpggio/tracereplay/internal/domain/event"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

const (
	ManifestFile = "manifest.json"
	ReportFile   = "security_report.md"
	DefaultTrace = "run_events.json"
)

var (
	// ErrNotFound indicates the requested artifact does not exist.
	ErrNotFound = errors.New("artifact not found")
	// ErrInvalidName indicates a trace name that could escape the artifact root.
	ErrInvalidName = errors.New("invalid trace name")
	// ErrTooLarge indicates an artifact over the fetch size limit.
	ErrTooLarge = errors.New("artifact too large")
)

// Source supplies replay artifacts.
type Source interface {
	Manifest(ctx context.Context) ([]string, error)
	Trace(ctx context.Context, name string) ([]event.Event, error)
	Report(ctx context.Context) (string, error)
}

// Bundle is everything loaded for one trace selection.
type Bundle struct {
	Traces []string
	Name   string
	Events []event.Event
}

// DecodeTrace accepts either a bare JSON array of events or an object with an
// events field. Any other document yields no events.
func DecodeTrace(data []byte) ([]event.Event, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("decoding trace: invalid JSON")
	}

	doc := gjson.ParseBytes(data)
	raw := doc.Raw
	if !doc.IsArray() {
		field := doc.Get("events")
		if !field.IsArray() {
			return []event.Event{}, nil
		}
		raw = field.Raw
	}

	var events []event.Event
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		return nil, fmt.Errorf("decoding trace events: %w", err)
	}
	return events, nil
}

// DecodeManifest parses a manifest document into a sorted list of trace names.
// Documents that are not a JSON array of strings yield no names.
func DecodeManifest(data []byte) []string {
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil
	}
	var names []string
	for _, item := range doc.Array() {
		if item.Type == gjson.String && item.Str != "" {
			names = append(names, item.Str)
		}
	}
	slices.Sort(names)
	return names
}

// LoadBundle fetches the manifest and the named trace concurrently. A missing
// or unreadable manifest falls back to the default trace list; a missing trace
// is an error. The report is not part of a bundle: it is fetched on demand so
// that a report outage never blocks replay.
func LoadBundle(ctx context.Context, src Source, name string) (*Bundle, error) {
	if name == "" {
		name = DefaultTrace
	}
	bundle := &Bundle{Name: name}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		names, err := src.Manifest(gctx)
		if err != nil || len(names) == 0 {
			bundle.Traces = []string{DefaultTrace}
			return nil
		}
		bundle.Traces = names
		return nil
	})
	g.Go(func() error {
		events, err := src.Trace(gctx, name)
		if err != nil {
			return fmt.Errorf("loading trace %s: %w", name, err)
		}
		bundle.Events = events
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bundle, nil
}
