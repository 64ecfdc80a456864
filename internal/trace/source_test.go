package trace_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/rpggio/tracereplay/internal/domain/event"
	"github.com/rpggio/tracereplay/internal/trace"
	"github.com/stretchr/testify/require"
)

const sampleTrace = `{"run_id":"run_1","events":[
 {"event_id":"e2","run_id":"run_1","pulse_id":"pulse_2","ts":"2026-02-10T10:00:02Z","type":"governance_vote","from":"Risk","to":"Council","title":"Vote","payload":{"votes":[{"member":"risk","vote":"approve"}]}},
 {"event_id":"e1","run_id":"run_1","pulse_id":null,"ts":"2026-02-10T10:00:01Z","type":"run_started","from":"","to":"Council","title":"Start"}
]}`

func artifacts() fstest.MapFS {
	return fstest.MapFS{
		"manifest.json":      {Data: []byte(`["run_b.json","run_a.json"]`)},
		"run_a.json":         {Data: []byte(sampleTrace)},
		"run_b.json":         {Data: []byte(`[{"event_id":"x","ts":"2026-02-10T10:00:00Z","type":"note"}]`)},
		"security_report.md": {Data: []byte("# Report\n**Critical**: reentrancy")},
	}
}

func TestDecodeTrace(t *testing.T) {
	events, err := trace.DecodeTrace([]byte(sampleTrace))
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "pulse_2", events[0].Pulse())
	require.Nil(t, events[1].PulseID)
	require.Equal(t, event.TypeGovernanceVote, events[0].Type)
	require.Len(t, events[0].Details().Votes, 1)

	events, err = trace.DecodeTrace([]byte(`[{"event_id":"a"}]`))
	require.NoError(t, err)
	require.Len(t, events, 1)

	events, err = trace.DecodeTrace([]byte(`{"run_id":"x"}`))
	require.NoError(t, err)
	require.Empty(t, events)

	_, err = trace.DecodeTrace([]byte(`{not json`))
	require.Error(t, err)
}

func TestDecodeTrace_NonStringTimestamps(t *testing.T) {
	events, err := trace.DecodeTrace([]byte(`[
	 {"event_id":"s","ts":"2026-02-10T10:00:00Z","type":"note"},
	 {"event_id":"n","ts":1707559200000,"type":"note"},
	 {"event_id":"o","ts":{"at":"noon"},"type":"note"},
	 {"event_id":"z","ts":null,"type":"note"}
	]`))
	require.NoError(t, err)
	require.Len(t, events, 4)
	require.Equal(t, "2026-02-10T10:00:00Z", events[0].TS)
	require.Equal(t, "1707559200000", events[1].TS)
	require.Equal(t, `{"at":"noon"}`, events[2].TS)
	require.Empty(t, events[3].TS)

	store := event.NewStore()
	result := store.Merge(events)
	require.Equal(t, 2, result.Malformed)

	var order []string
	for _, e := range store.Snapshot() {
		order = append(order, e.EventID)
	}
	require.Equal(t, []string{"o", "z", "n", "s"}, order)
}

func TestDecodeManifest(t *testing.T) {
	require.Equal(t, []string{"a.json", "b.json"}, trace.DecodeManifest([]byte(`["b.json", 3, "a.json", ""]`)))
	require.Nil(t, trace.DecodeManifest([]byte(`{"traces":[]}`)))
}

func TestValidateName(t *testing.T) {
	require.NoError(t, trace.ValidateName("run_events.json"))
	for _, name := range []string{"", "../secret.json", "dir/run.json", "run.txt", "manifest.json", `a\b.json`} {
		require.ErrorIs(t, trace.ValidateName(name), trace.ErrInvalidName, name)
	}
}

func TestDirSource(t *testing.T) {
	ctx := context.Background()
	src := trace.NewDirSource(artifacts())

	names, err := src.Manifest(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"run_a.json", "run_b.json"}, names)

	events, err := src.Trace(ctx, "run_a.json")
	require.NoError(t, err)
	require.Len(t, events, 2)

	_, err = src.Trace(ctx, "missing.json")
	require.ErrorIs(t, err, trace.ErrNotFound)

	report, err := src.Report(ctx)
	require.NoError(t, err)
	require.Contains(t, report, "reentrancy")
}

func TestLoadBundle(t *testing.T) {
	ctx := context.Background()

	bundle, err := trace.LoadBundle(ctx, trace.NewDirSource(artifacts()), "run_b.json")
	require.NoError(t, err)
	require.Equal(t, []string{"run_a.json", "run_b.json"}, bundle.Traces)
	require.Len(t, bundle.Events, 1)

	bare := fstest.MapFS{trace.DefaultTrace: {Data: []byte(`[]`)}}
	bundle, err = trace.LoadBundle(ctx, trace.NewDirSource(bare), "")
	require.NoError(t, err)
	require.Equal(t, []string{trace.DefaultTrace}, bundle.Traces)

	_, err = trace.LoadBundle(ctx, trace.NewDirSource(bare), "nope.json")
	require.True(t, errors.Is(err, trace.ErrNotFound))
}

func TestHTTPSource(t *testing.T) {
	server := httptest.NewServer(http.FileServer(http.FS(artifacts())))
	t.Cleanup(server.Close)

	ctx := context.Background()
	src, err := trace.NewHTTPSource(server.URL, server.Client())
	require.NoError(t, err)

	names, err := src.Manifest(ctx)
	require.NoError(t, err)
	require.Len(t, names, 2)

	events, err := src.Trace(ctx, "run_a.json")
	require.NoError(t, err)
	require.Len(t, events, 2)

	_, err = src.Trace(ctx, "missing.json")
	require.ErrorIs(t, err, trace.ErrNotFound)

	report, err := src.Report(ctx)
	require.NoError(t, err)
	require.Contains(t, report, "# Report")
}

func TestHTTPSource_RejectsOversizedArtifacts(t *testing.T) {
	server := httptest.NewServer(http.FileServer(http.FS(artifacts())))
	t.Cleanup(server.Close)

	src, err := trace.NewHTTPSource(server.URL, server.Client())
	require.NoError(t, err)
	src = src.WithLimit(int64(len(sampleTrace)) - 1)

	_, err = src.Trace(context.Background(), "run_a.json")
	require.ErrorIs(t, err, trace.ErrTooLarge)

	// Exactly at the limit is fine.
	_, err = src.WithLimit(int64(len(sampleTrace))).Trace(context.Background(), "run_a.json")
	require.NoError(t, err)
}
