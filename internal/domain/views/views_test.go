package views_test

import (
	"testing"

	"github.com/rpggio/tracereplay/internal/domain/event"
	"github.com/rpggio/tracereplay/internal/domain/views"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestActorID(t *testing.T) {
	tests := map[string]string{
		"Risk Agent":     "risk_agent",
		"council/chair":  "council_chair",
		"agent-7_B":      "agent-7_b",
		"":               "system",
		"Ünïcode":        "_n_code",
		"already_normal": "already_normal",
	}
	for in, want := range tests {
		require.Equal(t, want, views.ActorID(in), in)
	}
}

func TestBuildActorGraph_Consistency(t *testing.T) {
	events := []event.Event{
		{EventID: "e1", TS: "2026-02-10T10:00:01Z", From: "A", To: "B", Type: "agent_message"},
		{EventID: "e2", TS: "2026-02-10T10:00:02Z", From: "B", To: "C", Type: "governance_vote"},
	}

	graph := views.BuildActorGraph(events)
	require.Len(t, graph.Nodes, 3)
	labels := []string{graph.Nodes[0].Label, graph.Nodes[1].Label, graph.Nodes[2].Label}
	require.Equal(t, []string{"A", "B", "C"}, labels)
	require.Equal(t, "a", graph.Nodes[0].ID)

	require.Len(t, graph.Edges, 2)
	require.Equal(t, "e1", graph.Edges[0].ID)
	require.False(t, graph.Edges[0].Active)
	require.Equal(t, "e2", graph.Edges[1].ID)
	require.True(t, graph.Edges[1].Active)
	require.Equal(t, "b", graph.Edges[1].Source)
	require.Equal(t, "c", graph.Edges[1].Target)
	require.Equal(t, "governance_vote", graph.Edges[1].Label)

	active, ok := graph.ActiveEdge()
	require.True(t, ok)
	require.Equal(t, "e2", active.ID)
}

func TestBuildActorGraph_CollisionsShareANode(t *testing.T) {
	events := []event.Event{
		{EventID: "e1", From: "Risk Agent", To: "risk_agent"},
		{EventID: "e2", From: "risk.agent", To: ""},
	}

	graph := views.BuildActorGraph(events)
	require.Len(t, graph.Nodes, 1)
	require.Equal(t, "risk_agent", graph.Nodes[0].ID)
	require.Equal(t, "Risk Agent", graph.Nodes[0].Label)
	require.Equal(t, "system", graph.Edges[1].Target)
}

func TestBuildActorGraph_Layout(t *testing.T) {
	var events []event.Event
	for _, actor := range []string{"a", "b", "c", "d", "e"} {
		events = append(events, event.Event{EventID: actor, From: actor})
	}

	graph := views.BuildActorGraph(events)
	require.Equal(t, views.Position{X: 60, Y: 50}, graph.Nodes[0].Position)
	require.Equal(t, views.Position{X: 720, Y: 50}, graph.Nodes[3].Position)
	require.Equal(t, views.Position{X: 60, Y: 160}, graph.Nodes[4].Position)
}

func TestBuildActorGraph_Empty(t *testing.T) {
	graph := views.BuildActorGraph(nil)
	require.Empty(t, graph.Nodes)
	require.Empty(t, graph.Edges)
	_, ok := graph.ActiveEdge()
	require.False(t, ok)
}

func TestBuildActorGraph_MissingEventID(t *testing.T) {
	graph := views.BuildActorGraph([]event.Event{{From: "a", To: "b"}})
	require.Equal(t, "edge-0", graph.Edges[0].ID)
	require.True(t, graph.Edges[0].Active)
}

func TestGovernanceFeed(t *testing.T) {
	events := []event.Event{
		{EventID: "1", Type: "task_started"},
		{EventID: "2", Type: event.TypeAgentMessage},
		{EventID: "3", Type: event.TypeGovernanceVote},
		{EventID: "4", Type: "tool_call"},
		{EventID: "5", Type: event.TypeDecisionFinalized},
	}

	feed := views.GovernanceFeed(events)
	require.Len(t, feed, 3)
	require.Equal(t, "2", feed[0].EventID)
	require.Equal(t, "3", feed[1].EventID)
	require.Equal(t, "5", feed[2].EventID)
	require.Empty(t, views.GovernanceFeed(nil))
}

func TestGroupTimeline(t *testing.T) {
	events := []event.Event{
		{EventID: "1"},
		{EventID: "2", PulseID: strPtr("pulse_2")},
		{EventID: "3", PulseID: strPtr("pulse_1")},
		{EventID: "4"},
		{EventID: "5", PulseID: strPtr("pulse_2")},
	}

	groups := views.GroupTimeline(events)
	require.Len(t, groups, 3)
	require.Equal(t, views.InitializationGroup, groups[0].Pulse)
	require.Equal(t, "pulse_2", groups[1].Pulse)
	require.Equal(t, "pulse_1", groups[2].Pulse)

	require.Len(t, groups[0].Events, 2)
	require.Equal(t, "1", groups[0].Events[0].EventID)
	require.Equal(t, "4", groups[0].Events[1].EventID)
	require.Len(t, groups[1].Events, 2)
	require.Equal(t, "5", groups[1].Events[1].EventID)
}
