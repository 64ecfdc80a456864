package views

import (
	"strconv"
	"strings"

	"github.com/rpggio/tracereplay/internal/domain/event"
)

// SystemActor is the identifier used for events with no actor.
const SystemActor = "system"

const graphColumns = 4

// Position is a fixed grid slot for a node.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Node is a distinct actor in the interaction graph.
type Node struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Position Position `json:"position"`
}

// Edge is one event drawn from its sender to its recipient.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// ActorGraph is the actor interaction graph of a snapshot.
type ActorGraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// ActorID normalises a raw actor name into a graph identifier. Distinct raw
// names may collapse into the same identifier.
func ActorID(actor string) string {
	if actor == "" {
		return SystemActor
	}
	var b strings.Builder
	b.Grow(len(actor))
	for _, r := range actor {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// BuildActorGraph derives the actor graph from events in log order. The edge
// for the last event is the active one.
func BuildActorGraph(events []event.Event) ActorGraph {
	graph := ActorGraph{
		Nodes: []Node{},
		Edges: make([]Edge, 0, len(events)),
	}

	seen := make(map[string]struct{})
	for _, e := range events {
		for _, actor := range [2]string{e.From, e.To} {
			if actor == "" {
				continue
			}
			id := ActorID(actor)
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			i := len(graph.Nodes)
			graph.Nodes = append(graph.Nodes, Node{
				ID:    id,
				Label: actor,
				Position: Position{
					X: 60 + (i%graphColumns)*220,
					Y: 50 + (i/graphColumns)*110,
				},
			})
		}
	}

	for i, e := range events {
		id := e.EventID
		if id == "" {
			id = "edge-" + strconv.Itoa(i)
		}
		graph.Edges = append(graph.Edges, Edge{
			ID:     id,
			Source: ActorID(e.From),
			Target: ActorID(e.To),
			Label:  string(e.Type),
			Active: i == len(events)-1,
		})
	}
	return graph
}

// ActiveEdge returns the highlighted edge, if any.
func (g ActorGraph) ActiveEdge() (Edge, bool) {
	for _, edge := range g.Edges {
		if edge.Active {
			return edge, true
		}
	}
	return Edge{}, false
}
