package views

import "github.com/rpggio/tracereplay/internal/domain/event"

// InitializationGroup labels timeline events that carry no pulse_id.
const InitializationGroup = "Initialization"

// TimelineGroup is one pulse bucket of the grouped timeline.
type TimelineGroup struct {
	Pulse  string        `json:"pulse"`
	Events []event.Event `json:"events"`
}

// GovernanceFeed returns the governance events in log order.
func GovernanceFeed(events []event.Event) []event.Event {
	feed := []event.Event{}
	for _, e := range events {
		if e.Type.IsGovernance() {
			feed = append(feed, e)
		}
	}
	return feed
}

// GroupTimeline buckets events by pulse_id. Groups appear in the order their
// first event appears; events keep log order within a group.
func GroupTimeline(events []event.Event) []TimelineGroup {
	groups := []TimelineGroup{}
	index := make(map[string]int)
	for _, e := range events {
		key := e.Pulse()
		if key == "" {
			key = InitializationGroup
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, TimelineGroup{Pulse: key})
		}
		groups[i].Events = append(groups[i].Events, e)
	}
	return groups
}
