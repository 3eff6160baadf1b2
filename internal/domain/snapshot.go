package domain

// Snapshot is the read model published by the finance engine. Consumers
// receive deep copies and never share mutable state with the engine.
type Snapshot struct {
	// Items holds the instruments in display order, capped by config.
	Items []Instrument `json:"items"`
	// SelectedItem is nil until items arrive, then always points at one of
	// Items (a copy of it).
	SelectedItem *Instrument `json:"selectedItem"`
	// Loading is true while a fetch pass is in flight.
	Loading bool `json:"loading"`
	// Error carries a user-facing message, empty when the last pass succeeded.
	Error string `json:"error,omitempty"`
	// Degraded is true when Items came from the embedded fallback payload
	// rather than the live API.
	Degraded bool `json:"degraded"`
	// Version increases on every publication; the SSE stream uses it to
	// detect fresh snapshots.
	Version uint64 `json:"version"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Items = make([]Instrument, len(s.Items))
	for i, item := range s.Items {
		out.Items[i] = item.Clone()
	}
	if s.SelectedItem != nil {
		sel := s.SelectedItem.Clone()
		out.SelectedItem = &sel
	}
	return out
}
