package state

// State is the on-disk client storage: a map of keys to raw JSON values.
// Each value is held as a JSON string of its original bytes, so whitespace
// and escaping survive a round trip.
type State struct {
	Entries map[string]string `json:"entries"`
}

func newState() *State {
	return &State{Entries: make(map[string]string)}
}
