package bot

import "sync"

// State is a participant's position in the submission conversation.
type State int

const (
	// StateIdle is the implicit default for any participant never seen before.
	StateIdle State = iota

	// StateAwaitingLetter means the next inbound text is taken as the letter.
	StateAwaitingLetter
)

// stateMap holds per-participant conversation state.
//
// In-memory only: a process restart resets everyone to Idle. That is
// acceptable because resubmission is idempotent - a participant mid-prompt
// just presses the button again.
type stateMap struct {
	mu     sync.Mutex
	states map[int64]State
}

func newStateMap() *stateMap {
	return &stateMap{states: make(map[int64]State)}
}

// get returns the participant's state, StateIdle if never seen.
func (m *stateMap) get(participantID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[participantID]
}

func (m *stateMap) set(participantID int64, s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s == StateIdle {
		delete(m.states, participantID)
		return
	}
	m.states[participantID] = s
}
