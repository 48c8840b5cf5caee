package consolidate

// State is a step of a consolidation run.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateCheckingCompatibility
	StateDetectingRedundancy
	StateDeletingRedundant
	StatePersisting1
	StateSelectingSurvivors
	StateMerging
	StateDeletingMergedAway
	StatePersisting2
	StateCompleted
	StateFailed
)

var stateNames = [...]string{
	StateIdle:                  "idle",
	StateFetching:              "fetching",
	StateCheckingCompatibility: "checking_compatibility",
	StateDetectingRedundancy:   "detecting_redundancy",
	StateDeletingRedundant:     "deleting_redundant",
	StatePersisting1:           "persisting_1",
	StateSelectingSurvivors:    "selecting_survivors",
	StateMerging:               "merging",
	StateDeletingMergedAway:    "deleting_merged_away",
	StatePersisting2:           "persisting_2",
	StateCompleted:             "completed",
	StateFailed:                "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// ParseState is the inverse of State.String.
func ParseState(name string) (State, bool) {
	for s, n := range stateNames {
		if n == name {
			return State(s), true
		}
	}
	return StateIdle, false
}

// Terminal reports whether no further step follows s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Observer is notified of every state a run enters. A scheduled run reports
// on the work context. A run the log refuses to schedule reports StateFailed
// on the caller's goroutine.
type Observer func(State)
