package entity

// Stage is a step of the per-request prediction pipeline
type Stage int

// Pipeline stages in the order a request moves through them. Any stage may
// move to StageErrored, which is terminal.
const (
	StageReceived Stage = iota
	StageValidated
	StageTokenized
	StageScored
	StageDecided
	StageResolved
	StageResponded
	StageErrored
)

var stageNames = [...]string{
	StageReceived:  "received",
	StageValidated: "validated",
	StageTokenized: "tokenized",
	StageScored:    "scored",
	StageDecided:   "decided",
	StageResolved:  "resolved",
	StageResponded: "responded",
	StageErrored:   "errored",
}

// String returns the stage name
func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// IsTerminal reports whether no further transition is possible
func (s Stage) IsTerminal() bool {
	return s == StageResponded || s == StageErrored
}
