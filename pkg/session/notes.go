package session

// Note is a change notification published to the UI. Notes are advisory:
// consumers read current state through the controller's accessors, so a
// dropped note never loses data.
type Note interface {
	note() string
}

// StateNote reports a lifecycle transition.
type StateNote struct {
	State State
}

func (n StateNote) note() string { return "state" }

// TranscriptNote reports that the message log changed.
type TranscriptNote struct{}

func (n TranscriptNote) note() string { return "transcript" }

// CandidateNote reports a newly recorded automation candidate.
type CandidateNote struct {
	Candidate AutomationCandidate
}

func (n CandidateNote) note() string { return "candidate" }

// LevelNote reports the current microphone signal level in [0, 1].
type LevelNote struct {
	Level float64
}

func (n LevelNote) note() string { return "level" }

// ErrorNote surfaces a session failure to the UI.
type ErrorNote struct {
	Err error
}

func (n ErrorNote) note() string { return "error" }
