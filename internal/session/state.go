package session

import (
	"errors"
	"time"

	"github.com/example/ipabot/internal/format"
)

// MaxSessionSize is the upper bound on words per session.
const MaxSessionSize = 10

// ErrNoActiveSession is returned for actions from a user without a running session.
var ErrNoActiveSession = errors.New("no active session")

// Status is where a user ends up after an engine call.
type Status int

const (
	// StatusPresenting means an item is on screen and the session continues.
	StatusPresenting Status = iota
	// StatusComplete means every vocabulary word is completed.
	StatusComplete
	// StatusExhausted means this session ended and unseen words remain.
	StatusExhausted
	// StatusQuit means the user left the session.
	StatusQuit
)

func (s Status) String() string {
	switch s {
	case StatusPresenting:
		return "presenting"
	case StatusComplete:
		return "complete"
	case StatusExhausted:
		return "exhausted"
	case StatusQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Outcome is the result of a state transition.
type Outcome struct {
	Status Status
	// Item and Revealed are set only while presenting.
	Item     *format.Item
	Revealed bool
}

// AudioHandle identifies audio delivered to the user so it can be removed later.
type AudioHandle int

// State is one user's running session. It is owned by the Engine.
type State struct {
	ID         string
	UserID     int64
	ChatID     int64
	Words      []string
	Index      int
	Vocabulary map[string]string
	Audio      []AudioHandle
	StartedAt  time.Time
	UpdatedAt  time.Time
}

func (s *State) item() *format.Item {
	word := s.Words[s.Index]
	return &format.Item{
		Word:          word,
		Transcription: s.Vocabulary[word],
		Position:      s.Index + 1,
		Total:         len(s.Words),
	}
}

// ProgressReport summarizes a user's standing in the activity.
type ProgressReport struct {
	Learned  []string
	Total    int
	Complete bool
}
