// internal/enrollment/activity.go
package enrollment

import (
	"bytes"
	"encoding/json"
)

// Activity is a named extracurricular offering with its roster.
type Activity struct {
	Name            string   `json:"-"`
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// SpotsLeft reports the remaining capacity, never below zero.
func (a Activity) SpotsLeft() int {
	left := a.MaxParticipants - len(a.Participants)
	if left < 0 {
		return 0
	}
	return left
}

// IsEnrolled reports whether email is on the roster.
func (a Activity) IsEnrolled(email string) bool {
	return a.indexOf(email) >= 0
}

func (a Activity) indexOf(email string) int {
	for i, p := range a.Participants {
		if p == email {
			return i
		}
	}
	return -1
}

func (a Activity) clone() Activity {
	out := a
	out.Participants = make([]string, len(a.Participants))
	copy(out.Participants, a.Participants)
	return out
}

// Snapshot is a detached copy of the registry. It encodes to JSON as an
// object keyed by activity name, in seed order.
type Snapshot struct {
	names      []string
	activities map[string]Activity
}

// Names returns the activity names in seed order.
func (s Snapshot) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Get returns a copy of the named activity.
func (s Snapshot) Get(name string) (Activity, bool) {
	a, ok := s.activities[name]
	if !ok {
		return Activity{}, false
	}
	return a.clone(), true
}

func (s Snapshot) Len() int {
	return len(s.names)
}

// Map returns the snapshot as a plain map. The map and its rosters are copies.
func (s Snapshot) Map() map[string]Activity {
	out := make(map[string]Activity, len(s.activities))
	for name, a := range s.activities {
		out[name] = a.clone()
	}
	return out
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.activities[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
