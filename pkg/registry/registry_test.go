// pkg/registry/registry_test.go
package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSeed(t *testing.T) {
	seed := DefaultSeed()
	require.NoError(t, seed.Validate())
	assert.Len(t, seed.Activities, 9)

	chess, ok := seed.Find("Chess Club")
	require.True(t, ok)
	assert.Equal(t, 12, chess.MaxParticipants)
	assert.Equal(t, []string{"michael@mergington.edu", "daniel@mergington.edu"}, chess.Participants)

	// callers get independent copies
	chess.Participants[0] = "someone@else.edu"
	fresh, _ := DefaultSeed().Find("Chess Club")
	assert.Equal(t, "michael@mergington.edu", fresh.Participants[0])
}

func TestSaveAndLoadSeed_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, SaveSeed(DefaultSeed(), path))

	loaded, err := LoadSeed(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultSeed().Activities, loaded.Activities)
}

func TestLoadSeed_MissingFile(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestParseSeed_SchemaViolations(t *testing.T) {
	tests := []struct {
		name        string
		doc         string
		wantProblem string
	}{
		{
			name:        "missing activities",
			doc:         `{"version":"1"}`,
			wantProblem: "activities",
		},
		{
			name:        "zero capacity",
			doc:         `{"activities":[{"name":"Chess Club","description":"","schedule":"","max_participants":0,"participants":[]}]}`,
			wantProblem: "max_participants",
		},
		{
			name:        "fractional capacity",
			doc:         `{"activities":[{"name":"Chess Club","description":"","schedule":"","max_participants":1.5,"participants":[]}]}`,
			wantProblem: "max_participants",
		},
		{
			name:        "duplicate participants",
			doc:         `{"activities":[{"name":"Chess Club","description":"","schedule":"","max_participants":3,"participants":["a","a"]}]}`,
			wantProblem: "participants",
		},
		{
			name:        "unknown field",
			doc:         `{"activities":[{"name":"Chess Club","description":"","schedule":"","max_participants":3,"participants":[],"room":"B12"}]}`,
			wantProblem: "room",
		},
		{
			name:        "missing schedule",
			doc:         `{"activities":[{"name":"Chess Club","description":"","max_participants":3,"participants":[]}]}`,
			wantProblem: "schedule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed, err := ParseSeed([]byte(tt.doc))
			assert.Nil(t, seed)

			var verr *SeedValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.NotEmpty(t, verr.Problems)
			assert.Contains(t, verr.Error(), tt.wantProblem)
		})
	}
}

func TestParseSeed_DuplicateActivityNames(t *testing.T) {
	doc := `{"activities":[
		{"name":"Chess Club","description":"","schedule":"","max_participants":3,"participants":[]},
		{"name":"Chess Club","description":"","schedule":"","max_participants":4,"participants":[]}
	]}`

	_, err := ParseSeed([]byte(doc))
	var verr *SeedValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems[0], `duplicate activity "Chess Club"`)
}

func TestParseSeed_NotJSON(t *testing.T) {
	_, err := ParseSeed([]byte("activities: []"))
	assert.Error(t, err)
}

func TestSeedValidate_CollectsAllProblems(t *testing.T) {
	seed := &Seed{Activities: []ActivitySeed{
		{Name: "", MaxParticipants: 1},
		{Name: "Band", MaxParticipants: 0, Participants: []string{"x", "x"}},
	}}

	err := seed.Validate()
	var verr *SeedValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 3)
}
