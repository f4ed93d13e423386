// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SeedValidationError lists every problem found in a seed document.
type SeedValidationError struct {
	Problems []string
}

func (e *SeedValidationError) Error() string {
	return fmt.Sprintf("invalid seed: %s", strings.Join(e.Problems, "; "))
}

// LoadSeed reads and validates a seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeed(data)
}

// ParseSeed validates data against the seed schema and decodes it.
func ParseSeed(data []byte) (*Seed, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(seedSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			problems = append(problems, fmt.Sprintf("%s: %s", re.Field(), re.Description()))
		}
		return nil, &SeedValidationError{Problems: problems}
	}

	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

// Validate checks the invariants JSON Schema cannot express on its own.
func (s *Seed) Validate() error {
	var problems []string
	seen := make(map[string]struct{}, len(s.Activities))
	for i, a := range s.Activities {
		if a.Name == "" {
			problems = append(problems, fmt.Sprintf("activities.%d.name: must not be empty", i))
			continue
		}
		if _, dup := seen[a.Name]; dup {
			problems = append(problems, fmt.Sprintf("activities.%d.name: duplicate activity %q", i, a.Name))
		}
		seen[a.Name] = struct{}{}
		if a.MaxParticipants < 1 {
			problems = append(problems, fmt.Sprintf("activities.%d.max_participants: must be >= 1", i))
		}
		roster := make(map[string]struct{}, len(a.Participants))
		for _, p := range a.Participants {
			if _, dup := roster[p]; dup {
				problems = append(problems, fmt.Sprintf("activities.%d.participants: duplicate participant %q", i, p))
			}
			roster[p] = struct{}{}
		}
	}
	if len(problems) > 0 {
		return &SeedValidationError{Problems: problems}
	}
	return nil
}

// Find returns the activity with the given name.
func (s *Seed) Find(name string) (*ActivitySeed, bool) {
	for i := range s.Activities {
		if s.Activities[i].Name == name {
			return &s.Activities[i], true
		}
	}
	return nil, false
}

// SaveSeed writes the seed as indented JSON.
func SaveSeed(seed *Seed, path string) error {
	data, err := json.MarshalIndent(seed, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
