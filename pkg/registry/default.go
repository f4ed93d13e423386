// pkg/registry/default.go
package registry

// DefaultSeed returns the built-in Mergington High School catalogue.
// Each call returns a fresh copy.
func DefaultSeed() *Seed {
	return &Seed{
		Version: "1.0.0",
		Activities: []ActivitySeed{
			{
				Name:            "Chess Club",
				Description:     "Learn strategies and compete in chess tournaments",
				Schedule:        "Fridays, 3:30 PM - 5:00 PM",
				MaxParticipants: 12,
				Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
			},
			{
				Name:            "Programming Class",
				Description:     "Learn programming fundamentals and build software projects",
				Schedule:        "Tuesdays and Thursdays, 3:30 PM - 4:30 PM",
				MaxParticipants: 20,
				Participants:    []string{"emma@mergington.edu", "sophia@mergington.edu"},
			},
			{
				Name:            "Gym Class",
				Description:     "Physical education and sports activities",
				Schedule:        "Mondays, Wednesdays, Fridays, 2:00 PM - 3:00 PM",
				MaxParticipants: 30,
				Participants:    []string{"john@mergington.edu", "olivia@mergington.edu"},
			},
			{
				Name:            "Basketball",
				Description:     "Learn basketball skills and participate in friendly games",
				Schedule:        "Mondays and Wednesdays, 4:00 PM - 5:30 PM",
				MaxParticipants: 15,
				Participants:    []string{"james@mergington.edu"},
			},
			{
				Name:            "Tennis Club",
				Description:     "Tennis coaching and competitive matches",
				Schedule:        "Tuesdays and Thursdays, 4:00 PM - 5:30 PM",
				MaxParticipants: 8,
				Participants:    []string{"alex@mergington.edu"},
			},
			{
				Name:            "Art Studio",
				Description:     "Painting, drawing, and mixed media art projects",
				Schedule:        "Wednesdays and Fridays, 3:30 PM - 5:00 PM",
				MaxParticipants: 18,
				Participants:    []string{"isabella@mergington.edu", "grace@mergington.edu"},
			},
			{
				Name:            "Drama Club",
				Description:     "Theater performances and acting workshops",
				Schedule:        "Mondays and Thursdays, 3:30 PM - 5:00 PM",
				MaxParticipants: 25,
				Participants:    []string{"lucas@mergington.edu"},
			},
			{
				Name:            "Debate Team",
				Description:     "Competitive debate and public speaking skills",
				Schedule:        "Tuesdays, 3:30 PM - 5:00 PM",
				MaxParticipants: 16,
				Participants:    []string{"aaron@mergington.edu", "mia@mergington.edu"},
			},
			{
				Name:            "Science Olympiad",
				Description:     "STEM competitions and scientific research projects",
				Schedule:        "Fridays, 3:30 PM - 5:00 PM",
				MaxParticipants: 20,
				Participants:    []string{"ryan@mergington.edu"},
			},
		},
	}
}
