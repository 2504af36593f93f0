package store

import (
	"context"
	"math/rand"
	"sync"

	"github.com/olanrewaju08325/typing-tester/internal/constants"
	"github.com/olanrewaju08325/typing-tester/internal/models"
)

// MemoryStore keeps everything in process. It backs development runs
// without a database and all of the test suites.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*models.UserProfile
	levels   []models.LevelDefinition
}

func NewMemoryStore(levels []models.LevelDefinition) *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]*models.UserProfile),
		levels:   levels,
	}
}

func (s *MemoryStore) GetProfile(ctx context.Context, username string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[username]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *profile
	clone.Beaten = cloneBeaten(profile.Beaten)
	if profile.Pending != nil {
		pending := *profile.Pending
		clone.Pending = &pending
	}
	return &clone, nil
}

func (s *MemoryStore) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *profile
	clone.Beaten = cloneBeaten(profile.Beaten)
	if profile.Pending != nil {
		pending := *profile.Pending
		clone.Pending = &pending
	}
	s.profiles[profile.Username] = &clone
	return nil
}

func (s *MemoryStore) Levels(ctx context.Context) ([]models.LevelDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.LevelDefinition, len(s.levels))
	copy(out, s.levels)
	return out, nil
}

func (s *MemoryStore) Level(ctx context.Context, name string) (*models.LevelDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.levels {
		if s.levels[i].Name == name {
			level := s.levels[i]
			return &level, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) RandomSentence(ctx context.Context, level string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.levels {
		if s.levels[i].Name == level && len(s.levels[i].Sentences) > 0 {
			return s.levels[i].Sentences[rand.Intn(len(s.levels[i].Sentences))], nil
		}
	}
	// Fall back to the base pool rather than stalling a race request.
	for i := range s.levels {
		if s.levels[i].Name == constants.BaseLevel && len(s.levels[i].Sentences) > 0 {
			return s.levels[i].Sentences[rand.Intn(len(s.levels[i].Sentences))], nil
		}
	}
	return "", ErrNoSentences
}

func cloneBeaten(beaten map[string][]string) map[string][]string {
	out := make(map[string][]string, len(beaten))
	for level, names := range beaten {
		out[level] = append([]string(nil), names...)
	}
	return out
}

// DefaultLevels is the stock four-tier ladder used when no external
// level configuration is available.
func DefaultLevels() []models.LevelDefinition {
	return []models.LevelDefinition{
		{
			Name:        "beginner",
			Order:       1,
			Sentences:   []string{"The programmer eats at school.", "Typing practice makes perfect."},
			Requirement: models.LevelRequirement{WinsNeeded: 3, MinWPM: 30},
			Next:        "intermediate",
			Range:       [2]float64{0, 29},
			Reward:      "bronze_badge",
			Description: "Find your rhythm on short, simple sentences.",
		},
		{
			Name:        "intermediate",
			Order:       2,
			Sentences:   []string{"Quick fingers win slow races when the mind stays calm."},
			Requirement: models.LevelRequirement{WinsNeeded: 3, MinWPM: 50},
			Next:        "advanced",
			Range:       [2]float64{30, 49},
			Reward:      "silver_badge",
			Description: "Longer sentences, steadier pace.",
		},
		{
			Name:        "advanced",
			Order:       3,
			Sentences:   []string{"Precision under pressure separates the practiced from the lucky."},
			Requirement: models.LevelRequirement{WinsNeeded: 3, MinWPM: 60},
			Next:        "expert",
			Range:       [2]float64{50, 84},
			Reward:      "gold_badge",
			Description: "Accuracy under pressure.",
		},
		{
			Name:        "expert",
			Order:       4,
			Sentences:   []string{"Mastery is a thousand quiet repetitions nobody applauds."},
			Requirement: models.LevelRequirement{WinsNeeded: 4, MinWPM: 85},
			Range:       [2]float64{85, 9999},
			Reward:      "platinum_badge",
			Description: "The top of the ladder.",
		},
	}
}
