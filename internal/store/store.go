// Package store defines the persistence collaborators the race
// coordinator reads and writes: user profiles, level configuration and
// the sentence pool. The coordinator never cares what sits behind them.
package store

import (
	"context"
	"errors"

	"github.com/olanrewaju08325/typing-tester/internal/models"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrNoSentences = errors.New("no sentences for level")
)

// UserStore reads and writes cross-race progression state.
type UserStore interface {
	GetProfile(ctx context.Context, username string) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, profile *models.UserProfile) error
}

// LevelStore exposes read-only level configuration in its defined order.
type LevelStore interface {
	Levels(ctx context.Context) ([]models.LevelDefinition, error)
	Level(ctx context.Context, name string) (*models.LevelDefinition, error)
}

// SentenceStore supplies race text.
type SentenceStore interface {
	RandomSentence(ctx context.Context, level string) (string, error)
}
