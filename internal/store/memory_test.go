package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olanrewaju08325/typing-tester/internal/models"
)

func TestMemoryStoreProfileRoundTrip(t *testing.T) {
	mem := NewMemoryStore(DefaultLevels())
	ctx := context.Background()

	_, err := mem.GetProfile(ctx, "ada")
	assert.ErrorIs(t, err, ErrNotFound)

	profile := &models.UserProfile{
		Username: "ada",
		Plan:     "free",
		Level:    "beginner",
		Beaten:   map[string][]string{"beginner": {"bob"}},
	}
	require.NoError(t, mem.SaveProfile(ctx, profile))

	loaded, err := mem.GetProfile(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, profile.Beaten, loaded.Beaten)

	// Mutating the loaded copy must not leak back into the store.
	loaded.Beaten["beginner"] = append(loaded.Beaten["beginner"], "cleo")
	again, err := mem.GetProfile(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, again.Beaten["beginner"])
}

func TestMemoryStoreLevels(t *testing.T) {
	mem := NewMemoryStore(DefaultLevels())
	ctx := context.Background()

	levels, err := mem.Levels(ctx)
	require.NoError(t, err)
	require.Len(t, levels, 4)
	assert.Equal(t, "beginner", levels[0].Name)
	assert.Empty(t, levels[3].Next, "expert is terminal")

	level, err := mem.Level(ctx, "advanced")
	require.NoError(t, err)
	assert.Equal(t, 3, level.Requirement.WinsNeeded)

	_, err = mem.Level(ctx, "mythic")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreRandomSentence(t *testing.T) {
	mem := NewMemoryStore(DefaultLevels())
	ctx := context.Background()

	sentence, err := mem.RandomSentence(ctx, "beginner")
	require.NoError(t, err)
	assert.NotEmpty(t, sentence)

	// Unknown level falls back to the base pool.
	sentence, err = mem.RandomSentence(ctx, "mythic")
	require.NoError(t, err)
	assert.NotEmpty(t, sentence)

	empty := NewMemoryStore(nil)
	_, err = empty.RandomSentence(ctx, "beginner")
	assert.ErrorIs(t, err, ErrNoSentences)
}
