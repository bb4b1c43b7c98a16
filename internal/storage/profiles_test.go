package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/mind-coach/internal/models"
)

func TestProfilesCreatesDefaultsOnFirstContact(t *testing.T) {
	s := NewMemoryStorage()
	p := NewProfiles(s)
	ctx := context.Background()

	profile, err := p.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", profile.ID)
	assert.Equal(t, "supportive", profile.Preferences.CoachingStyle)
	assert.Nil(t, profile.PsychologicalProfile)

	_, err = s.Get(ctx, ProfileKey("u1"))
	require.NoError(t, err)
}

func TestProfilesUpdateShallowMerge(t *testing.T) {
	s := NewMemoryStorage()
	p := NewProfiles(s)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := p.Update(ctx, "u1", models.ProfileUpdate{PsychologicalProfile: &models.PsychologicalProfile{
		Mindset: "growth",
		Locus:   "internal",
	}})
	require.NoError(t, err)

	now = now.Add(time.Hour)
	updated, err := p.Update(ctx, "u1", models.ProfileUpdate{PsychologicalProfile: &models.PsychologicalProfile{
		Motivation: &models.Motivation{Autonomy: 4, Competence: 3, Relatedness: 2},
	}})
	require.NoError(t, err)

	psych := updated.PsychologicalProfile
	require.NotNil(t, psych)
	assert.Equal(t, "growth", psych.Mindset)
	assert.Equal(t, "internal", psych.Locus)
	require.NotNil(t, psych.Motivation)
	assert.Equal(t, 4.0, psych.Motivation.Autonomy)
	assert.Equal(t, now, updated.UpdatedAt)

	reread, err := p.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "growth", reread.PsychologicalProfile.Mindset)
}
