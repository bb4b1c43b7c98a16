package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xaenox/mind-coach/internal/models"
)

// Profiles reads and merges user profiles. Updates are read-modify-write with
// last-write-wins semantics; the store's per-key atomicity is the only guard.
type Profiles struct {
	store Store
	now   func() time.Time
}

func NewProfiles(store Store) *Profiles {
	return &Profiles{store: store, now: time.Now}
}

// Get returns the user's profile, creating it with defaults on first contact.
func (p *Profiles) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := GetJSON[models.UserProfile](ctx, p.store, ProfileKey(userID))
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	fresh := models.NewUserProfile(userID, p.now())
	if err := PutJSON(ctx, p.store, ProfileKey(userID), fresh); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return fresh, nil
}

// Update merges u into the stored profile and writes it back.
func (p *Profiles) Update(ctx context.Context, userID string, u models.ProfileUpdate) (*models.UserProfile, error) {
	profile, err := p.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.Merge(u, p.now())
	if err := PutJSON(ctx, p.store, ProfileKey(userID), profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}
