// Package entitlement decides whether a user may use paid coaching sessions.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/mind-coach/internal/storage"
)

type Mode string

const (
	ModeStore    Mode = "store"
	ModeAllowAll Mode = "allow_all"
	ModeDenyAll  Mode = "deny_all"
)

// Checker reports whether userID has an active entitlement.
type Checker interface {
	Active(ctx context.Context, userID string) (bool, error)
}

// Record is the entitlement document written by the billing side.
type Record struct {
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// StoreChecker reads entitlement records from the key-value store. A missing
// record means no entitlement.
type StoreChecker struct {
	store  storage.Store
	now    func() time.Time
	logger *zap.Logger
}

func NewStoreChecker(store storage.Store, logger *zap.Logger) *StoreChecker {
	return &StoreChecker{
		store:  store,
		now:    time.Now,
		logger: logger.With(zap.String("component", "entitlement")),
	}
}

func (c *StoreChecker) Active(ctx context.Context, userID string) (bool, error) {
	rec, err := storage.GetJSON[Record](ctx, c.store, storage.EntitlementKey(userID))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		c.logger.Error("Failed to read entitlement", zap.String("user_id", userID), zap.Error(err))
		return false, fmt.Errorf("read entitlement: %w", err)
	}
	if !rec.Active {
		return false, nil
	}
	if rec.ExpiresAt != nil && !c.now().Before(*rec.ExpiresAt) {
		return false, nil
	}
	return true, nil
}

// Static answers the same for every user.
type Static bool

func (s Static) Active(context.Context, string) (bool, error) {
	return bool(s), nil
}

// New returns the checker for mode.
func New(mode Mode, store storage.Store, logger *zap.Logger) (Checker, error) {
	switch mode {
	case ModeStore, "":
		return NewStoreChecker(store, logger), nil
	case ModeAllowAll:
		return Static(true), nil
	case ModeDenyAll:
		return Static(false), nil
	}
	return nil, fmt.Errorf("unknown entitlement mode %q", mode)
}
