package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing input; the client can correct it.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing entity or one that belongs to another user.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when no authenticated identity is present.
	ErrUnauthorized = errors.New("unauthorized")

	ErrStoryNotFound       = fmt.Errorf("story %w", ErrNotFound)
	ErrLevelNotFound       = fmt.Errorf("level %w", ErrNotFound)
	ErrScenarioNotFound    = fmt.Errorf("scenario %w", ErrNotFound)
	ErrProgressNotFound    = fmt.Errorf("progress %w", ErrNotFound)
	ErrProfileNotFound     = fmt.Errorf("profile %w", ErrNotFound)
	ErrBadgeNotFound       = fmt.Errorf("badge %w", ErrNotFound)
	ErrPowerUpNotFound     = fmt.Errorf("power-up %w", ErrNotFound)
	ErrGrantNotFound       = fmt.Errorf("user power-up %w", ErrNotFound)
	ErrGameSessionNotFound = fmt.Errorf("game session %w", ErrNotFound)
	ErrInviteNotFound      = fmt.Errorf("invite %w", ErrNotFound)
	ErrAnimationNotFound   = fmt.Errorf("animation %w", ErrNotFound)

	// ErrPowerUpAlreadyUsed is reported to every redeemer after the first one.
	ErrPowerUpAlreadyUsed = fmt.Errorf("power-up already used: %w", ErrNotFound)

	// ErrInviteExpired is a validation error so clients can ask for a new invite.
	ErrInviteExpired = fmt.Errorf("%w: invite has expired", ErrValidation)
)

// Invalidf returns an ErrValidation with a descriptive message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
