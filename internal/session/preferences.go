package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"spendly/internal/log"
	"spendly/internal/storage"
)

// Preferences stores display settings next to the session.
type Preferences struct {
	kv     storage.KV
	logger *log.Logger
}

func NewPreferences(kv storage.KV, logger *log.Logger) *Preferences {
	if logger == nil {
		logger = log.Discard()
	}
	return &Preferences{kv: kv, logger: logger.WithComponent(log.ComponentSession)}
}

// DarkMode reports the theme preference. Dark is the default when nothing
// usable is stored.
func (p *Preferences) DarkMode(ctx context.Context) bool {
	raw, err := p.kv.Get(ctx, KeyDarkMode)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			p.logger.WarnContext(ctx, "Preference read failed", log.FieldError, err.Error())
		}
		return true
	}
	dark, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return dark
}

func (p *Preferences) SetDarkMode(ctx context.Context, dark bool) error {
	if err := p.kv.Set(ctx, KeyDarkMode, strconv.FormatBool(dark)); err != nil {
		return fmt.Errorf("save theme preference: %w", err)
	}
	return nil
}

// ToggleDarkMode flips the theme and returns the new value.
func (p *Preferences) ToggleDarkMode(ctx context.Context) (bool, error) {
	dark := !p.DarkMode(ctx)
	if err := p.SetDarkMode(ctx, dark); err != nil {
		return !dark, err
	}
	return dark, nil
}
