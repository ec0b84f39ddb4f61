package plugins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/deskhost/internal/host"
	"github.com/desertthunder/deskhost/internal/repositories"
	"github.com/desertthunder/deskhost/internal/shared"
)

// Settings exposes the settings table as a key/value store.
type Settings struct {
	repo *repositories.SettingsRepository
}

func NewSettings(repo *repositories.SettingsRepository) *Settings {
	return &Settings{repo: repo}
}

func (s *Settings) Name() string { return "settings" }

func (s *Settings) Setup(app *host.App) error {
	if err := app.Register("settings_get", func(ctx context.Context, _ *host.App, args json.RawMessage) (any, error) {
		in, err := host.DecodeArgs[struct {
			Key string `json:"key"`
		}](args)
		if err != nil {
			return nil, err
		}
		if in.Key == "" {
			return nil, fmt.Errorf("%w: key", shared.ErrMissingArgument)
		}

		value, err := s.repo.Get(in.Key)
		if errors.Is(err, shared.ErrSettingNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return value, nil
	}); err != nil {
		return err
	}

	return app.Register("settings_set", func(ctx context.Context, _ *host.App, args json.RawMessage) (any, error) {
		in, err := host.DecodeArgs[struct {
			Key   string          `json:"key"`
			Value json.RawMessage `json:"value"`
		}](args)
		if err != nil {
			return nil, err
		}
		if in.Key == "" {
			return nil, fmt.Errorf("%w: key", shared.ErrMissingArgument)
		}

		if len(in.Value) == 0 || string(in.Value) == "null" {
			if err := s.repo.Delete(in.Key); err != nil && !errors.Is(err, shared.ErrSettingNotFound) {
				return nil, err
			}
			return nil, nil
		}
		return nil, s.repo.Set(in.Key, in.Value)
	})
}
