package storage

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// GetJSON decodes the value under key into v. It reports false when the key
// is absent or holds malformed JSON; malformed values are logged and
// otherwise treated as absent. Only backend failures are returned as errors.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, errors.Wrapf(err, "get %s", key)
	}
	if len(data) == 0 || string(data) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		zctx.From(ctx).Warn("Ignoring malformed stored value",
			zap.String("key", key),
			zap.Error(err),
		)
		return false, nil
	}
	return true, nil
}

// SetJSON encodes v and stores it under key, replacing any previous value.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal %s", key)
	}
	if err := s.Set(ctx, key, data); err != nil {
		return errors.Wrapf(err, "set %s", key)
	}
	return nil
}
