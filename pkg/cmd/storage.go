package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/uiactions/pkg/storage"
)

// KeyValueStorage is a protocol.KeyValueStorage the caller must close.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	HealthCheck(ctx context.Context) error
	Close() error
}

// NewKeyValueStorage opens the store for user preferences such as the
// drilldown welcome message flag. An empty url or "memory" keeps them in
// process.
//
// nolint:ireturn // storage backends are polymorphic
func NewKeyValueStorage(ctx context.Context, logger *slog.Logger, url string) (KeyValueStorage, error) {
	switch {
	case url == "" || url == "memory":
		return storage.NewMemory(), nil
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		return storage.NewRedis(ctx, logger.With("module", "redis"), url)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, url)
	}
}
