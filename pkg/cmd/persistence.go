package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dukex/uiactions/pkg/persistence"
	"github.com/dukex/uiactions/pkg/persistence/file"
	"github.com/dukex/uiactions/pkg/persistence/postgresql"
)

var supportedPersistenceProviders = []string{"file", "postgres", "postgresql"}

// NewPersistence opens the event storage named by databaseURL. URLs without
// a known scheme are treated as a directory for file storage.
//
// nolint:ireturn // storage backends are polymorphic
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.EventStorage, error) {
	provider := parsePersistenceProvider(databaseURL)

	logger.InfoContext(ctx, "Opening event storage", "provider", provider)

	switch provider {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger.With("module", "postgresql"), databaseURL)
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.Split(databaseURL, "://")

	provider := parts[0]
	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
