// Package postgresql provides PostgreSQL persistence for dynamic action events.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/persistence"
	"github.com/dukex/uiactions/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db        *sql.DB
	logger    *slog.Logger
	eventRepo *EventRepository
}

var _ persistence.EventStorage = (*Persistence)(nil)

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Run migrations on initialization
	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:        database,
		logger:    logger,
		eventRepo: NewEventRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) GetAll(ctx context.Context) ([]models.SerializedEvent, error) {
	return p.eventRepo.GetAll(ctx)
}

func (p *Persistence) Get(ctx context.Context, eventID string) (models.SerializedEvent, error) {
	return p.eventRepo.GetByID(ctx, eventID)
}

func (p *Persistence) Create(ctx context.Context, event models.SerializedEvent) error {
	return p.eventRepo.Insert(ctx, event)
}

func (p *Persistence) Update(ctx context.Context, event models.SerializedEvent) error {
	return p.eventRepo.Update(ctx, event)
}

func (p *Persistence) Delete(ctx context.Context, eventID string) error {
	return p.eventRepo.Delete(ctx, eventID)
}
