package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/persistence"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// EventRepository handles dynamic action event database operations.
type EventRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *sql.DB, logger *slog.Logger) *EventRepository {
	return &EventRepository{db: db, logger: logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// GetAll returns all events, oldest first.
func (r *EventRepository) GetAll(ctx context.Context) ([]models.SerializedEvent, error) {
	query := `
		SELECT
			id
		  , factory_id
		  , name
		  , config
		  , triggers
		FROM dynamic_action_events
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	events := make([]models.SerializedEvent, 0)

	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		events = append(events, event)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

func (r *EventRepository) GetByID(ctx context.Context, eventID string) (models.SerializedEvent, error) {
	query := `
		SELECT
			id
		  , factory_id
		  , name
		  , config
		  , triggers
		FROM dynamic_action_events
		WHERE id = $1
	`

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SerializedEvent{}, persistence.NewEventError("Get", eventID, persistence.ErrEventNotFound)
		}

		return models.SerializedEvent{}, fmt.Errorf("failed to scan event: %w", err)
	}

	return event, nil
}

// Insert stores a new event.
func (r *EventRepository) Insert(ctx context.Context, event models.SerializedEvent) error {
	config, triggers, err := marshalEvent(event)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO dynamic_action_events (id, factory_id, name, config, triggers, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`

	_, err = r.db.ExecContext(ctx, query, event.EventID, event.Action.FactoryID, event.Action.Name, config, triggers, now)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return persistence.NewEventError("Create", event.EventID, persistence.ErrEventAlreadyExists)
		}

		return fmt.Errorf("failed to insert event %s: %w", event.EventID, err)
	}

	return nil
}

// Update replaces the action and triggers of an existing event.
func (r *EventRepository) Update(ctx context.Context, event models.SerializedEvent) error {
	config, triggers, err := marshalEvent(event)
	if err != nil {
		return err
	}

	query := `
		UPDATE dynamic_action_events
		SET factory_id = $2, name = $3, config = $4, triggers = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		event.EventID, event.Action.FactoryID, event.Action.Name, config, triggers, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update event %s: %w", event.EventID, err)
	}

	return requireAffected(result, "Update", event.EventID)
}

func (r *EventRepository) Delete(ctx context.Context, eventID string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM dynamic_action_events WHERE id = $1", eventID)
	if err != nil {
		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}

	return requireAffected(result, "Delete", eventID)
}

func requireAffected(result sql.Result, op, eventID string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.NewEventError(op, eventID, persistence.ErrEventNotFound)
	}

	return nil
}

func marshalEvent(event models.SerializedEvent) ([]byte, []byte, error) {
	config := event.Action.Config
	if config == nil {
		config = map[string]any{}
	}

	configJSON, err := json.Marshal(config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal config of event %s: %w", event.EventID, err)
	}

	triggers := event.Triggers
	if triggers == nil {
		triggers = []string{}
	}

	triggersJSON, err := json.Marshal(triggers)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal triggers of event %s: %w", event.EventID, err)
	}

	return configJSON, triggersJSON, nil
}

func scanEvent(row rowScanner) (models.SerializedEvent, error) {
	var (
		event                    models.SerializedEvent
		configJSON, triggersJSON []byte
	)

	err := row.Scan(&event.EventID, &event.Action.FactoryID, &event.Action.Name, &configJSON, &triggersJSON)
	if err != nil {
		return models.SerializedEvent{}, err
	}

	err = json.Unmarshal(configJSON, &event.Action.Config)
	if err != nil {
		return models.SerializedEvent{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	err = json.Unmarshal(triggersJSON, &event.Triggers)
	if err != nil {
		return models.SerializedEvent{}, fmt.Errorf("failed to unmarshal triggers: %w", err)
	}

	return event, nil
}
