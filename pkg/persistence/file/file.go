// Package file provides file-based persistence for dynamic action events.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/persistence"
)

const eventsDir = "events"

// Persistence implements persistence.EventStorage with one JSON file per event.
type Persistence struct {
	root string
	mu   sync.Mutex
}

type storedEvent struct {
	models.SerializedEvent

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

var _ persistence.EventStorage = (*Persistence)(nil)

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// GetAll returns every stored event, oldest first.
func (fp *Persistence) GetAll(_ context.Context) ([]models.SerializedEvent, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	jsonFiles, err := fs.Glob(os.DirFS(path.Join(fp.root, eventsDir)), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list event files: %w", err)
	}

	stored := make([]storedEvent, 0, len(jsonFiles))
	for _, file := range jsonFiles {
		event, err := fp.read(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		stored = append(stored, event)
	}

	sort.SliceStable(stored, func(i, j int) bool {
		return stored[i].CreatedAt.Before(stored[j].CreatedAt)
	})

	events := make([]models.SerializedEvent, 0, len(stored))
	for _, event := range stored {
		events = append(events, event.SerializedEvent)
	}

	return events, nil
}

func (fp *Persistence) Get(_ context.Context, eventID string) (models.SerializedEvent, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	event, err := fp.read(eventID)
	if err != nil {
		return models.SerializedEvent{}, err
	}

	return event.SerializedEvent, nil
}

func (fp *Persistence) Create(_ context.Context, event models.SerializedEvent) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	_, err := os.Stat(fp.eventPath(event.EventID))
	if err == nil {
		return persistence.NewEventError("Create", event.EventID, persistence.ErrEventAlreadyExists)
	}

	now := time.Now().UTC()

	return fp.write(storedEvent{SerializedEvent: event, CreatedAt: now, UpdatedAt: now})
}

func (fp *Persistence) Update(_ context.Context, event models.SerializedEvent) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	existing, err := fp.read(event.EventID)
	if err != nil {
		return err
	}

	existing.SerializedEvent = event
	existing.UpdatedAt = time.Now().UTC()

	return fp.write(existing)
}

func (fp *Persistence) Delete(_ context.Context, eventID string) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	err := os.Remove(fp.eventPath(eventID))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewEventError("Delete", eventID, persistence.ErrEventNotFound)
		}

		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}

	return nil
}

func (fp *Persistence) eventPath(eventID string) string {
	return filepath.Clean(path.Join(fp.root, eventsDir, eventID+".json"))
}

func (fp *Persistence) read(eventID string) (storedEvent, error) {
	body, err := os.ReadFile(fp.eventPath(eventID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storedEvent{}, persistence.NewEventError("Get", eventID, persistence.ErrEventNotFound)
		}

		return storedEvent{}, fmt.Errorf("failed to fetch event %s: %w", eventID, err)
	}

	var event storedEvent

	err = json.Unmarshal(body, &event)
	if err != nil {
		return storedEvent{}, fmt.Errorf("failed to unmarshal event %s: %w", eventID, err)
	}

	return event, nil
}

func (fp *Persistence) write(event storedEvent) error {
	err := os.MkdirAll(path.Join(fp.root, eventsDir), 0750)
	if err != nil {
		return fmt.Errorf("failed to create events directory: %w", err)
	}

	data, err := json.MarshalIndent(event, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.EventID, err)
	}

	return os.WriteFile(fp.eventPath(event.EventID), data, 0600)
}
