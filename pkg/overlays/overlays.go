// Package overlays keeps the context menus opened when a trigger has
// several compatible actions, so they can be picked from or dismissed later.
package overlays

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/protocol"
	"github.com/google/uuid"
)

var ErrMenuNotFound = errors.New("menu not found")

// DefaultCapacity bounds the number of menus a Store keeps open.
const DefaultCapacity = 100

type openedKey struct{}

// Opened receives the id of a menu opened with its context.
type Opened struct {
	mu sync.Mutex
	id string
}

func (o *Opened) MenuID() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.id
}

// WithOpened returns a context whose opened menus are recorded in the
// returned Opened.
func WithOpened(ctx context.Context) (context.Context, *Opened) {
	opened := &Opened{}

	return context.WithValue(ctx, openedKey{}, opened), opened
}

type menu struct {
	panel    *models.ContextMenuPanel
	openedAt time.Time
	seq      uint64
}

// MenuView is a snapshot of an open menu.
type MenuView struct {
	models.ContextMenuPanel

	OpenedAt time.Time `json:"opened_at"`
}

// Store implements protocol.Overlay with menus held in memory. Once
// capacity menus are open, opening another evicts the oldest.
type Store struct {
	logger   *slog.Logger
	capacity int

	mu    sync.RWMutex
	menus map[string]*menu
	seq   uint64
}

var _ protocol.Overlay = (*Store)(nil)

type Option func(*Store)

// WithCapacity sets how many menus stay open. Values below one are ignored.
func WithCapacity(capacity int) Option {
	return func(s *Store) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

func NewStore(logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		logger:   logger.With("module", "overlays"),
		capacity: DefaultCapacity,
		menus:    make(map[string]*menu),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Open stores panel under a new id.
func (s *Store) Open(ctx context.Context, panel *models.ContextMenuPanel) (protocol.OverlaySession, error) {
	panel.ID = uuid.New().String()

	s.mu.Lock()
	s.seq++
	s.menus[panel.ID] = &menu{panel: panel, openedAt: time.Now().UTC(), seq: s.seq}
	evicted := s.evictLocked()
	s.mu.Unlock()

	for _, id := range evicted {
		s.logger.DebugContext(ctx, "Evicted context menu", "menu_id", id)
	}

	if opened, ok := ctx.Value(openedKey{}).(*Opened); ok {
		opened.mu.Lock()
		opened.id = panel.ID
		opened.mu.Unlock()
	}

	s.logger.DebugContext(ctx, "Opened context menu", "menu_id", panel.ID, "items", len(panel.Items))

	return &session{store: s, id: panel.ID}, nil
}

func (s *Store) Get(id string) (MenuView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.menus[id]
	if !ok {
		return MenuView{}, fmt.Errorf("%w: %s", ErrMenuNotFound, id)
	}

	return MenuView{ContextMenuPanel: *m.panel, OpenedAt: m.openedAt}, nil
}

// List returns the open menus, oldest first.
func (s *Store) List() []MenuView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	menus := slices.Collect(maps.Values(s.menus))
	slices.SortFunc(menus, func(a, b *menu) int {
		return cmp.Compare(a.seq, b.seq)
	})

	views := make([]MenuView, 0, len(menus))
	for _, m := range menus {
		views = append(views, MenuView{ContextMenuPanel: *m.panel, OpenedAt: m.openedAt})
	}

	return views
}

// Select runs the item of menu id bound to actionID. The menu is closed
// before the item runs, so concurrent selections run it at most once.
func (s *Store) Select(ctx context.Context, id, actionID string) error {
	s.mu.Lock()

	m, ok := s.menus[id]
	if !ok {
		s.mu.Unlock()

		return fmt.Errorf("%w: %s", ErrMenuNotFound, id)
	}

	if !slices.ContainsFunc(m.panel.Items, func(item models.ContextMenuItem) bool {
		return item.ActionID == actionID
	}) {
		s.mu.Unlock()

		return fmt.Errorf("%w: %s", models.ErrMenuItemNotFound, actionID)
	}

	delete(s.menus, id)
	s.mu.Unlock()

	return m.panel.Select(ctx, actionID)
}

// Cancel closes menu id without running anything.
func (s *Store) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.menus[id]; !ok {
		return fmt.Errorf("%w: %s", ErrMenuNotFound, id)
	}

	delete(s.menus, id)
	s.logger.Debug("Cancelled context menu", "menu_id", id)

	return nil
}

// evictLocked drops the oldest menus beyond capacity and returns their ids.
func (s *Store) evictLocked() []string {
	if len(s.menus) <= s.capacity {
		return nil
	}

	menus := slices.Collect(maps.Values(s.menus))
	slices.SortFunc(menus, func(a, b *menu) int {
		return cmp.Compare(a.seq, b.seq)
	})

	evicted := make([]string, 0, len(menus)-s.capacity)
	for _, m := range menus[:len(menus)-s.capacity] {
		delete(s.menus, m.panel.ID)
		evicted = append(evicted, m.panel.ID)
	}

	return evicted
}

func (s *Store) close(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.menus, id)
}

type session struct {
	store *Store
	id    string
}

func (s *session) Close() {
	s.store.close(s.id)
}
