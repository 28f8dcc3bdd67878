// Package registry holds the action factories (drilldown types) that
// dynamic actions are created from.
package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"plugin"
	"sort"
	"strings"
	"sync"

	"github.com/dukex/uiactions/pkg/license"
	"github.com/dukex/uiactions/pkg/protocol"
	"github.com/dukex/uiactions/pkg/uiactions"
)

var ErrInvalidPlugin = errors.New("invalid plugin")

type Registry struct {
	logger *slog.Logger

	mu        sync.RWMutex
	factories map[string]protocol.ActionFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:    log.With("module", "registry"),
		factories: make(map[string]protocol.ActionFactory),
	}
}

// LoadDrilldownPlugins opens every shared object under <pluginsPath>/drilldowns
// and returns the value each one exports as Drilldown.
func (r *Registry) LoadDrilldownPlugins(pluginsPath string) ([]protocol.Drilldown, error) {
	return loadPlugin[protocol.Drilldown](r.logger, pluginsPath, "Drilldown")
}

// Register adds factory. Factory ids are unique.
func (r *Registry) Register(factory protocol.ActionFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[factory.ID()]; exists {
		return &uiactions.RegistryError{
			Op:      "RegisterFactory",
			Err:     uiactions.ErrDuplicateRegistration,
			Message: fmt.Sprintf("ActionFactory [actionFactory.id = %s] already registered.", factory.ID()),
		}
	}

	r.factories[factory.ID()] = factory
	r.logger.Debug("Registered action factory", "factory_id", factory.ID())

	return nil
}

// RegisterDrilldown wraps drilldown into an ActionFactory gated by checker
// and registers it.
func (r *Registry) RegisterDrilldown(drilldown protocol.Drilldown, checker license.Checker) error {
	factory, err := NewActionFactory(drilldown, checker)
	if err != nil {
		return err
	}

	return r.Register(factory)
}

// Get returns the factory registered under id.
//
// nolint:ireturn // factories are polymorphic
func (r *Registry) Get(id string) (protocol.ActionFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[id]
	if !ok {
		return nil, &uiactions.RegistryError{
			Op:      "GetFactory",
			Err:     uiactions.ErrNotFound,
			Message: fmt.Sprintf("Action factory [actionFactoryId = %s] does not exist.", id),
		}
	}

	return factory, nil
}

func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[id]

	return ok
}

// List returns all factories, highest order first, then by id.
func (r *Registry) List() []protocol.ActionFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factories := make([]protocol.ActionFactory, 0, len(r.factories))
	for _, factory := range r.factories {
		factories = append(factories, factory)
	}

	sort.Slice(factories, func(i, j int) bool {
		if factories[i].Order() != factories[j].Order() {
			return factories[i].Order() > factories[j].Order()
		}

		return factories[i].ID() < factories[j].ID()
	})

	return factories
}

func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories = make(map[string]protocol.ActionFactory)
}

func loadPlugin[T any](logger *slog.Logger, pluginsPath string, symbolName string) ([]T, error) {
	rootPath := pluginsPath + "/" + strings.ToLower(symbolName) + "s"
	root := os.DirFS(rootPath)

	pluginPathList, err := fs.Glob(root, "*.so")
	if err != nil {
		return nil, err
	}

	l := logger.With(slog.String("path", pluginsPath), slog.String("type", symbolName))
	l.Info("Loading plugins")

	pluginList := make([]T, 0, len(pluginPathList))
	for _, p := range pluginPathList {
		plg, err := plugin.Open(rootPath + "/" + p)
		if err != nil {
			return nil, fmt.Errorf("open plugin %s: %w", p, err)
		}

		v, err := plg.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("lookup %s in %s: %w", symbolName, p, err)
		}

		// Exported variables come back as pointers.
		switch value := v.(type) {
		case T:
			pluginList = append(pluginList, value)
		case *T:
			pluginList = append(pluginList, *value)
		default:
			return nil, fmt.Errorf("%w: %s does not export a %s", ErrInvalidPlugin, p, symbolName)
		}

		l.Info("Loaded plugin", slog.String("plugin", p))
	}

	return pluginList, nil
}
