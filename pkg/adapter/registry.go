package adapter

import (
	"errors"
	"regexp"
	"sort"
	"sync"

	"github.com/redbco/redb-dbaccess/pkg/dbcapabilities"
	"github.com/redbco/redb-dbaccess/pkg/logger"
)

// Options carries collaborators handed to a driver constructor.
type Options struct {
	Logger *logger.Logger
}

// Option configures Options.
type Option func(*Options)

// WithLogger sets the logger a driver reports connection events to.
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// Constructor builds a driver for one backend family. Constructors must not
// connect; connection happens lazily.
type Constructor func(cfg Config, opts Options) (Driver, error)

var invalidNameChars = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)

// SanitizeName strips every character outside [A-Za-z0-9_.-] from a driver name.
func SanitizeName(name string) string {
	return invalidNameChars.ReplaceAllString(name, "")
}

// Registry manages the registration and retrieval of driver constructors.
type Registry struct {
	constructors map[dbcapabilities.DatabaseID]Constructor
	mu           sync.RWMutex
}

// NewRegistry creates a new driver registry.
func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[dbcapabilities.DatabaseID]Constructor),
	}
}

// Register registers a constructor for a backend family.
// If a constructor for the same database type is already registered, it will be replaced.
func (r *Registry) Register(dbType dbcapabilities.DatabaseID, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.constructors[dbType] = ctor
}

// Lookup resolves a free-form driver name to its canonical tag and constructor.
// Returns an UnsupportedAdapterError if no variant matches.
func (r *Registry) Lookup(name string) (dbcapabilities.DatabaseID, Constructor, error) {
	clean := SanitizeName(name)

	dbType, ok := dbcapabilities.ParseID(clean)
	if !ok {
		return "", nil, &UnsupportedAdapterError{Name: clean}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ctor, exists := r.constructors[dbType]
	if !exists {
		return "", nil, &UnsupportedAdapterError{Name: clean}
	}

	return dbType, ctor, nil
}

// IsRegistered checks if a constructor is registered for the given database type.
func (r *Registry) IsRegistered(dbType dbcapabilities.DatabaseID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.constructors[dbType]
	return exists
}

// ListRegistered returns all registered database types in lexical order.
func (r *Registry) ListRegistered() []dbcapabilities.DatabaseID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]dbcapabilities.DatabaseID, 0, len(r.constructors))
	for dbType := range r.constructors {
		types = append(types, dbType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// Unregister removes a constructor from the registry.
func (r *Registry) Unregister(dbType dbcapabilities.DatabaseID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.constructors, dbType)
}

// Clear removes all constructors from the registry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.constructors = make(map[dbcapabilities.DatabaseID]Constructor)
}

// GetDriver resolves name to a registered variant and constructs it with a
// copy of cfg. Unknown names fail with UnsupportedAdapterError; constructor
// failures are surfaced as ConnectionError keeping the original cause and code.
func (r *Registry) GetDriver(name string, cfg Config, opts ...Option) (Driver, error) {
	dbType, ctor, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}

	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	cfg = cfg.Clone()
	cfg.Driver = string(dbType)

	drv, err := ctor(cfg, o)
	if err != nil {
		var connErr *ConnectionError
		if errors.As(err, &connErr) {
			return nil, err
		}
		return nil, NewConnectionError(dbType, cfg.Host, cfg.Port, err).
			WithMessage("unable to connect to the database")
	}

	return drv, nil
}

// globalRegistry is the default driver registry variants register into.
var globalRegistry = NewRegistry()

// Register registers a constructor in the global registry.
func Register(dbType dbcapabilities.DatabaseID, ctor Constructor) {
	globalRegistry.Register(dbType, ctor)
}

// GetDriver constructs a driver from the global registry.
func GetDriver(name string, cfg Config, opts ...Option) (Driver, error) {
	return globalRegistry.GetDriver(name, cfg, opts...)
}

// IsRegistered checks if a constructor is registered in the global registry.
func IsRegistered(dbType dbcapabilities.DatabaseID) bool {
	return globalRegistry.IsRegistered(dbType)
}

// ListRegistered returns all registered database types from the global registry.
func ListRegistered() []dbcapabilities.DatabaseID {
	return globalRegistry.ListRegistered()
}

// GlobalRegistry returns the global driver registry.
func GlobalRegistry() *Registry {
	return globalRegistry
}
