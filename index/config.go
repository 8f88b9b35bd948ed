package index

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/recgo/model"
)

// Config carries the construction parameters of every backend. Each backend
// reads the fields that apply to it.
type Config struct {
	// Dimension is the fixed vector width. Required.
	Dimension int

	// GraphDegree is the HNSW fan-out M (layer 0 allows 2*M).
	GraphDegree int
	// EfConstruction is the HNSW candidate list size during build.
	EfConstruction int
	// EfSearch is the HNSW candidate list size during search.
	EfSearch int

	// Partitions is the IVF partition count; zero means min(100, N/10), at least 1.
	Partitions int
	// Probes is the number of IVF partitions scanned per query.
	Probes int

	// Seed drives every random choice made during build.
	Seed int64
	// Workers bounds build and scan parallelism; zero means GOMAXPROCS.
	Workers int
}

// DefaultConfig holds the documented defaults.
var DefaultConfig = Config{
	GraphDegree:    32,
	EfConstruction: 200,
	EfSearch:       100,
	Probes:         8,
	Seed:           42,
}

// WithDefaults fills zero-valued tuning fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	if c.GraphDegree == 0 {
		c.GraphDegree = DefaultConfig.GraphDegree
	}
	if c.EfConstruction == 0 {
		c.EfConstruction = DefaultConfig.EfConstruction
	}
	if c.EfSearch == 0 {
		c.EfSearch = DefaultConfig.EfSearch
	}
	if c.Probes == 0 {
		c.Probes = DefaultConfig.Probes
	}
	return c
}

// Validate rejects unusable values.
func (c Config) Validate() error {
	switch {
	case c.Dimension <= 0:
		return &model.ConfigurationError{Option: "dimension", Value: c.Dimension, Reason: "must be positive"}
	case c.GraphDegree < 2:
		return &model.ConfigurationError{Option: "graph_degree", Value: c.GraphDegree, Reason: "must be at least 2"}
	case c.EfConstruction < 1:
		return &model.ConfigurationError{Option: "ef_construction", Value: c.EfConstruction, Reason: "must be positive"}
	case c.EfSearch < 1:
		return &model.ConfigurationError{Option: "ef_search", Value: c.EfSearch, Reason: "must be positive"}
	case c.Partitions < 0:
		return &model.ConfigurationError{Option: "partitions", Value: c.Partitions, Reason: "must not be negative"}
	case c.Probes < 1:
		return &model.ConfigurationError{Option: "probes", Value: c.Probes, Reason: "must be positive"}
	case c.Workers < 0:
		return &model.ConfigurationError{Option: "workers", Value: c.Workers, Reason: "must not be negative"}
	}
	return nil
}

// Factory constructs an unbuilt index from a validated Config.
type Factory func(cfg Config) (Index, error)

var (
	factoryMu sync.RWMutex
	factories = map[Kind]Factory{}
)

// Register makes a backend available to New.
//
// Backends should call this from an init() function.
func Register(kind Kind, f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[kind] = f
}

// Registered lists the available backends in name order.
func Registered() []Kind {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	kinds := make([]Kind, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// New constructs an unbuilt index of the given kind.
func New(kind Kind, cfg Config) (Index, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factoryMu.RLock()
	f, ok := factories[kind]
	factoryMu.RUnlock()
	if !ok {
		return nil, &model.ConfigurationError{Option: "index_type", Value: string(kind), Reason: fmt.Sprintf("backend not registered (have %v)", Registered())}
	}
	return f(cfg)
}
