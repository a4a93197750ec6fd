package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fastcode/fastshell/internal/infrastructure/monitoring"
	"github.com/fastcode/fastshell/internal/shared/types"
	"github.com/fastcode/fastshell/internal/shared/utils"
)

var (
	ErrInvalidToolID   = errors.New("invalid tool ID format")
	ErrServiceNotFound = errors.New("service not found")
)

// Registry manages service discovery and execution
type Registry struct {
	services sync.Map // map[string]Provider
	metrics  *monitoring.Metrics
	log      *zap.Logger
}

// Provider interface for service implementations
type Provider interface {
	Definition() types.Service
	Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error)
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics records every tool execution.
func WithMetrics(m *monitoring.Metrics) Option { return func(r *Registry) { r.metrics = m } }

// WithLogger sets the registry logger.
func WithLogger(log *zap.Logger) Option { return func(r *Registry) { r.log = log } }

// NewRegistry creates a new service registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a service provider
func (r *Registry) Register(provider Provider) error {
	def := provider.Definition()
	if def.ID == "" {
		return fmt.Errorf("service ID cannot be empty")
	}
	if _, loaded := r.services.LoadOrStore(def.ID, provider); loaded {
		return fmt.Errorf("service already registered: %s", def.ID)
	}
	r.log.Debug("service registered", zap.String("service", def.ID), zap.Int("tools", len(def.Tools)))
	return nil
}

// Unregister removes a service provider
func (r *Registry) Unregister(serviceID string) {
	r.services.Delete(serviceID)
}

// Get retrieves a service by ID
func (r *Registry) Get(serviceID string) (Provider, bool) {
	val, ok := r.services.Load(serviceID)
	if !ok {
		return nil, false
	}
	return val.(Provider), true
}

// List returns all registered services ordered by ID
func (r *Registry) List(category *types.Category) []types.Service {
	services := []types.Service{}
	r.services.Range(func(_, value interface{}) bool {
		def := value.(Provider).Definition()
		if category == nil || def.Category == *category {
			services = append(services, def)
		}
		return true
	})
	sort.Slice(services, func(i, j int) bool {
		return services[i].ID < services[j].ID
	})
	return services
}

// Discover finds relevant services for a given intent
func (r *Registry) Discover(intent string, limit int) []types.Service {
	type scoredService struct {
		service types.Service
		score   float64
	}

	intentLower := strings.ToLower(intent)
	var results []scoredService

	r.services.Range(func(_, value interface{}) bool {
		def := value.(Provider).Definition()
		if score := relevance(intentLower, def); score > 0 {
			results = append(results, scoredService{service: def, score: score})
		}
		return true
	})

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].service.ID < results[j].service.ID
	})

	output := make([]types.Service, 0, limit)
	for i := 0; i < len(results) && i < limit; i++ {
		output = append(output, results[i].service)
	}
	return output
}

// Execute runs a service tool
func (r *Registry) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	if err := utils.ValidateToolID(toolID, "tool_id", true); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToolID, err)
	}
	serviceID, _, ok := strings.Cut(toolID, ".")
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToolID, toolID)
	}

	provider, ok := r.Get(serviceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, serviceID)
	}

	timer := monitoring.NewTimer(r.metrics, serviceID, toolID)
	result, err := provider.Execute(ctx, toolID, params, appCtx)

	status := "success"
	switch {
	case err != nil:
		status = "error"
		r.log.Warn("tool execution failed", zap.String("tool", toolID), zap.Error(err))
	case result == nil || !result.Success:
		status = "failure"
	}
	timer.Stop(status)
	return result, err
}

// Stats returns registry statistics
func (r *Registry) Stats() map[string]interface{} {
	var total, totalTools int
	categories := make(map[string]int)

	r.services.Range(func(_, value interface{}) bool {
		def := value.(Provider).Definition()
		total++
		totalTools += len(def.Tools)
		categories[string(def.Category)]++
		return true
	})

	return map[string]interface{}{
		"total_services": total,
		"total_tools":    totalTools,
		"categories":     categories,
	}
}

func relevance(intent string, service types.Service) float64 {
	score := 0.0

	if strings.Contains(intent, service.ID) || strings.Contains(intent, strings.ToLower(service.Name)) {
		score += 10.0
	}

	for _, word := range strings.Fields(strings.ToLower(service.Description)) {
		if len(word) > 2 && strings.Contains(intent, word) {
			score += 5.0
		}
	}

	for _, capability := range service.Capabilities {
		if strings.Contains(intent, strings.ReplaceAll(strings.ToLower(capability), "_", " ")) {
			score += 3.0
		}
	}

	if strings.Contains(intent, string(service.Category)) {
		score += 2.0
	}

	return score
}
