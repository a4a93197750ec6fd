// Package service provides the service registry behind /services.
//
// Providers (auth, projects, terminal) describe their tools through
// Definition and run them through Execute. The registry routes a tool ID of
// the form "<service>.<tool>" to its provider, records the call in the
// metrics and offers keyword discovery over the registered definitions.
//
// Example Usage:
//
//	registry := service.NewRegistry(service.WithMetrics(metrics))
//	registry.Register(terminal.NewProvider(manager))
//	services := registry.Discover("shell sessions", 5)
//	result, err := registry.Execute(ctx, "terminal.submit", params, appCtx)
package service
