// Package server assembles the fastshell HTTP server.
//
// NewServer picks the account and project backends from BACKEND_MODE
// (memory, remote or postgres), builds the session manager with the shell
// settings from the environment, registers the services and mounts the
// REST, WebSocket and metrics routes behind the shared middleware.
//
// Example Usage:
//
//	cfg, err := config.Load()
//	srv, err := server.NewServer(ctx, cfg, logger)
//	go srv.Run()
//	...
//	srv.Shutdown(ctx)
//	srv.Close()
package server
