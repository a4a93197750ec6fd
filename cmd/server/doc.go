// Package main is the entry point for the fastshell server.
//
// The server hosts interactive shell sessions over HTTP and WebSocket:
//
//	Browser terminal → fastshell server → accounts and projects
//	                                    (memory, product API or PostgreSQL)
//
// The server provides:
//   - REST API for shell sessions and services
//   - WebSocket streaming of session snapshots
//   - Prometheus metrics
//   - Rate limiting and request logging
//
// Configuration:
//   - Environment variables (12-factor), see internal/infrastructure/config
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Production mode
//	BACKEND_MODE=remote BACKEND_URL=https://api.example.com ./server -port 8000
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
