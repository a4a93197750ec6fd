// Package config provides 12-factor configuration management for the fastshell
// server.
//
// Configuration is loaded from environment variables with sensible defaults.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, allowed CORS origins)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Shell: Session tuning (typing pace, delays, PATH, session cap)
//   - Backend: Account and project backends (memory, remote, postgres)
//   - Program: Endpoints of the programs mounted on /bin
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s\n", cfg.Addr())
//
// Environment Variables:
//   - PORT, HOST, CORS_ORIGINS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - SHELL_*, BACKEND_MODE, BACKEND_URL, DATABASE_URL, JWT_SECRET, ADMIN_PASS
//   - WOPR_URL, WOPR_KEY
package config
