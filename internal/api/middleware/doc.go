// Package middleware holds the gin middleware shared by every route: CORS,
// per-client and global rate limits, request IDs and access logging.
package middleware
