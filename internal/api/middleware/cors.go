package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig controls which browser origins may drive sessions.
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       time.Duration
}

// DefaultCORSConfig lets any origin call the session API.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Accept", "Content-Type", "Authorization", RequestIDHeader},
		MaxAge:       12 * time.Hour,
	}
}

// CORS answers preflights and tags responses for allowed origins. A "*"
// entry allows every origin but then never allows credentials.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  cfg.AllowMethods,
		AllowHeaders:  cfg.AllowHeaders,
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        cfg.MaxAge,
	}
	if slices.Contains(cfg.AllowOrigins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowOrigins
		c.AllowCredentials = true
	}
	return cors.New(c)
}
