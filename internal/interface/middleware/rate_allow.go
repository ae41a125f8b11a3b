package middleware

import (
	"net"

	"github.com/gin-gonic/gin"
)

// AllowFunc returns true to bypass a rate limit.
type AllowFunc func(*gin.Context) bool

// AllowPrivateIP bypasses loopback and RFC 1918 / RFC 4193 callers, e.g. an in-cluster scraper.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		parsed := net.ParseIP(ipFromCtx(c))
		return parsed != nil && (parsed.IsLoopback() || parsed.IsPrivate())
	}
}
