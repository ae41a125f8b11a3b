package middleware

import (
	"github.com/gin-gonic/gin"
)

// ForwardedHeaders are consulted, in order, only when the direct peer is a trusted proxy.
var ForwardedHeaders = []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}

// TrustProxies sets which peers may report the client address through ForwardedHeaders.
// An empty list trusts nobody: the socket address is the client.
func TrustProxies(engine *gin.Engine, proxies []string) error {
	engine.RemoteIPHeaders = ForwardedHeaders
	if len(proxies) == 0 {
		return engine.SetTrustedProxies(nil)
	}
	return engine.SetTrustedProxies(proxies)
}

// RealIP stores the client IP under "real_ip" for the rate limiter and logs.
// The address comes from c.ClientIP(), so forwarding headers from untrusted peers are ignored.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("real_ip", c.ClientIP())
		c.Next()
	}
}
