package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS 白名单跨域中间件
// allowOrigins 支持精确 Origin 与 "https://*.example.edu" 形式的子域通配
func CORS(allowOrigins []string) gin.HandlerFunc {
	exact := make(map[string]bool, len(allowOrigins))
	var wildcards []string // 形如 "https://" + ".example.edu"
	for _, o := range allowOrigins {
		o = strings.TrimRight(o, "/")
		if scheme, host, ok := strings.Cut(o, "://*."); ok {
			wildcards = append(wildcards, scheme+"://", "."+host)
			continue
		}
		exact[o] = true
	}

	allowed := func(origin string) bool {
		if exact[origin] {
			return true
		}
		for i := 0; i+1 < len(wildcards); i += 2 {
			prefix, suffix := wildcards[i], wildcards[i+1]
			if strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) &&
				len(origin) > len(prefix)+len(suffix) {
				return true
			}
		}
		return false
	}

	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" && allowed(origin) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			h.Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID, Retry-After")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Max-Age", "3600")
			h.Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
