package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"unilife/backend/pkg/metrics"
)

// Metrics HTTP 指标中间件
// 以路由模板（而非原始路径）为标签，避免 :id 导致标签基数膨胀
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveHTTP(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
