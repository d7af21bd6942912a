package admin

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// recovery ловит панику в обработчике и отвечает 500.
func recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(log.Fields{
					"component": "admin.recovery",
					"panic":     fmt.Sprintf("%v", r),
					"stack":     string(debug.Stack()),
					"path":      c.Request.URL.Path,
				}).Error("ПАНИКА в HTTP-обработчике — восстановлено")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
		}()
		c.Next()
	}
}

// requestLogger пишет строку на каждый запрос. Ошибки 5xx — Warn, остальное — Debug.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(log.Fields{
			"component": "admin.http",
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    status,
			"client_ip": c.ClientIP(),
			"duration":  time.Since(start).String(),
		})
		if status >= http.StatusInternalServerError {
			entry.Warn("HTTP-запрос")
			return
		}
		entry.Debug("HTTP-запрос")
	}
}
