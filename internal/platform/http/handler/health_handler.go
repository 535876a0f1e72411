// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// pingTimeout はストア疎通確認の上限時間です。
const pingTimeout = 2 * time.Second

// Pinger reports whether a dependency (the price store) answers.
type Pinger func(ctx context.Context) error

// NewHealth は /healthz 用のハンドラーを返します。
// ping が nil でなければ毎回ストアへの疎通を確認し、失敗時は 503 を返します。
func NewHealth(ping Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 明示的にキャッシュを防止
		c.Header("Cache-Control", "no-store")

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		status, body := http.StatusOK, gin.H{"status": "ok"}
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
			defer cancel()
			if err := ping(ctx); err != nil {
				slog.Warn("health check failed", "error", err)
				status, body = http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()}
			}
		}

		if c.Request.Method == http.MethodHead {
			c.Status(status)
			return
		}
		c.JSON(status, body)
	}
}
