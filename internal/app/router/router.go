package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	quotehandler "stock_pipeline/internal/feature/currentprice/transport/handler"
	"stock_pipeline/internal/platform/http/handler"
)

// NewRouter は読み取りAPIのルーターを生成します。
func NewRouter(health *handler.HealthHandler, quotes *quotehandler.QuoteHandler, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	// 導通確認用
	r.GET("/healthz", health.Health)
	r.HEAD("/healthz", health.Health)

	// 最新のスナップショット
	r.GET("/snapshot", quotes.GetSnapshotHandler)
	// 銘柄別の最新の現在価格
	r.GET("/quotes/:code", quotes.GetQuoteHandler)

	return r
}

// requestLogger はリクエストごとにアクセスログを出力します。
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
