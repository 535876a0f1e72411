package router

import (
	"github.com/gin-gonic/gin"

	"cattle_backend/internal/feature/prices/transport/handler"
)

// NewRouter はダッシュボード用のAPIルートを登録したgin.Engineを返します。
func NewRouter(prices *handler.PricesHandler, health gin.HandlerFunc) *gin.Engine {
	r := gin.Default()

	// 導通確認用
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)
	r.OPTIONS("/healthz", health)

	api := r.Group("/api")
	{
		// 参照系
		api.GET("/prices", prices.Latest)
		api.GET("/history", prices.History)
		api.GET("/range", prices.Range)
		api.GET("/monthly", prices.Monthly)
		api.GET("/stats/range", prices.RangeStats)
		api.GET("/trends", prices.Trends)
		api.GET("/comparison", prices.Comparison)
		api.GET("/yearly", prices.Yearly)
		api.GET("/alltime", prices.AllTime)
		api.GET("/export.csv", prices.ExportCSV)

		// 更新系
		api.POST("/refresh", prices.Refresh)
		api.POST("/cleanup", prices.Cleanup)
	}

	r.NoRoute(handler.NotFound)

	return r
}
