// Package handler はpricesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cattle_backend/internal/feature/prices/domain/entity"
	"cattle_backend/internal/feature/prices/transport/http/dto"
	"cattle_backend/internal/feature/prices/usecase"
)

// PricesUsecase は価格データ参照のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type PricesUsecase interface {
	Latest(ctx context.Context, n int) ([]entity.PriceRecord, error)
	History(ctx context.Context, days int) ([]entity.PriceRecord, error)
	Range(ctx context.Context, start, end string) ([]entity.PriceRecord, error)
	Monthly(ctx context.Context, year, month int) (entity.MonthlyStats, error)
	RangeStats(ctx context.Context, start, end string) (entity.RangeStats, error)
	Trends(ctx context.Context) (entity.Trends, error)
	MonthlyComparison(ctx context.Context, months int) ([]entity.MonthlyStats, error)
	Yearly(ctx context.Context, year int) (entity.YearlyStats, error)
	AllTime(ctx context.Context) (entity.AllTimeStats, error)
}

// IngestUsecase は手動更新とクリーンアップのユースケースインターフェースを定義します。
type IngestUsecase interface {
	FetchLatest(ctx context.Context) (int, error)
	Cleanup(ctx context.Context) (entity.CleanupResult, error)
}

// PricesHandler は価格データのHTTPリクエストを処理します。
type PricesHandler struct {
	prices PricesUsecase
	ingest IngestUsecase
}

// NewPricesHandler は指定されたusecaseでPricesHandlerの新しいインスタンスを生成します。
func NewPricesHandler(prices PricesUsecase, ingest IngestUsecase) *PricesHandler {
	return &PricesHandler{prices: prices, ingest: ingest}
}

// Latest は最新10件を返します。ストアが空の場合は一度だけスクレイピングしてから返します。
//
// GET /api/prices
func (h *PricesHandler) Latest(c *gin.Context) {
	ctx := c.Request.Context()
	records, err := h.prices.Latest(ctx, usecase.DefaultLatestLimit)
	if err != nil {
		h.fail(c, err)
		return
	}

	if len(records) == 0 {
		slog.Info("no records in store, scraping")
		n, err := h.ingest.FetchLatest(ctx)
		if err != nil {
			h.fail(c, err)
			return
		}
		if n > 0 {
			if records, err = h.prices.Latest(ctx, usecase.DefaultLatestLimit); err != nil {
				h.fail(c, err)
				return
			}
		}
	}

	c.JSON(http.StatusOK, dto.List(dto.ToPriceResponses(records)))
}

// History は直近の取引日を返します。days が不正な場合は既定値を使います。
//
// GET /api/history?days=30
func (h *PricesHandler) History(c *gin.Context) {
	days, _ := strconv.Atoi(c.Query("days"))
	records, err := h.prices.History(c.Request.Context(), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.List(dto.ToPriceResponses(records)))
}

// Range は期間内の取引日を返します。
//
// GET /api/range?start=2026-01-01&end=2026-01-31
func (h *PricesHandler) Range(c *gin.Context) {
	records, err := h.prices.Range(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.List(dto.ToPriceResponses(records)))
}

// Monthly は月次集計を返します。year と month を省略すると前月になります。
//
// GET /api/monthly?year=2025&month=12
func (h *PricesHandler) Monthly(c *gin.Context) {
	year, okY := optionalInt(c, "year")
	month, okM := optionalInt(c, "month")
	if !okY || !okM {
		h.fail(c, usecase.ErrInvalidMonth)
		return
	}
	stats, err := h.prices.Monthly(c.Request.Context(), year, month)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(stats))
}

// RangeStats は期間の集計とボラティリティを返します。
//
// GET /api/stats/range?start=2026-01-01&end=2026-01-31
func (h *PricesHandler) RangeStats(c *gin.Context) {
	stats, err := h.prices.RangeStats(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(stats))
}

// Trends は週次・月次トレンドを返します。
//
// GET /api/trends
func (h *PricesHandler) Trends(c *gin.Context) {
	trends, err := h.prices.Trends(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(trends))
}

// Comparison は直近数か月の月次集計を古い順に返します。
//
// GET /api/comparison?months=6
func (h *PricesHandler) Comparison(c *gin.Context) {
	months, _ := strconv.Atoi(c.Query("months"))
	stats, err := h.prices.MonthlyComparison(c.Request.Context(), months)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.List(stats))
}

// Yearly は年次集計を返します。year を省略すると今年になります。
//
// GET /api/yearly?year=2025
func (h *PricesHandler) Yearly(c *gin.Context) {
	year, ok := optionalInt(c, "year")
	if !ok {
		h.fail(c, usecase.ErrInvalidYear)
		return
	}
	stats, err := h.prices.Yearly(c.Request.Context(), year)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(stats))
}

// AllTime は全期間の集計を返します。
//
// GET /api/alltime
func (h *PricesHandler) AllTime(c *gin.Context) {
	stats, err := h.prices.AllTime(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(stats))
}

// Refresh は市場サイトから最新データを取得して保存します。
//
// POST /api/refresh
func (h *PricesHandler) Refresh(c *gin.Context) {
	n, err := h.ingest.FetchLatest(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Message(fmt.Sprintf("Refreshed %d records", n), nil))
}

// Cleanup は不正な日付と INMAG が 0 の行を削除します。
//
// POST /api/cleanup
func (h *PricesHandler) Cleanup(c *gin.Context) {
	res, err := h.ingest.Cleanup(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Message(fmt.Sprintf("Removed %d records", res.Total()), res))
}

// ExportCSV は期間内の取引日をCSVで返します。期間を省略すると全件になります。
//
// GET /api/export.csv?start=2026-01-01&end=2026-01-31
func (h *PricesHandler) ExportCSV(c *gin.Context) {
	records, err := h.prices.Range(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="inmag.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"Fecha", "Cabezas", "Importe", "INMAG"})
	for _, r := range records {
		_ = w.Write([]string{
			r.Date,
			strconv.FormatInt(r.HeadCount, 10),
			strconv.FormatFloat(r.TotalAmount, 'f', -1, 64),
			strconv.FormatFloat(r.Index, 'f', -1, 64),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		slog.Error("csv export failed", "error", err)
	}
}

// NotFound は未定義ルートに対して 404 を返します。
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, dto.Envelope{Success: false, Error: "Not found"})
}

// errInternal is the only detail a 500 response carries; the cause is logged.
var errInternal = errors.New("internal server error")

// fail maps usecase errors to a status code: invalid input is 400, anything else 500.
func (h *PricesHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidDate),
		errors.Is(err, usecase.ErrInvalidRange),
		errors.Is(err, usecase.ErrInvalidMonth),
		errors.Is(err, usecase.ErrInvalidYear):
		c.JSON(http.StatusBadRequest, dto.Fail(err))
	default:
		slog.Error("API error", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, dto.Fail(errInternal))
	}
}

// optionalInt parses an optional integer query parameter. A missing value is
// (0, true); a malformed one is (0, false).
func optionalInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
