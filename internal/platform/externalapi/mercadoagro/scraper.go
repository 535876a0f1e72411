package mercadoagro

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"cattle_backend/internal/feature/prices/domain/entity"
	"cattle_backend/internal/feature/prices/usecase"
	"cattle_backend/internal/shared/parseutil"
)

// Scraper はMercado AgroganaderoのHTMLレポートから価格データを取得するMarketScraper実装です。
type Scraper struct {
	cfg    Config
	client *http.Client
}

// ScraperがMarketScraperを実装していることをコンパイル時に検証します。
var _ usecase.MarketScraper = (*Scraper)(nil)

// NewScraper は指定された設定とHTTPクライアントでScraperの新しいインスタンスを生成します。
func NewScraper(cfg Config, client *http.Client) *Scraper {
	return &Scraper{cfg: cfg, client: client}
}

// URL returns the report URL. The date range is only added when both bounds are set.
func (s *Scraper) URL(start, end time.Time) string {
	if start.IsZero() || end.IsZero() {
		return s.cfg.BaseURL
	}
	return fmt.Sprintf("%s?txtFECHAINI=%s&txtFECHAFIN=%s&CP=&LISTADO=SI",
		s.cfg.BaseURL, parseutil.FormatQueryDate(start), parseutil.FormatQueryDate(end))
}

// Scrape fetches the report for [start, end] (or the latest report when a
// bound is zero). Any failure is logged and yields an empty result: callers
// treat "empty" as "no new data".
func (s *Scraper) Scrape(ctx context.Context, start, end time.Time) []entity.PriceRecord {
	u := s.URL(start, end)
	records, err := s.FetchRange(ctx, start, end)
	if err != nil {
		slog.Error("scraper error", "url", u, "error", err)
		return []entity.PriceRecord{}
	}
	slog.Info("scraped price records", "count", len(records), "url", u)
	return records
}

// ScrapeMonth scrapes from the first to the last calendar day of the month.
func (s *Scraper) ScrapeMonth(ctx context.Context, year int, month time.Month) []entity.PriceRecord {
	first, last := parseutil.MonthBounds(year, month)
	return s.Scrape(ctx, first, last)
}

// FetchRange performs a single GET and parses the returned document.
func (s *Scraper) FetchRange(ctx context.Context, start, end time.Time) ([]entity.PriceRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(start, end), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("mercadoagro http %d", res.StatusCode)
	}

	// レポートはLatin-1で配信されることがあるためUTF-8に変換する
	body, err := charset.NewReader(res.Body, res.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decode response charset: %w", err)
	}
	return ParseDocument(body, s.cfg.Policy)
}

// ParseDocument extracts every accepted row from the tables of an HTML
// report. Rows with fewer than four cells are ignored; cells 0-3 are
// (date, head count, amount, index).
func ParseDocument(r io.Reader, policy entity.AcceptancePolicy) ([]entity.PriceRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	records := make([]entity.PriceRecord, 0)
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		var raw [4]string
		for i := range raw {
			raw[i] = strings.TrimSpace(cells.Eq(i).Text())
		}
		if rec, ok := ParseRow(raw, policy); ok {
			records = append(records, rec)
		}
	})
	return records, nil
}

// ParseRow normalizes one table row. A row is accepted only when every check
// passes: a valid date, not a totals row, index and head count within policy.
func ParseRow(cells [4]string, policy entity.AcceptancePolicy) (entity.PriceRecord, bool) {
	date, head, amount, index := cells[0], cells[1], cells[2], cells[3]

	if !parseutil.IsValidDate(date) || isTotalsRow(date) {
		return entity.PriceRecord{}, false
	}
	// 頭数は整数で保存するため、切り捨て後の値で判定する
	headCount := int64(parseutil.ParseNumber(head))
	inmag := parseutil.ParseNumber(index)
	if !policy.Accepts(float64(headCount), inmag) {
		return entity.PriceRecord{}, false
	}

	return entity.PriceRecord{
		Date:        parseutil.ParseDate(date),
		HeadCount:   headCount,
		TotalAmount: parseutil.ParseNumber(amount),
		Index:       inmag,
	}, true
}

// isTotalsRow matches footer rows such as "TOTAL" or "Totales".
func isTotalsRow(s string) bool {
	return strings.Contains(strings.ToLower(s), "total")
}
