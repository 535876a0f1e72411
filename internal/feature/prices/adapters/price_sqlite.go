// Package adapters はpricesフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/guregu/null/v6"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cattle_backend/internal/feature/prices/domain/entity"
	"cattle_backend/internal/feature/prices/usecase"
	"cattle_backend/internal/shared/parseutil"
	"cattle_backend/internal/shared/stats"
)

const (
	// upsertBatchSize keeps one INSERT under SQLite's bound-variable limit (6 columns per row).
	upsertBatchSize = 500
	// deleteChunkSize bounds the IN list of the cleanup deletes.
	deleteChunkSize = 500
)

// summarySelect is the aggregate projection scanned into entity.Summary.
const summarySelect = `COUNT(*) AS days,
	AVG(inmag) AS avg_index,
	MIN(inmag) AS min_index,
	MAX(inmag) AS max_index,
	AVG(cabezas) AS avg_head_count,
	CAST(COALESCE(SUM(cabezas), 0) AS BIGINT) AS total_head_count,
	AVG(importe) AS avg_amount,
	COALESCE(SUM(importe), 0) AS total_amount,
	MIN(fecha) AS first_date,
	MAX(fecha) AS last_date`

type priceSQLite struct {
	db *gorm.DB
}

var _ usecase.PriceRepository = (*priceSQLite)(nil)

// NewPriceRepository は指定されたDB接続で価格リポジトリの新しいインスタンスを生成します。
func NewPriceRepository(db *gorm.DB) *priceSQLite {
	return &priceSQLite{db: db}
}

// PriceModel is the price_records row. fecha carries both the unique key and
// the idx_fecha range-scan index.
type PriceModel struct {
	ID        uint       `gorm:"primaryKey"`
	Fecha     string     `gorm:"size:32;not null;uniqueIndex:uniq_price_records_fecha;index:idx_fecha;check:chk_price_records_fecha,fecha <> ''"`
	Cabezas   int64      `gorm:"not null;default:0;check:chk_price_records_cabezas,cabezas >= 0"`
	Importe   float64    `gorm:"not null;default:0"`
	Inmag     null.Float `gorm:"default:0"`
	CreatedAt time.Time
}

func (PriceModel) TableName() string {
	return "price_records"
}

func toModel(e entity.PriceRecord) PriceModel {
	return PriceModel{
		Fecha:   e.Date,
		Cabezas: e.HeadCount,
		Importe: e.TotalAmount,
		Inmag:   null.FloatFrom(e.Index),
	}
}

func toEntity(m PriceModel) entity.PriceRecord {
	return entity.PriceRecord{
		Date:        m.Fecha,
		HeadCount:   m.Cabezas,
		TotalAmount: m.Importe,
		Index:       m.Inmag.ValueOrZero(),
		InsertedAt:  m.CreatedAt,
	}
}

// dedupeByDate keeps the last occurrence of every date, preserving first-seen order.
func dedupeByDate(records []entity.PriceRecord) []entity.PriceRecord {
	pos := make(map[string]int, len(records))
	out := make([]entity.PriceRecord, 0, len(records))
	for _, r := range records {
		if i, ok := pos[r.Date]; ok {
			out[i] = r
			continue
		}
		pos[r.Date] = len(out)
		out = append(out, r)
	}
	return out
}

// Upsert inserts one record or replaces the stored values for its date.
func (r *priceSQLite) Upsert(ctx context.Context, record entity.PriceRecord) error {
	return r.UpsertBatch(ctx, []entity.PriceRecord{record})
}

// UpsertBatch applies every record in one transaction: either all rows are
// written or none are. On a date conflict cabezas, importe and inmag are
// replaced by the incoming values.
func (r *priceSQLite) UpsertBatch(ctx context.Context, records []entity.PriceRecord) error {
	if len(records) == 0 {
		return nil
	}
	unique := dedupeByDate(records)
	ms := make([]PriceModel, 0, len(unique))
	for _, e := range unique {
		ms = append(ms, toModel(e))
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fecha"}},
			DoUpdates: clause.AssignmentColumns([]string{"cabezas", "importe", "inmag"}),
		}).CreateInBatches(&ms, upsertBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("upsert %d price records: %w", len(ms), err)
	}
	return nil
}

// Latest returns the n most recent rows by date, newest first. Rows are returned
// as stored, including zero-index days. n <= 0 returns every row.
func (r *priceSQLite) Latest(ctx context.Context, n int) ([]entity.PriceRecord, error) {
	q := r.db.WithContext(ctx).Order("fecha DESC")
	if n > 0 {
		q = q.Limit(n)
	}
	return r.find(q)
}

// History is Latest under the name used for day-count windows.
func (r *priceSQLite) History(ctx context.Context, days int) ([]entity.PriceRecord, error) {
	return r.Latest(ctx, days)
}

// Range returns the days in [start, end] with a positive index, newest first.
// When either bound is empty every stored row is returned unfiltered.
func (r *priceSQLite) Range(ctx context.Context, start, end string) ([]entity.PriceRecord, error) {
	q := r.db.WithContext(ctx).Order("fecha DESC")
	if start != "" && end != "" {
		q = q.Scopes(between(start, end), validIndex)
	}
	return r.find(q)
}

// Count returns the number of stored rows.
func (r *priceSQLite) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&PriceModel{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// MonthlyAverage aggregates the month's rows with a positive index.
func (r *priceSQLite) MonthlyAverage(ctx context.Context, year int, month time.Month) (entity.MonthlyStats, error) {
	s, err := r.summary(ctx, validIndex, inMonth(year, month))
	if err != nil {
		return entity.MonthlyStats{}, err
	}
	return entity.MonthlyStats{
		Year:      year,
		Month:     int(month),
		MonthName: entity.MonthName(int(month)),
		Summary:   s,
	}, nil
}

// LastMonthStats aggregates the calendar month before ref.
func (r *priceSQLite) LastMonthStats(ctx context.Context, ref time.Time) (entity.MonthlyStats, error) {
	prev := time.Date(ref.Year(), ref.Month()-1, 1, 0, 0, 0, 0, time.UTC)
	return r.MonthlyAverage(ctx, prev.Year(), prev.Month())
}

// RangeStats aggregates [start, end] and adds the population standard
// deviation of the index. Empty bounds leave that side open.
func (r *priceSQLite) RangeStats(ctx context.Context, start, end string) (entity.RangeStats, error) {
	s, err := r.summary(ctx, validIndex, between(start, end))
	if err != nil {
		return entity.RangeStats{}, err
	}
	vals, err := r.indexValues(ctx, validIndex, between(start, end))
	if err != nil {
		return entity.RangeStats{}, err
	}
	return entity.RangeStats{
		Start:      start,
		End:        end,
		Volatility: stats.Volatility(vals),
		Summary:    s,
	}, nil
}

// Trends compares the trailing 7 days with the 7 before them, and the month
// to date with the whole previous month, all relative to ref.
func (r *priceSQLite) Trends(ctx context.Context, ref time.Time) (entity.Trends, error) {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)

	weekly, err := r.periodTrend(ctx,
		day.AddDate(0, 0, -6), day,
		day.AddDate(0, 0, -13), day.AddDate(0, 0, -7),
	)
	if err != nil {
		return entity.Trends{}, err
	}

	monthStart, _ := parseutil.MonthBounds(day.Year(), day.Month())
	// month 0 normalizes to December of the previous year
	prevStart, prevEnd := parseutil.MonthBounds(day.Year(), day.Month()-1)
	monthly, err := r.periodTrend(ctx, monthStart, day, prevStart, prevEnd)
	if err != nil {
		return entity.Trends{}, err
	}

	return entity.Trends{Weekly: weekly, Monthly: monthly}, nil
}

func (r *priceSQLite) periodTrend(ctx context.Context, curStart, curEnd, prevStart, prevEnd time.Time) (entity.PeriodTrend, error) {
	t := entity.PeriodTrend{
		CurrentStart:  parseutil.FormatISODate(curStart),
		CurrentEnd:    parseutil.FormatISODate(curEnd),
		PreviousStart: parseutil.FormatISODate(prevStart),
		PreviousEnd:   parseutil.FormatISODate(prevEnd),
	}
	cur, err := r.summary(ctx, validIndex, between(t.CurrentStart, t.CurrentEnd))
	if err != nil {
		return entity.PeriodTrend{}, err
	}
	prev, err := r.summary(ctx, validIndex, between(t.PreviousStart, t.PreviousEnd))
	if err != nil {
		return entity.PeriodTrend{}, err
	}
	t.CurrentAvg = cur.AvgIndex
	t.PreviousAvg = prev.AvgIndex
	t.ChangePct = stats.PercentChange(cur.AvgIndex, prev.AvgIndex)
	return t, nil
}

// MonthlyComparison returns the monthly aggregates of the last months months,
// ref's month included, oldest first. Months without data are omitted.
func (r *priceSQLite) MonthlyComparison(ctx context.Context, ref time.Time, months int) ([]entity.MonthlyStats, error) {
	out := make([]entity.MonthlyStats, 0, max(months, 0))
	for i := months - 1; i >= 0; i-- {
		m := time.Date(ref.Year(), ref.Month()-time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		ms, err := r.MonthlyAverage(ctx, m.Year(), m.Month())
		if err != nil {
			return nil, err
		}
		if ms.Days == 0 {
			continue
		}
		out = append(out, ms)
	}
	return out, nil
}

// YearlyStats aggregates one year and breaks it down by month.
func (r *priceSQLite) YearlyStats(ctx context.Context, year int) (entity.YearlyStats, error) {
	s, err := r.summary(ctx, validIndex, inYear(year))
	if err != nil {
		return entity.YearlyStats{}, err
	}
	vals, err := r.indexValues(ctx, validIndex, inYear(year))
	if err != nil {
		return entity.YearlyStats{}, err
	}

	rows, err := r.periodSummaries(ctx, 7, validIndex, inYear(year))
	if err != nil {
		return entity.YearlyStats{}, err
	}
	months := make([]entity.MonthlyStats, 0, len(rows))
	for _, row := range rows {
		t, err := time.Parse("2006-01", row.Period)
		if err != nil {
			continue
		}
		months = append(months, entity.MonthlyStats{
			Year:      t.Year(),
			Month:     int(t.Month()),
			MonthName: entity.MonthName(int(t.Month())),
			Summary:   row.Summary,
		})
	}

	vol := stats.Volatility(vals)
	return entity.YearlyStats{
		Year:          year,
		Volatility:    vol,
		VolatilityPct: stats.Ratio(vol, s.AvgIndex),
		Months:        months,
		Summary:       s,
	}, nil
}

// AllTimeStats aggregates every stored day and breaks it down by year.
func (r *priceSQLite) AllTimeStats(ctx context.Context) (entity.AllTimeStats, error) {
	s, err := r.summary(ctx, validIndex)
	if err != nil {
		return entity.AllTimeStats{}, err
	}

	var points []struct {
		Fecha string
		Inmag float64
	}
	if err := r.db.WithContext(ctx).Model(&PriceModel{}).
		Scopes(validIndex).
		Select("fecha, inmag").
		Scan(&points).Error; err != nil {
		return entity.AllTimeStats{}, err
	}
	all := make([]float64, 0, len(points))
	byYear := make(map[string][]float64)
	for _, p := range points {
		all = append(all, p.Inmag)
		if parseutil.IsCanonicalDate(p.Fecha) {
			byYear[p.Fecha[:4]] = append(byYear[p.Fecha[:4]], p.Inmag)
		}
	}

	rows, err := r.periodSummaries(ctx, 4, validIndex)
	if err != nil {
		return entity.AllTimeStats{}, err
	}
	years := make([]entity.YearSummary, 0, len(rows))
	for _, row := range rows {
		y, err := strconv.Atoi(row.Period)
		if err != nil {
			continue
		}
		years = append(years, entity.YearSummary{
			Year:       y,
			Volatility: stats.Volatility(byYear[row.Period]),
			Summary:    row.Summary,
		})
	}

	vol := stats.Volatility(all)
	return entity.AllTimeStats{
		Volatility:    vol,
		VolatilityPct: stats.Ratio(vol, s.AvgIndex),
		Years:         years,
		Summary:       s,
	}, nil
}

// CleanBadData deletes rows whose date is not strictly YYYY-MM-DD, then rows
// whose index is zero or NULL. Running it again removes nothing.
func (r *priceSQLite) CleanBadData(ctx context.Context) (entity.CleanupResult, error) {
	var res entity.CleanupResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dates []string
		if err := tx.Model(&PriceModel{}).Pluck("fecha", &dates).Error; err != nil {
			return err
		}
		bad := make([]string, 0)
		for _, d := range dates {
			if !parseutil.IsCanonicalDate(d) {
				bad = append(bad, d)
			}
		}
		for i := 0; i < len(bad); i += deleteChunkSize {
			chunk := bad[i:min(i+deleteChunkSize, len(bad))]
			del := tx.Where("fecha IN ?", chunk).Delete(&PriceModel{})
			if del.Error != nil {
				return del.Error
			}
			res.InvalidDates += del.RowsAffected
		}

		del := tx.Where("inmag IS NULL OR inmag = 0").Delete(&PriceModel{})
		if del.Error != nil {
			return del.Error
		}
		res.ZeroIndex = del.RowsAffected
		return nil
	})
	if err != nil {
		return entity.CleanupResult{}, fmt.Errorf("clean bad price data: %w", err)
	}
	return res, nil
}

func (r *priceSQLite) find(q *gorm.DB) ([]entity.PriceRecord, error) {
	var rows []PriceModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.PriceRecord, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out, nil
}

func (r *priceSQLite) summary(ctx context.Context, scopes ...func(*gorm.DB) *gorm.DB) (entity.Summary, error) {
	var s entity.Summary
	err := r.db.WithContext(ctx).Model(&PriceModel{}).
		Scopes(scopes...).
		Select(summarySelect).
		Scan(&s).Error
	if err != nil {
		return entity.Summary{}, err
	}
	return s, nil
}

func (r *priceSQLite) indexValues(ctx context.Context, scopes ...func(*gorm.DB) *gorm.DB) ([]float64, error) {
	var vals []float64
	err := r.db.WithContext(ctx).Model(&PriceModel{}).
		Scopes(scopes...).
		Pluck("inmag", &vals).Error
	if err != nil {
		return nil, err
	}
	return vals, nil
}

type periodSummary struct {
	Period string
	entity.Summary
}

// periodSummaries groups canonical-date rows by the first prefixLen characters
// of fecha (7 = month, 4 = year), oldest period first.
func (r *priceSQLite) periodSummaries(ctx context.Context, prefixLen int, scopes ...func(*gorm.DB) *gorm.DB) ([]periodSummary, error) {
	period := fmt.Sprintf("substr(fecha, 1, %d)", prefixLen)
	var rows []periodSummary
	err := r.db.WithContext(ctx).Model(&PriceModel{}).
		Scopes(scopes...).
		Scopes(canonicalDate).
		Select(period + " AS period, " + summarySelect).
		Group(period).
		Order("period ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// validIndex excludes market-closed days (index zero, negative or NULL).
func validIndex(db *gorm.DB) *gorm.DB {
	return db.Where("inmag > 0")
}

func canonicalDate(db *gorm.DB) *gorm.DB {
	return db.Where("fecha LIKE ?", "____-__-__")
}

func inMonth(year int, month time.Month) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("fecha LIKE ?", parseutil.MonthPrefix(year, month)+"-%")
	}
}

func inYear(year int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("fecha LIKE ?", fmt.Sprintf("%04d-%%", year))
	}
}

func between(start, end string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if start != "" {
			db = db.Where("fecha >= ?", start)
		}
		if end != "" {
			db = db.Where("fecha <= ?", end)
		}
		return db
	}
}
