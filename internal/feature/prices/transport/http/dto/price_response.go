// Package dto はpricesフィーチャーのHTTPレスポンスDTOを定義します。
package dto

import (
	"time"

	"cattle_backend/internal/feature/prices/domain/entity"
)

// Envelope は全APIレスポンス共通の外枠です。
type Envelope struct {
	Success bool   `json:"success"`
	Count   *int   `json:"count,omitempty"`   // 一覧レスポンスのみ
	Data    any    `json:"data,omitempty"`    // 成功時のペイロード
	Message string `json:"message,omitempty"` // 更新系の結果メッセージ
	Error   string `json:"error,omitempty"`   // 失敗時のエラーメッセージ
}

// PriceResponse は1取引日のレスポンスDTOです。
type PriceResponse struct {
	Fecha     string  `json:"fecha"`                // 日付 (YYYY-MM-DD)
	Cabezas   int64   `json:"cabezas"`              // 頭数
	Importe   float64 `json:"importe"`              // 取引総額
	Inmag     float64 `json:"inmag"`                // INMAG指数
	CreatedAt string  `json:"created_at,omitempty"` // 登録日時 (RFC3339)
}

// OK wraps a single payload.
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// List wraps a slice payload and sets its count.
func List[T any](items []T) Envelope {
	n := len(items)
	if items == nil {
		items = []T{}
	}
	return Envelope{Success: true, Count: &n, Data: items}
}

// Message reports the outcome of a write operation.
func Message(msg string, data any) Envelope {
	return Envelope{Success: true, Message: msg, Data: data}
}

// Fail reports an error.
func Fail(err error) Envelope {
	return Envelope{Success: false, Error: err.Error()}
}

// ToPriceResponses converts stored records for the wire.
func ToPriceResponses(records []entity.PriceRecord) []PriceResponse {
	out := make([]PriceResponse, 0, len(records))
	for _, r := range records {
		p := PriceResponse{
			Fecha:   r.Date,
			Cabezas: r.HeadCount,
			Importe: r.TotalAmount,
			Inmag:   r.Index,
		}
		if !r.InsertedAt.IsZero() {
			p.CreatedAt = r.InsertedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, p)
	}
	return out
}
