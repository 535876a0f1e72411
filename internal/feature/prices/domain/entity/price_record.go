// Package entity defines the domain models for the prices feature.
package entity

import "time"

// PriceRecord is one trading day of the cattle market.
// Date is the canonical YYYY-MM-DD key; an Index of 0 means the market was closed.
type PriceRecord struct {
	Date        string    `json:"fecha"`              // Canonical date (YYYY-MM-DD), unique key
	HeadCount   int64     `json:"cabezas"`            // Animals traded that day
	TotalAmount float64   `json:"importe"`            // Money traded that day
	Index       float64   `json:"inmag"`              // INMAG price indicator
	InsertedAt  time.Time `json:"created_at,omitzero"` // Assigned by the store
}

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName returns the Spanish name the dashboard shows for month (1-12).
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}
