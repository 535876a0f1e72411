package entity

import "fmt"

// AcceptancePolicy holds the exclusive bounds a scraped row must fall within
// to be accepted. The defaults encode the historical range of the INMAG and
// of daily head counts; they are configuration, not invariants of the store.
type AcceptancePolicy struct {
	MinIndex     float64 `yaml:"min_index"`
	MaxIndex     float64 `yaml:"max_index"`
	MinHeadCount float64 `yaml:"min_head_count"`
	MaxHeadCount float64 `yaml:"max_head_count"`
}

// DefaultAcceptancePolicy returns 100 < index < 50000 and 0 < headCount < 500000.
func DefaultAcceptancePolicy() AcceptancePolicy {
	return AcceptancePolicy{
		MinIndex:     100,
		MaxIndex:     50000,
		MinHeadCount: 0,
		MaxHeadCount: 500000,
	}
}

// Accepts reports whether both values lie strictly inside the bounds.
func (p AcceptancePolicy) Accepts(headCount, index float64) bool {
	return index > p.MinIndex && index < p.MaxIndex &&
		headCount > p.MinHeadCount && headCount < p.MaxHeadCount
}

// Validate rejects inverted or empty ranges.
func (p AcceptancePolicy) Validate() error {
	if p.MinIndex >= p.MaxIndex {
		return fmt.Errorf("invalid index bounds: min %v >= max %v", p.MinIndex, p.MaxIndex)
	}
	if p.MinHeadCount >= p.MaxHeadCount {
		return fmt.Errorf("invalid head count bounds: min %v >= max %v", p.MinHeadCount, p.MaxHeadCount)
	}
	if p.MinHeadCount < 0 {
		return fmt.Errorf("invalid head count bounds: min %v < 0", p.MinHeadCount)
	}
	return nil
}
