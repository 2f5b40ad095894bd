package pipeline

import (
	"sort"
	"sync"
)

// DefaultUnmappedLimit is the summary length used when no limit is given.
const DefaultUnmappedLimit = 20

// UnmappedEntry is one row of the unmapped bank-category summary.
type UnmappedEntry struct {
	Bank         string `json:"bank"`
	BankCategory string `json:"bank_category"`
	Count        int    `json:"count"`
}

// UnknownEntry counts transactions left uncategorized per bank category.
type UnknownEntry struct {
	BankCategory string `json:"bank_category"`
	Count        int    `json:"count"`
}

type unmappedKey struct {
	bank, category string
}

// Diagnostics counts operator-facing signals. It never influences decisions.
type Diagnostics struct {
	mu       sync.Mutex
	unmapped map[unmappedKey]int
	unknown  map[string]int
}

// NewDiagnostics returns an empty collector.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{
		unmapped: make(map[unmappedKey]int),
		unknown:  make(map[string]int),
	}
}

func (d *Diagnostics) recordUnmapped(bank, categoryNorm string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unmapped[unmappedKey{bank, categoryNorm}]++
}

func (d *Diagnostics) recordUnknown(categoryNorm string) {
	if categoryNorm == "" {
		categoryNorm = "unknown"
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unknown[categoryNorm]++
}

// Unmapped returns the most frequent unmapped labels, highest count first.
// Ties are ordered by bank then category. limit <= 0 uses DefaultUnmappedLimit.
func (d *Diagnostics) Unmapped(limit int) []UnmappedEntry {
	if limit <= 0 {
		limit = DefaultUnmappedLimit
	}

	d.mu.Lock()
	out := make([]UnmappedEntry, 0, len(d.unmapped))
	for k, n := range d.unmapped {
		out = append(out, UnmappedEntry{Bank: k.bank, BankCategory: k.category, Count: n})
	}
	d.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Bank != out[j].Bank {
			return out[i].Bank < out[j].Bank
		}
		return out[i].BankCategory < out[j].BankCategory
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Unknown returns the unknown-transaction counts, highest first.
func (d *Diagnostics) Unknown() []UnknownEntry {
	d.mu.Lock()
	out := make([]UnknownEntry, 0, len(d.unknown))
	for k, n := range d.unknown {
		out = append(out, UnknownEntry{BankCategory: k, Count: n})
	}
	d.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].BankCategory < out[j].BankCategory
	})
	return out
}

// Reset clears both counters.
func (d *Diagnostics) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.unmapped)
	clear(d.unknown)
}
