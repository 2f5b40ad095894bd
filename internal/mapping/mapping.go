// Package mapping resolves bank-supplied category labels to taxonomy leaves.
package mapping

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dvloznov/finance-categorizer/internal/features"
	"github.com/dvloznov/finance-categorizer/internal/taxonomy"
)

// Wildcard is the bank key whose entries apply when no exact bank entry exists.
const Wildcard = "*"

//go:embed entries.yaml
var defaultEntries []byte

// Entry is one (bank, category) -> leaf row.
type Entry struct {
	Bank     string
	Category string
	LeafID   string
}

type key struct {
	bank     string
	category string
}

// Table is a read-only lookup table. The zero value is an empty table.
type Table struct {
	entries map[key]string
}

// New builds a table from entries. Bank and category text are normalized so
// lookups can be keyed by feature-bundle values. Every target must be a leaf.
func New(entries []Entry) (*Table, error) {
	t := &Table{entries: make(map[key]string, len(entries))}
	for _, e := range entries {
		if !taxonomy.IsLeaf(e.LeafID) {
			return nil, fmt.Errorf("mapping: %s/%q maps to non-leaf %q", e.Bank, e.Category, e.LeafID)
		}
		bank := e.Bank
		if bank != Wildcard {
			bank = features.Normalize(bank)
		}
		t.entries[key{bank, features.Normalize(e.Category)}] = e.LeafID
	}
	return t, nil
}

// Parse decodes the YAML form: a map of bank -> {category: leaf}.
func Parse(data []byte) ([]Entry, error) {
	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("mapping: parse entries: %w", err)
	}

	var entries []Entry
	for bank, cats := range raw {
		for cat, leaf := range cats {
			entries = append(entries, Entry{Bank: bank, Category: cat, LeafID: leaf})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Bank != entries[j].Bank {
			return entries[i].Bank < entries[j].Bank
		}
		return entries[i].Category < entries[j].Category
	})
	return entries, nil
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in table, loaded once per process.
// The embedded entry list is static configuration; a broken list panics.
func Default() *Table {
	defaultOnce.Do(func() {
		entries, err := Parse(defaultEntries)
		if err != nil {
			panic(err)
		}
		t, err := New(entries)
		if err != nil {
			panic(err)
		}
		defaultTable = t
	})
	return defaultTable
}

// Lookup returns the leaf for (bank, normalized category). An exact bank entry
// wins over the wildcard entry.
func (t *Table) Lookup(bank, categoryNorm string) (string, bool) {
	if t == nil || categoryNorm == "" {
		return "", false
	}
	if leaf, ok := t.entries[key{features.Normalize(bank), categoryNorm}]; ok {
		return leaf, true
	}
	leaf, ok := t.entries[key{Wildcard, categoryNorm}]
	return leaf, ok
}

// LookupRaw normalizes a raw bank-supplied label before looking it up.
func (t *Table) LookupRaw(bank, rawCategory string) (string, bool) {
	return t.Lookup(bank, features.Normalize(rawCategory))
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}
