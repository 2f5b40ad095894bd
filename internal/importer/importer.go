// Package importer turns bank export files into stored, categorized
// transactions.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dvloznov/finance-categorizer/internal/domain"
)

// ErrUnknownFormat is returned when no parser is registered for a format.
var ErrUnknownFormat = errors.New("importer: unknown format")

// Record is one parsed row: the transaction plus the account it belongs to.
// ID, AccountID and BatchID are assigned on import.
type Record struct {
	AccountName   string
	AccountNumber string
	Transaction   domain.Transaction
}

// Parsed is the output of a parser. Malformed rows are counted, not fatal.
type Parsed struct {
	Records []Record
	Skipped int
}

// Parser converts one bank's export format into records.
type Parser interface {
	Parse(r io.Reader) (Parsed, error)
	Format() string
	Bank() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats lists the registered format names in order.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&AlfaParser{})
	r.Register(&TinkoffParser{})
	return r
}

// table is a header-addressed CSV file.
type table struct {
	columns map[string]int
	rows    [][]string
}

const bom = "\ufeff"

func readTable(r io.Reader, comma rune) (*table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	t := &table{columns: make(map[string]int)}
	if len(records) == 0 {
		return t, nil
	}
	for i, name := range records[0] {
		name = strings.TrimSpace(strings.TrimPrefix(name, bom))
		t.columns[name] = i
	}
	t.rows = records[1:]
	return t, nil
}

// get returns the trimmed value of column in row, or "" when absent.
func (t *table) get(row []string, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// dayOf drops the time of day; statements are compared by calendar date.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
