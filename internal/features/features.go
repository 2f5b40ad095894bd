// Package features derives the normalized signals every categorization stage
// works from. Bundles are recomputed on demand and never persisted.
package features

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-categorizer/internal/domain"
)

var (
	nonWord    = regexp.MustCompile(`[^\p{L}\p{N}_\s\p{Z}]`)
	whitespace = regexp.MustCompile(`[\s\p{Z}]+`)
)

// Bundle is the feature set extracted from one transaction.
type Bundle struct {
	Text             string // description + merchant + bank category, normalized
	BankCategoryNorm string
	MerchantNorm     string
	MCC              string // trimmed, empty when absent
	AmountAbs        decimal.Decimal
	Bank             string
}

// Normalize lower-cases s, folds "ё" into "е", turns punctuation into spaces
// and collapses whitespace. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "ё", "е")
	s = nonWord.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// joinParts joins the non-blank parts with single spaces.
func joinParts(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// Extract builds the feature bundle for t. It never fails.
func Extract(t *domain.Transaction) Bundle {
	return Bundle{
		Text:             Normalize(joinParts(t.Description, t.Merchant, t.BankCategory)),
		BankCategoryNorm: Normalize(t.BankCategory),
		MerchantNorm:     Normalize(t.Merchant),
		MCC:              strings.TrimSpace(t.MCC),
		AmountAbs:        t.Amount.Abs(),
		Bank:             Normalize(t.Bank),
	}
}

// ClassifierText flattens the bundle into the document the statistical
// classifier learns from.
func (b Bundle) ClassifierText() string {
	return joinParts(b.Text, b.BankCategoryNorm, b.MerchantNorm, b.Bank, b.MCC)
}

// ParseAmount parses a bank-formatted amount ("1 234,50", NBSP thousands
// separators). Unparseable input yields zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
