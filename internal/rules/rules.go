// Package rules is the first categorization stage: an ordered decision list of
// keyword and MCC predicates. The first matching rule wins; order is behavior.
package rules

import (
	"strings"

	"github.com/dvloznov/finance-categorizer/internal/domain"
	"github.com/dvloznov/finance-categorizer/internal/features"
	"github.com/dvloznov/finance-categorizer/internal/taxonomy"
)

// SourcePrefix starts every label a rule writes to CategorizationSource.
const SourcePrefix = "rule: "

// Result is the outcome of a matching rule.
type Result struct {
	CategoryID string
	Source     string // SourcePrefix + rule name
}

// Rule pairs a predicate with the leaf it assigns. A rule with an empty
// Category keeps the transaction's current category.
type Rule struct {
	Name     string
	Match    func(tx *domain.Transaction, f features.Bundle) bool
	Category string
}

var (
	marketplaceMerchants = []string{
		"yandex 5399 market", "yandex market", "market yandex",
		"ozon", "avito", "wildberries", "wb ru", "wb.",
	}
	salaryKeywords   = []string{"зарплата", "salary", "премия"}
	cashMCCs         = map[string]bool{"6010": true, "6011": true}
	repaymentPhrases = []string{"погашение од", "погашение кредита", "погашение по кредиту"}

	// PeerNames marks outgoing payments to people the account owner pays
	// regularly. Matched against normalized text.
	PeerNames = []string{"артемович", "артем михайлович", "кирилл артемович", "васильев артем"}
)

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func isExpense(tx *domain.Transaction) bool { return tx.Type == domain.TypeExpense }
func isIncome(tx *domain.Transaction) bool  { return tx.Type == domain.TypeIncome }

// Default is the built-in rule table in priority order.
var Default = []Rule{
	{
		Name: "ozon bank transfer",
		Match: func(tx *domain.Transaction, f features.Bundle) bool {
			return isExpense(tx) && strings.Contains(f.MerchantNorm, "озон банк")
		},
		Category: taxonomy.TransferOut,
	},
	{
		Name: "parking topup",
		Match: func(tx *domain.Transaction, f features.Bundle) bool {
			return isExpense(tx) && strings.Contains(f.MerchantNorm, "парковки россии")
		},
		Category: taxonomy.CarService,
	},
	{
		Name: "marketplace merchant",
		Match: func(tx *domain.Transaction, f features.Bundle) bool {
			return isExpense(tx) && containsAny(f.MerchantNorm, marketplaceMerchants...)
		},
		Category: taxonomy.Marketplace,
	},
	{
		Name: "cashback",
		Match: func(_ *domain.Transaction, f features.Bundle) bool {
			return strings.Contains(f.Text, "кэшбэк")
		},
		Category: taxonomy.Cashback,
	},
	{
		Name: "salary keyword",
		Match: func(tx *domain.Transaction, f features.Bundle) bool {
			return isIncome(tx) && containsAny(f.Text, salaryKeywords...)
		},
		Category: taxonomy.IncomeSalary,
	},
	{
		Name: "topup keywords",
		Match: func(_ *domain.Transaction, f features.Bundle) bool {
			return containsAny(f.Text, "пополнение", "зачисление")
		},
		Category: taxonomy.TopUp,
	},
	{
		Name: "cash deposit",
		Match: func(_ *domain.Transaction, f features.Bundle) bool {
			return strings.Contains(f.Text, "внесение наличных")
		},
		Category: taxonomy.TopUp,
	},
	{
		Name: "cash out",
		Match: func(_ *domain.Transaction, f features.Bundle) bool {
			return strings.Contains(f.Text, "снятие") || cashMCCs[f.MCC]
		},
		Category: taxonomy.CashOut,
	},
	{
		Name: "internal transfer keyword",
		Match: func(_ *domain.Transaction, f features.Bundle) bool {
			if containsAny(f.Text, "перевод между своими", "внутренний перевод") {
				return true
			}
			return strings.Contains(f.Text, "перевод со счета") && strings.Contains(f.Text, "на счет")
		},
		Category: taxonomy.InternalTransfer,
	},
	{
		Name: "outgoing transfer keyword",
		Match: func(tx *domain.Transaction, f features.Bundle) bool {
			return isExpense(tx) && strings.Contains(f.Text, "перевод")
		},
		Category: taxonomy.TransferOut,
	},
	{
		Name: "incoming transfer keyword",
		Match: func(tx *domain.Transaction, f features.Bundle) bool {
			return isIncome(tx) && strings.Contains(f.Text, "перевод")
		},
		Category: taxonomy.TransferIn,
	},
	{
		Name: "bank service fee",
		Match: func(_ *domain.Transaction, f features.Bundle) bool {
			return containsAny(f.Text, "комиссия за обслуживание", "комиссия за перевыпуск")
		},
		Category: taxonomy.HomeServices,
	},
	{
		Name: "savings jar transfer",
		Match: func(_ *domain.Transaction, f features.Bundle) bool {
			return strings.Contains(f.Text, "копилка для сдачи")
		},
		Category: taxonomy.InternalTransfer,
	},
	{
		Name: "debt repayment keyword",
		Match: func(_ *domain.Transaction, f features.Bundle) bool {
			return containsAny(f.Text, repaymentPhrases...)
		},
		Category: taxonomy.TransferOut,
	},
	{
		Name: "p2p named transfer",
		Match: func(tx *domain.Transaction, f features.Bundle) bool {
			return isExpense(tx) && containsAny(f.Text, PeerNames...)
		},
		Category: taxonomy.TransferOut,
	},
	{
		Name: "telecom keyword",
		Match: func(_ *domain.Transaction, f features.Bundle) bool {
			return strings.Contains(f.Text, "мтс и мгтс")
		},
		Category: taxonomy.HomeInternet,
	},
	{
		Name: "already service",
		Match: func(tx *domain.Transaction, _ features.Bundle) bool {
			return taxonomy.IsService(tx.CategoryID)
		},
	},
}

// Engine evaluates a rule table top to bottom.
type Engine struct {
	rules []Rule
}

// NewEngine returns an engine over rules. A nil table uses Default.
func NewEngine(rules []Rule) *Engine {
	if rules == nil {
		rules = Default
	}
	return &Engine{rules: rules}
}

// Apply returns the result of the first rule that matches tx.
func (e *Engine) Apply(tx *domain.Transaction, f features.Bundle) (Result, bool) {
	for _, r := range e.rules {
		if !r.Match(tx, f) {
			continue
		}
		category := r.Category
		if category == "" {
			category = tx.CategoryID
		}
		return Result{CategoryID: category, Source: SourcePrefix + r.Name}, true
	}
	return Result{}, false
}

// Apply runs the default rule table.
func Apply(tx *domain.Transaction, f features.Bundle) (Result, bool) {
	return defaultEngine.Apply(tx, f)
}

var defaultEngine = NewEngine(nil)

// IsRuleSource reports whether a categorization source was written by a rule.
func IsRuleSource(source string) bool {
	return strings.HasPrefix(source, "rule")
}
