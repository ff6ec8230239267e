// Package annotation derives locally-authored metadata for synced
// transactions. Annotations live in their own columns and are never touched
// by the sync engine, so they survive provider-driven refreshes.
package annotation

import (
	"strings"

	"github.com/shopspring/decimal"

	"arca/internal/domain/transaction"
)

// Annotation is the derived metadata block for one transaction.
type Annotation struct {
	Category  string
	Sentiment string
	Tags      []string
}

// rule maps merchant/description keywords to a category and tags.
type rule struct {
	keywords []string
	category string
	tags     []string
}

// Keyword rules, checked in order; first match wins. Matching is
// case-insensitive against merchant name, description and provider category.
var rules = []rule{
	{[]string{"coffee", "cafe", "espresso", "starbucks"}, "coffee", []string{"food-drink"}},
	{[]string{"uber eats", "doordash", "ifood", "grubhub", "delivery"}, "food-delivery", []string{"food-drink", "convenience"}},
	{[]string{"restaurant", "grill", "pizza", "sushi", "burger"}, "dining", []string{"food-drink"}},
	{[]string{"grocery", "supermarket", "whole foods"}, "groceries", []string{"essentials"}},
	{[]string{"uber", "lyft", "taxi", "transit", "metro", "parking"}, "transport", []string{"mobility"}},
	{[]string{"airline", "flight", "hotel", "airbnb", "booking"}, "travel", []string{"leisure"}},
	{[]string{"netflix", "spotify", "hulu", "disney", "subscription", "prime"}, "subscriptions", []string{"recurring"}},
	{[]string{"pharmacy", "drugstore", "clinic", "dental", "hospital"}, "health", []string{"essentials"}},
	{[]string{"gym", "fitness", "yoga"}, "fitness", []string{"health"}},
	{[]string{"electric", "water", "gas bill", "internet", "utility"}, "utilities", []string{"recurring", "essentials"}},
	{[]string{"rent", "mortgage", "landlord"}, "housing", []string{"essentials"}},
	{[]string{"payroll", "salary", "direct deposit", "deposit"}, "income", []string{"inflow"}},
	{[]string{"transfer", "zelle", "venmo", "wire"}, "transfers", []string{"internal"}},
	{[]string{"amazon", "target", "walmart", "shop"}, "shopping", nil},
}

const largeExpenseThreshold = 500

// Analyzer assigns a category, sentiment and tags from keyword rules.
// Deterministic on purpose: the same transaction always gets the same block.
type Analyzer struct{}

// NewAnalyzer creates a rule-based analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze derives an annotation block for tx. It always returns a block;
// unmatched transactions fall into the "uncategorized" bucket so the
// post-sync pass does not revisit them.
func (a *Analyzer) Analyze(tx *transaction.Transaction) Annotation {
	haystack := buildHaystack(tx)

	ann := Annotation{Category: "uncategorized"}
	for _, r := range rules {
		if matchesAny(haystack, r.keywords) {
			ann.Category = r.category
			ann.Tags = append(ann.Tags, r.tags...)
			break
		}
	}

	ann.Sentiment = sentimentFor(tx.Amount, ann.Category)

	if tx.Amount.GreaterThan(decimal.NewFromInt(largeExpenseThreshold)) {
		ann.Tags = append(ann.Tags, "large-expense")
	}
	if tx.Pending {
		ann.Tags = append(ann.Tags, "pending")
	}

	return ann
}

func buildHaystack(tx *transaction.Transaction) string {
	parts := []string{tx.Name}
	if tx.MerchantName != nil {
		parts = append(parts, *tx.MerchantName)
	}
	if tx.OriginalDescription != nil {
		parts = append(parts, *tx.OriginalDescription)
	}
	parts = append(parts, tx.Category...)
	return strings.ToLower(strings.Join(parts, " "))
}

func matchesAny(haystack string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// sentimentFor follows the provider sign convention passed through unchanged:
// positive amounts are money out, negative amounts are money in.
func sentimentFor(amount decimal.Decimal, category string) string {
	switch {
	case amount.IsNegative(), category == "income":
		return "positive"
	case category == "essentials", category == "utilities", category == "housing",
		category == "groceries", category == "health", category == "transfers":
		return "neutral"
	case amount.GreaterThan(decimal.NewFromInt(largeExpenseThreshold)):
		return "negative"
	default:
		return "neutral"
	}
}
