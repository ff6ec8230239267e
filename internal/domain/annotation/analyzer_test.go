package annotation

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"arca/internal/domain/transaction"
)

func strPtr(s string) *string { return &s }

func TestAnalyzer_Categories(t *testing.T) {
	analyzer := NewAnalyzer()

	tests := []struct {
		name         string
		tx           *transaction.Transaction
		wantCategory string
	}{
		{
			name: "coffee shop by name",
			tx: &transaction.Transaction{
				Name:   "STARBUCKS #1234",
				Amount: decimal.RequireFromString("6.50"),
			},
			wantCategory: "coffee",
		},
		{
			name: "groceries by merchant",
			tx: &transaction.Transaction{
				Name:         "POS PURCHASE",
				MerchantName: strPtr("Whole Foods Market"),
				Amount:       decimal.RequireFromString("84.12"),
			},
			wantCategory: "groceries",
		},
		{
			name: "transport by provider category",
			tx: &transaction.Transaction{
				Name:     "TRIP 8812",
				Category: []string{"Travel", "Taxi"},
				Amount:   decimal.RequireFromString("18.00"),
			},
			wantCategory: "transport",
		},
		{
			name: "income on deposit",
			tx: &transaction.Transaction{
				Name:   "DIRECT DEPOSIT PAYROLL",
				Amount: decimal.RequireFromString("-3200.00"),
			},
			wantCategory: "income",
		},
		{
			// "marketplace" must not substring-match into groceries.
			name: "marketplace is shopping not groceries",
			tx: &transaction.Transaction{
				Name:   "AMAZON MARKETPLACE",
				Amount: decimal.RequireFromString("899.99"),
			},
			wantCategory: "shopping",
		},
		{
			name: "no rule matches",
			tx: &transaction.Transaction{
				Name:   "MISC 0001",
				Amount: decimal.RequireFromString("10.00"),
			},
			wantCategory: "uncategorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyzer.Analyze(tt.tx)
			if got.Category != tt.wantCategory {
				t.Errorf("Analyze() category = %q, want %q", got.Category, tt.wantCategory)
			}
		})
	}
}

func TestAnalyzer_FirstRuleWins(t *testing.T) {
	analyzer := NewAnalyzer()

	// "uber eats" must hit food-delivery, not the later "uber" transport rule.
	got := analyzer.Analyze(&transaction.Transaction{
		Name:   "UBER EATS ORDER",
		Amount: decimal.RequireFromString("23.40"),
	})
	if got.Category != "food-delivery" {
		t.Errorf("Analyze() category = %q, want food-delivery", got.Category)
	}
}

func TestAnalyzer_Sentiment(t *testing.T) {
	analyzer := NewAnalyzer()

	tests := []struct {
		name          string
		tx            *transaction.Transaction
		wantSentiment string
	}{
		{
			name:          "inflow is positive",
			tx:            &transaction.Transaction{Name: "REFUND", Amount: decimal.RequireFromString("-30.00")},
			wantSentiment: "positive",
		},
		{
			name:          "essentials are neutral",
			tx:            &transaction.Transaction{Name: "CITY WATER UTILITY", Amount: decimal.RequireFromString("60.00")},
			wantSentiment: "neutral",
		},
		{
			name:          "large discretionary expense is negative",
			tx:            &transaction.Transaction{Name: "AMAZON MARKETPLACE", Amount: decimal.RequireFromString("899.99")},
			wantSentiment: "negative",
		},
		{
			name:          "small discretionary expense is neutral",
			tx:            &transaction.Transaction{Name: "AMAZON MARKETPLACE", Amount: decimal.RequireFromString("15.00")},
			wantSentiment: "neutral",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyzer.Analyze(tt.tx)
			if got.Sentiment != tt.wantSentiment {
				t.Errorf("Analyze() sentiment = %q, want %q", got.Sentiment, tt.wantSentiment)
			}
		})
	}
}

func TestAnalyzer_Tags(t *testing.T) {
	analyzer := NewAnalyzer()

	got := analyzer.Analyze(&transaction.Transaction{
		Name:    "DELTA AIRLINES",
		Amount:  decimal.RequireFromString("750.00"),
		Pending: true,
	})

	want := []string{"leisure", "large-expense", "pending"}
	if !reflect.DeepEqual(got.Tags, want) {
		t.Errorf("Analyze() tags = %v, want %v", got.Tags, want)
	}
}

func TestAnalyzer_Deterministic(t *testing.T) {
	analyzer := NewAnalyzer()
	tx := &transaction.Transaction{
		Name:   "LOCAL CAFE",
		Amount: decimal.RequireFromString("4.80"),
	}

	first := analyzer.Analyze(tx)
	second := analyzer.Analyze(tx)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Analyze() not deterministic: %+v vs %+v", first, second)
	}
}
