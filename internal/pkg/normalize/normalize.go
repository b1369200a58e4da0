// Package normalize converts source-specific raw text for term, currency and
// rate into the canonical record schema. All functions are pure; a failed
// conversion is reported as a *model.Failure and never panics.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/deporate/crawler/internal/pkg/model"
)

var leadingInt = regexp.MustCompile(`(\d+)`)

// currencyPatterns maps lower-cased substrings found in source text to the
// closed currency set. Ukrainian names, ISO codes and symbols all occur in
// the wild; anything else is a parse failure, never a new currency.
var currencyPatterns = []struct {
	needles  []string
	currency model.Currency
}{
	{[]string{"uah", "грн", "гривн", "₴"}, model.CurrencyUAH},
	{[]string{"usd", "долар", "$"}, model.CurrencyUSD},
	{[]string{"eur", "євро", "€"}, model.CurrencyEUR},
}

// FindCurrency reports the canonical currency mentioned in free text.
func FindCurrency(text string) (model.Currency, bool) {
	lower := strings.ToLower(text)
	for _, p := range currencyPatterns {
		for _, needle := range p.needles {
			if strings.Contains(lower, needle) {
				return p.currency, true
			}
		}
	}
	return "", false
}

// ParseTerm extracts the leading whole-month count from free text such as
// "12 місяців (грн)". A missing or non-positive number is a failure; the
// zero sentinel emitted for unrecognized day ranges is rejected here.
func ParseTerm(raw string) (int, error) {
	m := leadingInt.FindString(raw)
	if m == "" {
		return 0, fmt.Errorf("no month count in %q", raw)
	}
	months, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("month count in %q: %w", raw, err)
	}
	if months <= 0 {
		return 0, fmt.Errorf("non-positive month count in %q", raw)
	}
	return months, nil
}

// ParseRate parses a percentage cell. Decimal comma and decimal point are
// both accepted; percent signs, non-breaking spaces and asterisks are noise.
func ParseRate(raw string) (float64, error) {
	s := strings.NewReplacer(
		"%", "",
		"*", "",
		"&nbsp;", "",
		"\u00a0", "",
		" ", "",
		",", ".",
	).Replace(raw)
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty rate cell %q", raw)
	}
	rate, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("rate %q: %w", raw, err)
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 || rate > 100 {
		return 0, fmt.Errorf("rate %v out of range [0, 100]", rate)
	}
	return rate, nil
}

// Normalize builds a CanonicalRecord from one raw row. On failure it returns
// a *model.Failure with kind bad_record, bad_term, bad_currency or bad_rate;
// the caller is expected to drop the row and continue.
func Normalize(bank model.Bank, product, sourceURL string, capturedAt time.Time, row model.RawRateRow) (model.CanonicalRecord, error) {
	if bank.ID == "" || sourceURL == "" {
		return model.CanonicalRecord{}, model.NewFailure(model.FailureBadRecord, bank.ID, product,
			fmt.Errorf("record missing bank id or source url"))
	}

	months, err := ParseTerm(row.TermRaw)
	if err != nil {
		return model.CanonicalRecord{}, model.NewFailure(model.FailureBadTerm, bank.ID, product, err)
	}

	currency, ok := FindCurrency(row.CurrencyRaw)
	if !ok {
		return model.CanonicalRecord{}, model.NewFailure(model.FailureBadCurrency, bank.ID, product,
			fmt.Errorf("unknown currency %q", row.CurrencyRaw))
	}

	rate, err := ParseRate(row.RateRaw)
	if err != nil {
		return model.CanonicalRecord{}, model.NewFailure(model.FailureBadRate, bank.ID, product, err)
	}

	return model.CanonicalRecord{
		BankID:         bank.ID,
		BankFullName:   bank.FullName,
		BankCode:       bank.Code,
		OwnershipGroup: bank.Ownership,
		ProductName:    product,
		TermMonths:     months,
		Currency:       currency,
		RatePercent:    rate,
		SourceURL:      sourceURL,
		CapturedAt:     capturedAt,
	}, nil
}
