package normalize_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deporate/crawler/internal/pkg/model"
	"github.com/deporate/crawler/internal/pkg/normalize"
)

var testBank = model.Bank{
	ID:        "Testbank",
	FullName:  `АТ "Тестбанк"`,
	Code:      999,
	Ownership: model.OwnershipPrivate,
}

func TestParseTerm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		months  int
		wantErr bool
	}{
		{raw: "12 місяців", months: 12},
		{raw: "3 міс", months: 3},
		{raw: "6", months: 6},
		{raw: "12 місяців (грн)", months: 12},
		{raw: "0", wantErr: true},
		{raw: "на вимогу", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		months, err := normalize.ParseTerm(tt.raw)
		if tt.wantErr {
			require.Errorf(t, err, "raw %q", tt.raw)
			continue
		}
		require.NoErrorf(t, err, "raw %q", tt.raw)
		require.Equal(t, tt.months, months)
	}
}

func TestFindCurrency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw      string
		currency model.Currency
		found    bool
	}{
		{raw: "UAH", currency: model.CurrencyUAH, found: true},
		{raw: "Гривня", currency: model.CurrencyUAH, found: true},
		{raw: "12 місяців (грн)", currency: model.CurrencyUAH, found: true},
		{raw: "Долар США", currency: model.CurrencyUSD, found: true},
		{raw: "usd", currency: model.CurrencyUSD, found: true},
		{raw: "Євро", currency: model.CurrencyEUR, found: true},
		{raw: "eur", currency: model.CurrencyEUR, found: true},
		{raw: "злотий", found: false},
		{raw: "", found: false},
	}
	for _, tt := range tests {
		currency, found := normalize.FindCurrency(tt.raw)
		require.Equalf(t, tt.found, found, "raw %q", tt.raw)
		if tt.found {
			require.Equal(t, tt.currency, currency)
		}
	}
}

func TestParseRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		rate    float64
		wantErr bool
	}{
		{raw: "5,25%", rate: 5.25},
		{raw: "3%", rate: 3.0},
		{raw: "4.5", rate: 4.5},
		{raw: "12,5 %", rate: 12.5},
		{raw: "8&nbsp;%", rate: 8.0},
		{raw: "101", wantErr: true},
		{raw: "-1", wantErr: true},
		{raw: "n/a", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		rate, err := normalize.ParseRate(tt.raw)
		if tt.wantErr {
			require.Errorf(t, err, "raw %q", tt.raw)
			continue
		}
		require.NoErrorf(t, err, "raw %q", tt.raw)
		require.InDelta(t, tt.rate, rate, 1e-9)
	}
}

func TestNormalizeBuildsRecord(t *testing.T) {
	t.Parallel()

	capturedAt := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	record, err := normalize.Normalize(testBank, "Мій депозит", "https://example.com/deposit", capturedAt, model.RawRateRow{
		TermRaw:     "12 місяців",
		CurrencyRaw: "грн",
		RateRaw:     "5,25%",
	})
	require.NoError(t, err)
	require.Equal(t, model.CanonicalRecord{
		BankID:         "Testbank",
		BankFullName:   `АТ "Тестбанк"`,
		BankCode:       999,
		OwnershipGroup: model.OwnershipPrivate,
		ProductName:    "Мій депозит",
		TermMonths:     12,
		Currency:       model.CurrencyUAH,
		RatePercent:    5.25,
		SourceURL:      "https://example.com/deposit",
		CapturedAt:     capturedAt,
	}, record)
}

func TestNormalizeRequiresBankAndSourceURL(t *testing.T) {
	t.Parallel()

	row := model.RawRateRow{TermRaw: "12", CurrencyRaw: "UAH", RateRaw: "5"}

	tests := []struct {
		name      string
		bank      model.Bank
		sourceURL string
	}{
		{name: "missing bank id", bank: model.Bank{}, sourceURL: "https://example.com"},
		{name: "missing source url", bank: testBank, sourceURL: ""},
	}
	for _, tt := range tests {
		_, err := normalize.Normalize(tt.bank, "product", tt.sourceURL, time.Now(), row)
		require.Errorf(t, err, "%s", tt.name)

		var failure *model.Failure
		require.True(t, errors.As(err, &failure))
		require.Equal(t, model.FailureBadRecord, failure.Kind, tt.name)
	}
}

func TestNormalizeFailureKinds(t *testing.T) {
	t.Parallel()

	capturedAt := time.Now()
	tests := []struct {
		name string
		row  model.RawRateRow
		kind model.FailureKind
	}{
		{
			name: "bad term",
			row:  model.RawRateRow{TermRaw: "на вимогу", CurrencyRaw: "UAH", RateRaw: "5"},
			kind: model.FailureBadTerm,
		},
		{
			name: "sentinel zero term",
			row:  model.RawRateRow{TermRaw: "0", CurrencyRaw: "UAH", RateRaw: "5"},
			kind: model.FailureBadTerm,
		},
		{
			name: "bad currency",
			row:  model.RawRateRow{TermRaw: "12", CurrencyRaw: "злотий", RateRaw: "5"},
			kind: model.FailureBadCurrency,
		},
		{
			name: "bad rate",
			row:  model.RawRateRow{TermRaw: "12", CurrencyRaw: "UAH", RateRaw: "n/a"},
			kind: model.FailureBadRate,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := normalize.Normalize(testBank, "product", "https://example.com", capturedAt, tt.row)
			require.Error(t, err)

			var failure *model.Failure
			require.True(t, errors.As(err, &failure))
			require.Equal(t, tt.kind, failure.Kind)
		})
	}
}
