package model

import (
	"time"

	"cloud.google.com/go/civil"
)

const (
	CurrencyUAH Currency = "UAH"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"

	OwnershipState   Ownership = "state"
	OwnershipPrivate Ownership = "private"
	OwnershipForeign Ownership = "foreign"
	OwnershipOther   Ownership = "other"
)

type Currency string
type Ownership string

// Bank is the static metadata of one crawled bank.
type Bank struct {
	ID         string
	FullName   string
	Code       int
	Ownership  Ownership
	ListingURL string
}

// DiscoveredProduct is one deposit product found on a bank's listing page.
// DetailURL is the page the orchestrator fetches next; SourceURL, when set,
// overrides the URL recorded on the resulting rows (used when the fetchable
// resource is not the public product page).
type DiscoveredProduct struct {
	Name      string
	DetailURL string
	SourceURL string
}

// RawRateRow is one term/currency/rate triple as the adapter found it,
// before any canonicalization.
type RawRateRow struct {
	TermRaw     string
	CurrencyRaw string
	RateRaw     string
}

// CanonicalRecord is one offered rate for one term and currency on one
// product. It is produced by the normalizer and never mutated afterwards.
type CanonicalRecord struct {
	BankID         string
	BankFullName   string
	BankCode       int
	OwnershipGroup Ownership
	ProductName    string
	TermMonths     int
	Currency       Currency
	RatePercent    float64
	SourceURL      string
	CapturedAt     time.Time
}

// Date is the calendar day the record was captured on.
func (r CanonicalRecord) Date() civil.Date {
	return civil.DateOf(r.CapturedAt)
}
