package model

import "fmt"

const (
	FailureFetch       FailureKind = "fetch"
	FailureDiscovery   FailureKind = "discovery"
	FailureExtraction  FailureKind = "extraction"
	FailureBadTerm     FailureKind = "bad_term"
	FailureBadCurrency FailureKind = "bad_currency"
	FailureBadRate     FailureKind = "bad_rate"
	FailureBadRecord   FailureKind = "bad_record"
	FailureSink        FailureKind = "sink"
)

type FailureKind string

// Failure is a typed pipeline failure scoped to a bank and, where known, a
// product. Everything but FailureSink is contained at the smallest scope
// (row, then product, then job) and never aborts sibling jobs.
type Failure struct {
	Kind    FailureKind
	Bank    string
	Product string
	Err     error
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("%s failure", f.Kind)
	if f.Bank != "" {
		msg += " [" + f.Bank
		if f.Product != "" {
			msg += "/" + f.Product
		}
		msg += "]"
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error { return f.Err }

// NewFailure wraps err as a Failure of the given kind.
func NewFailure(kind FailureKind, bank, product string, err error) *Failure {
	return &Failure{Kind: kind, Bank: bank, Product: product, Err: err}
}
