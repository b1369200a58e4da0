package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/deporate/crawler/internal/pkg/model"
)

var privatbankBank = model.Bank{
	ID:        "Privat",
	FullName:  `АТ КБ "ПриватБанк"`,
	Code:      46,
	Ownership: model.OwnershipState,
	// the whole rate schedule is embedded in this script payload
	ListingURL: "https://deposits.privatbank.ua/static/app/js/programs.js",
}

// privatbankSourceURL is the public application page recorded on rows; the
// fetched resource itself is the script payload above.
const privatbankSourceURL = "https://deposits.privatbank.ua/static/app/open.htm"

var privatProgramsRe = regexp.MustCompile(`(?s)var programs\s*=\s*(\[.*?\]);`)

// privatProgramCodes are the deposit programs worth collecting; everything
// else in the payload (cards, pensions) is skipped.
var privatProgramCodes = map[string]bool{
	"DEN0": true, "DENK": true, "DDND": true, "DPSG": true, "DPR0": true,
}

type privatProgram struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Rates []struct {
		Duration json.Number `json:"duration"`
		Curr     map[string]struct {
			Rate json.Number `json:"rate"`
		} `json:"curr"`
	} `json:"rates"`
}

var _ SiteAdapter = &Privatbank{}

// Privatbank embeds its full deposit schedule as a script-embedded JSON
// array, so discovery and extraction both parse the same payload and no
// HTML table rules apply.
type Privatbank struct {
	logger *zap.Logger
}

func NewPrivatbank(logger *zap.Logger) *Privatbank {
	return &Privatbank{logger: logger}
}

func (a *Privatbank) Bank() model.Bank { return privatbankBank }

func (a *Privatbank) DiscoverProducts(listingHTML string) ([]model.DiscoveredProduct, error) {
	programs, err := parsePrograms(listingHTML)
	if err != nil {
		return nil, err
	}

	var products []model.DiscoveredProduct
	for _, program := range programs {
		if !privatProgramCodes[program.Code] || program.Name == "" {
			continue
		}
		products = append(products, model.DiscoveredProduct{
			Name:      program.Name,
			DetailURL: privatbankBank.ListingURL,
			SourceURL: privatbankSourceURL,
		})
	}
	return products, nil
}

func (a *Privatbank) ExtractRates(_ context.Context, product model.DiscoveredProduct, detailHTML string) ([]model.RawRateRow, error) {
	programs, err := parsePrograms(detailHTML)
	if err != nil {
		return nil, err
	}

	var rows []model.RawRateRow
	for _, program := range programs {
		if !privatProgramCodes[program.Code] || program.Name != product.Name {
			continue
		}
		for _, rate := range program.Rates {
			// map order is random; sort for reproducible output
			currencies := make([]string, 0, len(rate.Curr))
			for currency := range rate.Curr {
				currencies = append(currencies, currency)
			}
			sort.Strings(currencies)

			for _, currency := range currencies {
				rows = append(rows, model.RawRateRow{
					TermRaw:     rate.Duration.String(),
					CurrencyRaw: strings.ToUpper(currency),
					RateRaw:     rate.Curr[currency].Rate.String(),
				})
			}
		}
	}
	return rows, nil
}

func parsePrograms(payload string) ([]privatProgram, error) {
	m := privatProgramsRe.FindStringSubmatch(payload)
	if m == nil {
		return nil, fmt.Errorf("no programs array in payload")
	}
	var programs []privatProgram
	if err := json.Unmarshal([]byte(m[1]), &programs); err != nil {
		return nil, fmt.Errorf("decode programs array: %w", err)
	}
	return programs, nil
}
