package crawler

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/deporate/crawler/internal/pkg/model"
	"github.com/deporate/crawler/internal/pkg/normalize"
)

var pumbBank = model.Bank{
	ID:         "Pumb",
	FullName:   `АТ "ПУМБ"`,
	Code:       115,
	Ownership:  model.OwnershipPrivate,
	ListingURL: "https://persona.pumb.ua/deposits",
}

var pumbTermRe = regexp.MustCompile(`(\d+)\s*міс`)

var _ SiteAdapter = &Pumb{}

// Pumb renders one tab panel per currency, all keyed by a shared data-id.
// Term labels live in the panel's header row and rate values in the data
// rows below it; the two are paired positionally. Panels nested inside a
// "transparent" sub-table are decorative and excluded from both sides.
type Pumb struct {
	logger *zap.Logger
}

func NewPumb(logger *zap.Logger) *Pumb {
	return &Pumb{logger: logger}
}

func (a *Pumb) Bank() model.Bank { return pumbBank }

func (a *Pumb) DiscoverProducts(listingHTML string) ([]model.DiscoveredProduct, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listingHTML))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	var products []model.DiscoveredProduct
	doc.Find("div.deposit-list-card").Each(func(_ int, card *goquery.Selection) {
		if style, _ := card.Attr("style"); strings.Contains(style, "display: none") {
			return
		}

		name := cleanText(card.Find("div.deposit-list-title").First().Text())
		name = strings.TrimSpace(strings.TrimPrefix(name, "Депозит"))
		if name == "" || name == "МаніБокс" {
			return
		}

		var href string
		card.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
			if cleanText(link.Text()) != "Детальніше" {
				return true
			}
			href, _ = link.Attr("href")
			return false
		})
		if strings.TrimSpace(href) == "" {
			return
		}

		products = append(products, model.DiscoveredProduct{
			Name:      name,
			DetailURL: absoluteURL(pumbBank.ListingURL, href),
		})
	})
	return products, nil
}

func (a *Pumb) ExtractRates(_ context.Context, product model.DiscoveredProduct, detailHTML string) ([]model.RawRateRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(detailHTML))
	if err != nil {
		return nil, fmt.Errorf("parse detail page: %w", err)
	}

	section := doc.Find("section.line-tab.tabs-wr.deposit-rates").First()
	if section.Length() == 0 {
		return nil, fmt.Errorf("no rate tabs section on %s", product.DetailURL)
	}

	currencies := panelCurrencies(section)
	if len(currencies) == 0 {
		return nil, fmt.Errorf("no currency tabs on %s", product.DetailURL)
	}

	var rows []model.RawRateRow
	section.Find("div.tab-pane").Each(func(_ int, pane *goquery.Selection) {
		dataID, _ := pane.Attr("data-id")
		currency, ok := currencies[dataID]
		if !ok {
			return
		}

		terms := panelTerms(pane)
		if len(terms) == 0 {
			return
		}

		pane.Find(".row").Not(".header-row").Each(func(_ int, row *goquery.Selection) {
			if insideTransparentTable(row) {
				return
			}
			var rates []string
			row.Find(".col").Each(func(_ int, col *goquery.Selection) {
				text := cleanText(col.Text())
				if strings.Contains(text, "%") {
					rates = append(rates, text)
				}
			})
			// header terms and rate cells line up by position
			for i := 0; i < len(terms) && i < len(rates); i++ {
				rows = append(rows, model.RawRateRow{
					TermRaw:     terms[i],
					CurrencyRaw: string(currency),
					RateRaw:     rates[i],
				})
			}
		})
	})
	return rows, nil
}

// panelCurrencies maps each tab's data-id to its currency, taken from the
// direct text of the tab's span (ignoring <sup> and the like).
func panelCurrencies(section *goquery.Selection) map[string]model.Currency {
	currencies := map[string]model.Currency{}
	section.Find("div.tabs-btns-wr a[data-id]").Each(func(_ int, tab *goquery.Selection) {
		dataID, _ := tab.Attr("data-id")
		label := directText(tab.Find("span").First())
		if currency, ok := normalize.FindCurrency(label); ok && dataID != "" {
			currencies[dataID] = currency
		}
	})
	return currencies
}

// panelTerms collects the term labels of the first real header row.
func panelTerms(pane *goquery.Selection) []string {
	var terms []string
	pane.Find(".row.header-row").EachWithBreak(func(_ int, hdr *goquery.Selection) bool {
		if insideTransparentTable(hdr) {
			return true
		}
		hdr.Find(".col").Each(func(_ int, col *goquery.Selection) {
			if m := pumbTermRe.FindStringSubmatch(cleanText(col.Text())); m != nil {
				terms = append(terms, m[1]+" міс")
			}
		})
		return false
	})
	return terms
}

func insideTransparentTable(sel *goquery.Selection) bool {
	return sel.ParentsFiltered("div.transparent-table").Length() > 0
}

// directText returns only the immediate text children of the selection.
func directText(sel *goquery.Selection) string {
	if len(sel.Nodes) == 0 {
		return ""
	}
	var parts []string
	for child := sel.Nodes[0].FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			parts = append(parts, child.Data)
		}
	}
	return cleanText(strings.Join(parts, " "))
}
