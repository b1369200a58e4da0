package crawler

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/deporate/crawler/internal/pkg/model"
	"github.com/deporate/crawler/internal/pkg/normalize"
)

// parseColumnTable reads a column-keyed rate table: currency column headers,
// term rows, rate cells. When no header mentions a currency the table is in
// simple mode and the currency sits inside the term cell itself, e.g.
// "12 місяців (грн)" — that branch hands the term text over as the currency
// source too.
func parseColumnTable(sel *goquery.Selection) []model.RawRateRow {
	currencyCols := map[int]model.Currency{}
	sel.Find("th").Each(func(i int, th *goquery.Selection) {
		if currency, ok := normalize.FindCurrency(th.Text()); ok {
			currencyCols[i] = currency
		}
	})
	simpleMode := len(currencyCols) == 0

	var rows []model.RawRateRow
	sel.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, cleanText(td.Text()))
		})
		if len(cells) < 2 {
			return
		}
		termRaw := cells[0]

		if simpleMode {
			rows = append(rows, model.RawRateRow{
				TermRaw:     termRaw,
				CurrencyRaw: termRaw,
				RateRaw:     cells[1],
			})
			return
		}

		for idx := 1; idx < len(cells); idx++ {
			currency, ok := currencyCols[idx]
			if !ok {
				continue
			}
			rows = append(rows, model.RawRateRow{
				TermRaw:     termRaw,
				CurrencyRaw: string(currency),
				RateRaw:     cells[idx],
			})
		}
	})
	return rows
}
