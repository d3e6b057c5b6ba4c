package summary

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nyasuto/mond/internal/domain"
)

type attributionEntry struct {
	Date       string          `json:"date,omitempty"`
	Ticker     string          `json:"ticker"`
	DeltaTotal decimal.Decimal `json:"delta_total"`
	DeltaPrice decimal.Decimal `json:"delta_price"`
	DeltaFx    decimal.Decimal `json:"delta_fx"`
	DeltaCross decimal.Decimal `json:"delta_cross"`
	Flow       decimal.Decimal `json:"flow"`
}

type exposureEntry struct {
	Currency string          `json:"ccy"`
	ValueJPY decimal.Decimal `json:"value_jpy"`
}

type totalEntry struct {
	Date          string          `json:"date"`
	TotalValueJPY decimal.Decimal `json:"total_value_jpy"`
}

type dayPayload struct {
	Date              string             `json:"date"`
	PortfolioTotalJPY decimal.Decimal    `json:"portfolio_total_jpy"`
	Attribution       []attributionEntry `json:"attribution"`
	CurrencyExposure  []exposureEntry    `json:"currency_exposure"`
}

type historyPayload struct {
	AttributionHistory []attributionEntry `json:"attribution_history"`
	PortfolioTotals    []totalEntry       `json:"portfolio_totals"`
}

// BuildDayPrompt asks for the drivers of one day's movement, with the day's data embedded as JSON
func BuildDayPrompt(date time.Time, total decimal.Decimal, rows []domain.AttributionRow, exposure []domain.CurrencyExposure, language string) (string, error) {
	payload := dayPayload{
		Date:              domain.FormatDate(date),
		PortfolioTotalJPY: total,
		Attribution:       attributionEntries(rows, false),
		CurrencyExposure:  make([]exposureEntry, 0, len(exposure)),
	}
	for _, e := range exposure {
		payload.CurrencyExposure = append(payload.CurrencyExposure, exposureEntry{Currency: e.Currency, ValueJPY: e.ValueHome})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode day payload: %w", err)
	}

	return fmt.Sprintf("You are a financial analyst who explains daily portfolio movements in %s. "+
		"Summarize the key drivers (price, FX, cross, flow) for the portfolio on the given date. "+
		"Highlight notable tickers and percent contributions if obvious."+
		"\n\nData(JSON):\n%s"+
		"\n\nOutput format: short bullet list in %s with overall conclusion.", language, data, language), nil
}

// BuildHistoryPrompt asks for turning points and trends across the whole attribution history
func BuildHistoryPrompt(rows []domain.AttributionRow, totals []domain.PortfolioTotal, language string) (string, error) {
	payload := historyPayload{
		AttributionHistory: attributionEntries(rows, true),
		PortfolioTotals:    make([]totalEntry, 0, len(totals)),
	}
	for _, t := range totals {
		payload.PortfolioTotals = append(payload.PortfolioTotals, totalEntry{Date: domain.FormatDate(t.Date), TotalValueJPY: t.ValueHome})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode history payload: %w", err)
	}

	return fmt.Sprintf("You are a financial analyst. Review the entire attribution history and portfolio totals "+
		"to identify major turning points, recurring drivers, and any long-term trends. "+
		"Provide insights in %s, covering key dates, main contributing tickers, and suggestions "+
		"for what deserves attention.\n\nData(JSON):\n%s"+
		"\n\nOutput format: short paragraphs with bullet list of highlights in %s.", language, data, language), nil
}

func attributionEntries(rows []domain.AttributionRow, withDate bool) []attributionEntry {
	entries := make([]attributionEntry, 0, len(rows))
	for _, r := range rows {
		e := attributionEntry{
			Ticker:     r.Ticker,
			DeltaTotal: r.DeltaTotal,
			DeltaPrice: r.DeltaPrice,
			DeltaFx:    r.DeltaFx,
			DeltaCross: r.DeltaCross,
			Flow:       r.Flow,
		}
		if withDate {
			e.Date = domain.FormatDate(r.Date)
		}
		entries = append(entries, e)
	}
	return entries
}
