// Package report renders pricing results as JSON or terminal tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/meenmo/rateslib/internal/pricing"
)

// Money rounds an amount to cents, e.g. -1234.5 -> "-1234.50".
func Money(x float64) string {
	return decimal.NewFromFloat(x).Round(2).StringFixed(2)
}

// Percent formats a decimal rate as a percentage with 4 places.
func Percent(x float64) string {
	return decimal.NewFromFloat(x).Shift(2).StringFixed(4) + "%"
}

// Factor formats a discount factor or fraction with 8 places.
func Factor(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(8)
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteCurve prints pillars, the bootstrap report and the samples.
func WriteCurve(w io.Writer, resp pricing.BootstrapResponse) {
	fmt.Fprintf(w, "Curve %s\n", resp.Name)

	if resp.Report != nil {
		table := tablewriter.NewWriter(w)
		table.Header("Maturity", "Par", "Zero", "NPV", "Iter", "Fallback")
		for _, p := range resp.Report.Pillars {
			fallback := ""
			if p.FellBack {
				fallback = "MARKET"
			}
			table.Append(
				fmt.Sprintf("%gY", p.Maturity),
				Percent(p.MarketRate),
				Percent(p.ZeroRate),
				fmt.Sprintf("%.2e", p.NPV),
				fmt.Sprintf("%d", p.Iterations),
				fallback,
			)
		}
		table.Render()
		fmt.Fprintf(w, "  refinement sweeps: %d  max |NPV|: %.2e\n", resp.Report.Sweeps, resp.Report.MaxAbsNPV)
	}

	table := tablewriter.NewWriter(w)
	table.Header("Time", "Zero", "DF")
	for _, s := range resp.Samples {
		table.Append(fmt.Sprintf("%g", s.Time), Percent(s.ZeroRate), Factor(s.DiscountFactor))
	}
	table.Render()
}

// WriteSwap prints a callable or puttable valuation.
func WriteSwap(w io.Writer, resp pricing.SwapResponse) {
	fmt.Fprintf(w, "%s swap on %s, notional %s, fixed %s\n",
		resp.Kind, resp.Curve, Money(resp.Notional), Percent(resp.FixedRate))

	table := tablewriter.NewWriter(w)
	table.Header("Component", "PV")
	table.Append("Vanilla", Money(resp.Decomposition.Vanilla))
	table.Append("Option", Money(resp.Decomposition.Option))
	table.Append("Total", Money(resp.Decomposition.Total))
	if resp.FairRate != nil {
		table.Append("Fair rate", Percent(*resp.FairRate))
	}
	table.Render()
}

// WriteRangeAccrual prints per-period accruals and the PV.
func WriteRangeAccrual(w io.Writer, resp pricing.RangeAccrualResponse) {
	table := tablewriter.NewWriter(w)
	table.Header("Start", "End", "Obs", "A_i", "Cashflow", "DF", "PV")
	for _, p := range resp.Periods {
		table.Append(
			fmt.Sprintf("%.4f", p.Start),
			fmt.Sprintf("%.4f", p.End),
			fmt.Sprintf("%d", p.Observations),
			fmt.Sprintf("%.4f", p.Accrual),
			Money(p.Cashflow),
			Factor(p.DiscountFactor),
			Money(p.PV),
		)
	}
	table.Render()
	fmt.Fprintf(w, "PV %s  std error %s  (%d paths, seed %d)\n",
		Money(resp.PV), Money(resp.StdError), resp.Paths, resp.Seed)
}
