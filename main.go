package main

import (
	"fmt"
	"log"
	"os"

	"github.com/meenmo/rateslib/curve"
	"github.com/meenmo/rateslib/hullwhite"
	"github.com/meenmo/rateslib/marketdata"
	"github.com/meenmo/rateslib/schedule"
	"github.com/meenmo/rateslib/swap"
)

func main() {
	ois, err := curve.Bootstrap(marketdata.MockOISQuotes(), marketdata.EUROIS, curve.DefaultBootstrapOptions())
	if err != nil {
		log.Fatal(err)
	}

	model, err := hullwhite.New(0.03, 0.01)
	if err != nil {
		log.Fatal(err)
	}

	sched, err := schedule.Regular(10, schedule.Annual)
	if err != nil {
		log.Fatal(err)
	}

	trade := swap.CallableSwap{
		Notional:  10_000_000,
		FixedRate: 0.03,
		Schedule:  sched,
		CallTimes: []float64{2, 3, 4, 5, 6, 7, 8, 9},
		Curve:     ois,
		Model:     model,
	}

	d, err := trade.Decompose()
	if err != nil {
		log.Fatal(err)
	}
	fair, err := trade.FairRate()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Fprintf(os.Stdout, "Vanilla PV:  %.2f\n", d.Vanilla)
	fmt.Fprintf(os.Stdout, "Option PV:   %.2f\n", d.Option)
	fmt.Fprintf(os.Stdout, "Callable PV: %.2f\n", d.Total)
	fmt.Fprintf(os.Stdout, "Fair rate:   %.6f%%\n", fair*100)
}
