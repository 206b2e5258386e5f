package leecarter_test

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/katalvlaran/qxcast/frame"
	"github.com/katalvlaran/qxcast/leecarter"
)

func ExampleModel_Forecast() {
	df := frame.New()
	_ = df.AddFloat("attained_age", []float64{50, 50, 51, 51})
	_ = df.AddFloat("observation_year", []float64{2000, 2001, 2000, 2001})
	_ = df.AddFloat("death_claim_amount", []float64{1, 1.2, 1.5, 1.8})
	_ = df.AddFloat("amount_exposed", []float64{100, 100, 100, 100})

	opts := leecarter.DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	m, _ := leecarter.New(opts)

	s, _ := m.Structure(df)
	f, _ := m.Fit(s)
	fc, _ := m.Forecast(f, 2)

	for _, y := range fc.Years {
		q50, _ := fc.Rate(50, y)
		q51, _ := fc.Rate(51, y)
		fmt.Printf("%d %.5f %.5f\n", y, q50, q51)
	}
	// Output:
	// 2002 0.01315 0.01972
	// 2003 0.01440 0.02160
}
