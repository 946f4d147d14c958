package backtest

import (
	"errors"
	"fmt"
	"os"

	"github.com/gamma-omg/meanrev/internal/market"
	"github.com/pplcc/plotext"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// SavePlot renders a backtest result as a png with two stacked panels
// sharing the time axis: close price with its Bollinger bands on top, the
// equity curve below.
func SavePlot(path string, bars []market.Bar, res Result) error {
	price, err := pricePanel(bars, res)
	if err != nil {
		return err
	}

	equity, err := equityPanel(res)
	if err != nil {
		return err
	}

	return saveStacked(path, []*plot.Plot{price, equity}, []float64{2, 1}, 900, 250)
}

func pricePanel(bars []market.Bar, res Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = res.Symbol
	p.Y.Label.Text = "Price"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}

	closes := make(plotter.XYs, len(bars))
	for i, b := range bars {
		c, _ := b.Close.Float64()
		closes[i] = plotter.XY{X: float64(b.Time.Unix()), Y: c}
	}
	lineClose, err := plotter.NewLine(closes)
	if err != nil {
		return nil, fmt.Errorf("failed to create price graph: %w", err)
	}
	p.Add(lineClose)

	for _, sel := range []func(i int) float64{
		func(i int) float64 { return res.Bands[i].Upper },
		func(i int) float64 { return res.Bands[i].Middle },
		func(i int) float64 { return res.Bands[i].Lower },
	} {
		var pts plotter.XYs
		for i, b := range bars {
			if i >= len(res.Bands) || !res.Bands[i].Valid {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(b.Time.Unix()), Y: sel(i)})
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to create band graph: %w", err)
		}
		line.LineStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
		p.Add(line)
	}

	return p, nil
}

func equityPanel(res Result) (*plot.Plot, error) {
	p := plot.New()
	p.Y.Label.Text = "Equity"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}

	pts := make(plotter.XYs, len(res.EquityCurve))
	for i, e := range res.EquityCurve {
		v, _ := e.Equity.Float64()
		pts[i] = plotter.XY{X: float64(e.Time.Unix()), Y: v}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to create equity graph: %w", err)
	}
	p.Add(line)

	return p, nil
}

func saveStacked(path string, plots []*plot.Plot, heights []float64, w, h int) (err error) {
	var axis []*plot.Axis
	for _, p := range plots {
		axis = append(axis, &p.X)
	}
	plotext.UniteAxisRanges(axis)

	tbl := plotext.Table{
		RowHeights: heights,
		ColWidths:  []float64{1},
	}

	var plots2d [][]*plot.Plot
	for _, p := range plots {
		plots2d = append(plots2d, []*plot.Plot{p})
	}

	total := 0.0
	for _, v := range heights {
		total += v * float64(h)
	}

	img := vgimg.New(vg.Points(float64(w)), vg.Points(total))
	dc := draw.New(img)

	canvases := tbl.Align(plots2d, dc)
	for i, p := range plots {
		p.Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write plot to file: %w", err)
	}

	return nil
}
