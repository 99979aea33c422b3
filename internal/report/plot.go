// Package report renders session output for humans: spectrum plots and
// reading tables.
package report

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/spectrum"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	spectrumColor = color.RGBA{R: 30, G: 110, B: 200, A: 255}
	bandColor     = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	peakColor     = color.RGBA{R: 220, G: 40, B: 40, A: 255}
)

// SpectrumPlot describes one rendered spectrum.
type SpectrumPlot struct {
	Title  string
	Points []model.SpectrumPoint
	Band   spectrum.Band
	PeakHz float64 // marked when > 0
	MaxHz  float64 // x-axis limit; 0 shows every bin
}

// Plot builds the gonum plot. The band edges are dashed vertical lines.
func (sp SpectrumPlot) Plot() (*plot.Plot, error) {
	if len(sp.Points) == 0 {
		return nil, errors.New("empty spectrum")
	}
	band := sp.Band
	if band.HighHz <= band.LowHz {
		band = spectrum.HeartBand
	}

	p := plot.New()
	p.Title.Text = sp.Title
	p.X.Label.Text = "Frequency (Hz)"
	p.Y.Label.Text = "Magnitude"

	pts := make(plotter.XYs, 0, len(sp.Points))
	var top float64
	for _, pt := range sp.Points {
		if sp.MaxHz > 0 && pt.FrequencyHz > sp.MaxHz {
			break
		}
		pts = append(pts, plotter.XY{X: pt.FrequencyHz, Y: pt.Magnitude})
		top = max(top, pt.Magnitude)
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("no bins below %.2f Hz", sp.MaxHz)
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("spectrum line: %w", err)
	}
	line.Color = spectrumColor
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("spectrum", line)

	for _, edge := range []float64{band.LowHz, band.HighHz} {
		l, err := plotter.NewLine(plotter.XYs{{X: edge, Y: 0}, {X: edge, Y: top}})
		if err != nil {
			return nil, fmt.Errorf("band edge: %w", err)
		}
		l.Color = bandColor
		l.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(l)
	}

	if sp.PeakHz > 0 {
		peak := plotter.XYs{{X: sp.PeakHz, Y: magnitudeAt(sp.Points, sp.PeakHz)}}
		sc, err := plotter.NewScatter(peak)
		if err != nil {
			return nil, fmt.Errorf("peak marker: %w", err)
		}
		sc.Color = peakColor
		sc.Radius = vg.Points(3)
		p.Add(sc)
		p.Legend.Add(fmt.Sprintf("peak %.0f bpm", sp.PeakHz*60), sc)
	}
	p.Legend.Top = true

	return p, nil
}

// WritePNG renders the plot as a 10x4 inch PNG.
func (sp SpectrumPlot) WritePNG(w io.Writer) error {
	p, err := sp.Plot()
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render spectrum: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func magnitudeAt(points []model.SpectrumPoint, hz float64) float64 {
	best, dist := 0.0, -1.0
	for _, pt := range points {
		d := pt.FrequencyHz - hz
		if d < 0 {
			d = -d
		}
		if dist < 0 || d < dist {
			best, dist = pt.Magnitude, d
		}
	}
	return best
}
