// Package plot renders motion timeline charts with gonum/plot.
package plot

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/framelens/framelens-engine/internal/domain/entity"
	"github.com/framelens/framelens-engine/internal/domain/port"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// TimelinePlotter renders bucketed motion intensity as a filled line chart
// with a dashed baseline.
type TimelinePlotter struct{}

func NewTimelinePlotter() *TimelinePlotter { return &TimelinePlotter{} }

func (tp *TimelinePlotter) Available() bool { return true }

func (tp *TimelinePlotter) RenderTimeline(title string, buckets []port.TimelineBucket, bucketSeconds, baseline float64) ([]byte, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "motion intensity"
	p.Add(plotter.NewGrid())

	xys := make(plotter.XYs, len(buckets))
	for i, b := range buckets {
		xys[i].X = b.Midpoint
		xys[i].Y = b.Intensity
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("timeline series: %w", err)
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	line.FillColor = color.RGBA{R: 31, G: 119, B: 180, A: 64}
	p.Add(line)

	if len(buckets) > 0 && baseline > 0 {
		base, err := plotter.NewLine(plotter.XYs{
			{X: buckets[0].Midpoint, Y: baseline},
			{X: buckets[len(buckets)-1].Midpoint, Y: baseline},
		})
		if err != nil {
			return nil, fmt.Errorf("baseline series: %w", err)
		}
		base.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
		base.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(base)
		p.Legend.Add("baseline", base)
	}

	wt, err := p.WriterTo(10*vg.Inch, 3.5*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("render timeline: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode timeline png: %w", err)
	}
	return buf.Bytes(), nil
}

// Unavailable satisfies the plotter port when charting is disabled.
// Detection results still work; only the rendered image is refused.
type Unavailable struct {
	Reason string
}

func (u Unavailable) Available() bool { return false }

func (u Unavailable) RenderTimeline(string, []port.TimelineBucket, float64, float64) ([]byte, error) {
	return nil, entity.NewError(entity.KindDependencyUnavailable, "timeline chart unavailable: %s", u.Reason)
}
