package monitor

import (
	"fmt"
	"image/color"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/velotrack/internal/monitoring"
	"github.com/banshee-data/velotrack/internal/security"
	"github.com/banshee-data/velotrack/internal/velo/l1hits"
	"github.com/banshee-data/velotrack/internal/velo/pipeline"
)

// Projection selects which transverse coordinate is drawn against z.
type Projection string

const (
	ProjectionXZ Projection = "xz"
	ProjectionYZ Projection = "yz"
)

var unassignedColor = color.RGBA{R: 160, G: 160, B: 160, A: 255}

// TrackPlotter renders PNG projections of a reconstructed event: every
// hit as a grey dot and every track as a coloured polyline through its
// hits.
type TrackPlotter struct {
	outputDir string
	width     vg.Length
	height    vg.Length
}

// NewTrackPlotter creates a plotter writing into outputDir.
func NewTrackPlotter(outputDir string) *TrackPlotter {
	return &TrackPlotter{
		outputDir: outputDir,
		width:     14 * vg.Inch,
		height:    6 * vg.Inch,
	}
}

// Plot writes one PNG per projection named <name>_<projection>.png, with
// name sanitised, and returns the paths written.
func (tp *TrackPlotter) Plot(res *pipeline.Result, name string) ([]string, error) {
	if err := os.MkdirAll(tp.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create plot dir: %w", err)
	}

	var written []string
	for _, proj := range []Projection{ProjectionXZ, ProjectionYZ} {
		p, err := tp.projection(res, proj)
		if err != nil {
			return written, fmt.Errorf("%s projection: %w", proj, err)
		}
		file, err := security.ArtifactPath(tp.outputDir, name, string(proj)+".png")
		if err != nil {
			return written, err
		}
		if err := p.Save(tp.width, tp.height, file); err != nil {
			return written, fmt.Errorf("save %s plot: %w", proj, err)
		}
		written = append(written, file)
	}

	monitoring.Logf("[monitor] wrote %d track plots to %s", len(written), tp.outputDir)
	return written, nil
}

func (tp *TrackPlotter) projection(res *pipeline.Result, proj Projection) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Tracks - %s projection (%d tracks)", proj, len(res.Tracks))
	p.X.Label.Text = "z"
	if proj == ProjectionXZ {
		p.Y.Label.Text = "x"
	} else {
		p.Y.Label.Text = "y"
	}

	all := make(plotter.XYs, 0, res.Store.NumHits())
	for h := range res.Store.All() {
		all = append(all, project(h, proj))
	}
	if len(all) > 0 {
		hits, err := plotter.NewScatter(all)
		if err != nil {
			return nil, err
		}
		hits.GlyphStyle.Color = unassignedColor
		hits.GlyphStyle.Radius = vg.Points(1)
		p.Add(hits)
	}

	colors := generateColors(len(res.Tracks))
	for i, t := range res.Tracks {
		pts := make(plotter.XYs, len(t.Hits))
		for j, h := range t.Hits {
			pts[j] = project(h, proj)
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
	}

	return p, nil
}

func project(h l1hits.Hit, proj Projection) plotter.XY {
	if proj == ProjectionXZ {
		return plotter.XY{X: h.Z, Y: h.X}
	}
	return plotter.XY{X: h.Z, Y: h.Y}
}

// generateColors creates a palette of distinct colors, one per track.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	if s == 0 {
		v := uint8(l * 255)
		return v, v, v
	}

	q := l + s - l*s
	if l < 0.5 {
		q = l * (1 + s)
	}
	p := 2*l - q
	return uint8(hueToRGB(p, q, h+1.0/3.0) * 255),
		uint8(hueToRGB(p, q, h) * 255),
		uint8(hueToRGB(p, q, h-1.0/3.0) * 255)
}

func hueToRGB(p, q, t float64) float64 {
	switch {
	case t < 0:
		t++
	case t > 1:
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}
