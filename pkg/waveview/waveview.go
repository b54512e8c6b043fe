// Package waveview renders the APU's optional waveform tap (see
// gameboy.WithWaveformTap) to a PNG image, for debugging channel
// mixing and envelope/sweep behavior without an audio device.
package waveview

import (
	"image"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Tap is an audio.Producer that records the last capacity stereo
// sample pairs into a ring buffer for later rendering. Pass one to
// gameboy.WithWaveformTap to observe the mixed output stream.
type Tap struct {
	mu       sync.Mutex
	left     []float64
	right    []float64
	capacity int
	pos      int
	filled   bool
}

// NewTap returns a Tap retaining the most recent capacity samples.
func NewTap(capacity int) *Tap {
	return &Tap{
		left:     make([]float64, capacity),
		right:    make([]float64, capacity),
		capacity: capacity,
	}
}

// PushStereo implements audio.Producer.
func (t *Tap) PushStereo(left, right float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.left[t.pos] = float64(left)
	t.right[t.pos] = float64(right)
	t.pos++
	if t.pos == t.capacity {
		t.pos = 0
		t.filled = true
	}
}

// Samples returns the recorded window in chronological order.
func (t *Tap) Samples() (left, right []float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.pos
	if t.filled {
		n = t.capacity
	}
	left = make([]float64, n)
	right = make([]float64, n)
	if !t.filled {
		copy(left, t.left[:n])
		copy(right, t.right[:n])
		return left, right
	}
	copy(left, t.left[t.pos:])
	copy(left[t.capacity-t.pos:], t.left[:t.pos])
	copy(right, t.right[t.pos:])
	copy(right[t.capacity-t.pos:], t.right[:t.pos])
	return left, right
}

// Render draws the tap's current window as a stacked L/R line plot and
// returns the rasterized image at the given pixel size.
func Render(t *Tap, width, height int) (image.Image, error) {
	left, right := t.Samples()

	p := plot.New()
	p.Title.Text = "APU output"
	p.Y.Min, p.Y.Max = -1.1, 1.1

	leftPts := make(plotter.XYs, len(left))
	for i, v := range left {
		leftPts[i].X = float64(i)
		leftPts[i].Y = v
	}
	rightPts := make(plotter.XYs, len(right))
	for i, v := range right {
		rightPts[i].X = float64(i)
		rightPts[i].Y = v - 2.2 // offset below the left channel trace
	}

	leftLine, err := plotter.NewLine(leftPts)
	if err != nil {
		return nil, err
	}
	rightLine, err := plotter.NewLine(rightPts)
	if err != nil {
		return nil, err
	}
	p.Add(leftLine, rightLine)
	p.Legend.Add("L", leftLine)
	p.Legend.Add("R", rightLine)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	c := vgimg.NewWith(vgimg.UseImage(img))
	p.Draw(draw.New(c))
	return c.Image(), nil
}
