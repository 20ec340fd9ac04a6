package progress

import (
	"math"
	"sync"
	"time"

	"nutrilog/internal/clock"
)

// Frame is one rendering of the progress display.
type Frame struct {
	// Fill is the interpolated bar fraction in [0,1].
	Fill       float64
	TargetFill float64
	Band       Band
	Color      string
	// CategoryTotal and DailyTotal are the interpolated calorie displays.
	CategoryTotal int
	DailyTotal    int
	Animating     bool
}

type inputs struct {
	ratio         float64
	categoryTotal int
	dailyTotal    int
}

// Presenter holds the animation state of one progress display. Its three
// tweens restart only when an input actually changes.
type Presenter struct {
	mu       sync.Mutex
	last     inputs
	primed   bool
	fill     *Tween
	category *Tween
	daily    *Tween
}

func NewPresenter(duration time.Duration, clk clock.Clock) *Presenter {
	if duration < 0 {
		duration = 0
	}
	return &Presenter{
		fill:     NewTween(0, duration, clk),
		category: NewTween(0, duration, clk),
		daily:    NewTween(0, duration, clk),
	}
}

// Update feeds new numbers and reports whether they differ from the previous call.
func (p *Presenter) Update(ratio float64, categoryTotal, dailyTotal int) bool {
	if math.IsNaN(ratio) {
		ratio = 0
	}
	in := inputs{ratio: ratio, categoryTotal: categoryTotal, dailyTotal: dailyTotal}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.primed && in == p.last {
		return false
	}
	p.primed = true
	p.last = in
	p.fill.SetTarget(clampUnit(ratio))
	p.category.SetTarget(float64(categoryTotal))
	p.daily.SetTarget(float64(dailyTotal))
	return true
}

func (p *Presenter) Frame() Frame {
	p.mu.Lock()
	defer p.mu.Unlock()

	band := BandFor(p.last.ratio)
	return Frame{
		Fill:          p.fill.Value(),
		TargetFill:    p.fill.Target(),
		Band:          band,
		Color:         band.Color(),
		CategoryTotal: int(math.Round(p.category.Value())),
		DailyTotal:    int(math.Round(p.daily.Value())),
		Animating: p.fill.State() == Animating ||
			p.category.State() == Animating ||
			p.daily.State() == Animating,
	}
}
