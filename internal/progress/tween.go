package progress

import (
	"time"

	"nutrilog/internal/clock"
)

// DefaultDuration is the length of one transition.
const DefaultDuration = 500 * time.Millisecond

type State int

const (
	Idle State = iota
	Animating
)

func (s State) String() string {
	if s == Animating {
		return "animating"
	}
	return "idle"
}

// EaseOutQuad decelerates towards the end of the transition.
func EaseOutQuad(p float64) float64 {
	return 1 - (1-p)*(1-p)
}

// Tween interpolates one number towards a target over a fixed duration.
// It is not safe for concurrent use.
type Tween struct {
	clock    clock.Clock
	duration time.Duration

	state State
	from  float64
	to    float64
	start time.Time
}

func NewTween(initial float64, duration time.Duration, clk clock.Clock) *Tween {
	if clk == nil {
		clk = clock.System{}
	}
	return &Tween{clock: clk, duration: duration, from: initial, to: initial}
}

// State settles a finished animation before reporting.
func (t *Tween) State() State {
	t.Value()
	return t.state
}

func (t *Tween) Target() float64 { return t.to }

// Value returns the displayed value at the clock's current time.
func (t *Tween) Value() float64 {
	if t.state == Idle {
		return t.to
	}
	elapsed := t.clock.Now().Sub(t.start)
	if elapsed >= t.duration {
		t.state = Idle
		t.from = t.to
		return t.to
	}
	if elapsed < 0 {
		elapsed = 0
	}
	p := float64(elapsed) / float64(t.duration)
	return t.from + (t.to-t.from)*EaseOutQuad(p)
}

// SetTarget starts a transition from the currently displayed value. Setting
// the current target again changes nothing and reports false.
func (t *Tween) SetTarget(v float64) bool {
	if v == t.to {
		return false
	}
	current := t.Value()
	t.to = v
	if t.duration <= 0 {
		t.state = Idle
		t.from = v
		return true
	}
	t.from = current
	t.start = t.clock.Now()
	t.state = Animating
	return true
}
