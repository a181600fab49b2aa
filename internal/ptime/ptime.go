// Package ptime times each pipeline phase (parse, layout, synthesis,
// emission, build) using the module's own wall-clock timer, which has
// no external dependencies and fits this role directly.
package ptime

import (
	"github.com/sirupsen/logrus"

	"github.com/annc-dev/annc/timer"
)

// Phases accumulates one timer.Time per named compiler phase.
type Phases struct {
	times map[string]*timer.Time
	order []string
}

// NewPhases returns an empty Phases tracker.
func NewPhases() *Phases {
	return &Phases{times: make(map[string]*timer.Time)}
}

// Track runs fn, timing it under name, and logs the elapsed duration at
// debug level.
func (p *Phases) Track(name string, fn func() error) error {
	t, ok := p.times[name]
	if !ok {
		t = &timer.Time{}
		p.times[name] = t
		p.order = append(p.order, name)
	}
	t.Start()
	err := fn()
	elapsed := t.Stop()
	logrus.WithFields(logrus.Fields{"phase": name, "elapsed": elapsed}).Debug("compiler: phase complete")
	return err
}

// Report returns each tracked phase's total duration in seconds, keyed
// by phase name.
func (p *Phases) Report() map[string]float64 {
	out := make(map[string]float64, len(p.order))
	for _, name := range p.order {
		out[name] = p.times[name].TotalSecs()
	}
	return out
}
