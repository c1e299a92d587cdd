// Package rotation schedules the daily drum-mixing events.
package rotation

// Scheduler fires each scheduled rotation at most once, within one
// time-step tolerance of its target instant. A rotation whose window is
// overshot (e.g. the run started late or a step was skipped) is permanently
// missed; the schedule never back-fills.
type Scheduler struct {
	times     []float64
	tolerance float64
	fired     map[int]bool
	rotating  bool
	lastFired float64
	count     int
}

// NewDaily schedules one rotation per day for the given number of days
// (day boundaries in seconds), with the step size as firing tolerance.
func NewDaily(days int, dt float64) *Scheduler {
	times := make([]float64, 0, days)
	for day := 1; day <= days; day++ {
		times = append(times, float64(day)*24*3600)
	}
	return New(times, dt)
}

// New schedules rotations at explicit instants [s].
func New(times []float64, tolerance float64) *Scheduler {
	return &Scheduler{
		times:     times,
		tolerance: tolerance,
		fired:     make(map[int]bool),
	}
}

// Check advances the scheduler to time t and reports whether a rotation
// fires at this instant. Re-querying the same timeline arbitrarily often
// fires each index at most once.
func (s *Scheduler) Check(t float64) bool {
	// A rotation lasts one step; clear the transient flag first.
	if s.rotating && t-s.lastFired >= s.tolerance {
		s.rotating = false
	}
	for i, target := range s.times {
		if s.fired[i] {
			continue
		}
		if t >= target && t-target <= s.tolerance {
			s.fired[i] = true
			s.rotating = true
			s.lastFired = t
			s.count++
			return true
		}
	}
	return false
}

// Rotating reports whether a rotation fired within the last time step.
func (s *Scheduler) Rotating() bool { return s.rotating }

// Count returns the number of rotations performed so far.
func (s *Scheduler) Count() int { return s.count }

// Scheduled returns the number of scheduled rotation instants.
func (s *Scheduler) Scheduled() int { return len(s.times) }
