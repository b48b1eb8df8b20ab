package rprof

import (
	"iter"

	"gonum.org/v1/gonum/floats"
)

// Averager accumulates a running mean of profiles of one variable over the
// step axis. Memory stays proportional to the cell count.
type Averager struct {
	mean  []float64
	diff  []float64
	first Profile
	n     int
	last  int
}

// Add folds p into the mean. A profile whose cell count differs from the
// first one is rejected with a *ShapeMismatchError and leaves the
// accumulated mean untouched.
func (a *Averager) Add(p Profile) error {
	if a.n == 0 {
		a.first = p
		a.mean = append([]float64(nil), p.Values...)
		a.diff = make([]float64, len(p.Values))
		a.n = 1
		a.last = p.Step
		return nil
	}
	if len(p.Values) != len(a.mean) {
		return &ShapeMismatchError{
			Variable: p.Meta.Name,
			Step:     p.Step,
			Want:     len(a.mean),
			Got:      len(p.Values),
		}
	}
	a.n++
	floats.SubTo(a.diff, p.Values, a.mean)
	floats.AddScaled(a.mean, 1/float64(a.n), a.diff)
	a.last = p.Step
	return nil
}

// Count returns the number of profiles added so far.
func (a *Averager) Count() int { return a.n }

// FirstStep returns the step number of the first profile added.
func (a *Averager) FirstStep() int { return a.first.Step }

// Profile returns the current mean. Radii and metadata come from the first
// profile added. The result does not alias the accumulator.
func (a *Averager) Profile() Profile {
	p := a.first
	p.Values = append([]float64(nil), a.mean...)
	p.Radii = append([]float64(nil), a.first.Radii...)
	p.Step = a.last
	return p
}

// Average consumes seq and returns the mean profile. An empty sequence
// yields a zero Profile and false.
func Average(seq iter.Seq[Profile]) (Profile, bool, error) {
	var avg Averager
	for p := range seq {
		if err := avg.Add(p); err != nil {
			return Profile{}, false, err
		}
	}
	if avg.Count() == 0 {
		return Profile{}, false, nil
	}
	return avg.Profile(), true, nil
}

// AverageSet keeps one independent Averager per variable.
type AverageSet struct {
	avgs  map[string]*Averager
	order []string
}

// NewAverageSet prepares averagers for names.
func NewAverageSet(names ...string) *AverageSet {
	s := &AverageSet{avgs: make(map[string]*Averager, len(names))}
	for _, n := range names {
		if _, ok := s.avgs[n]; ok {
			continue
		}
		s.avgs[n] = &Averager{}
		s.order = append(s.order, n)
	}
	return s
}

// Add folds a profile into the averager of its variable. Profiles for
// names the set was not built with are rejected as unknown.
func (s *AverageSet) Add(p Profile) error {
	a, ok := s.avgs[p.Meta.Name]
	if !ok {
		return &UnknownVariableError{Name: p.Meta.Name}
	}
	return a.Add(p)
}

// Averager returns the averager of name, or nil.
func (s *AverageSet) Averager(name string) *Averager { return s.avgs[name] }

// Names returns the variable names in insertion order.
func (s *AverageSet) Names() []string { return s.order }

// Profiles returns the current mean of every variable that received at
// least one profile.
func (s *AverageSet) Profiles() map[string]Profile {
	out := make(map[string]Profile, len(s.avgs))
	for n, a := range s.avgs {
		if a.Count() > 0 {
			out[n] = a.Profile()
		}
	}
	return out
}
