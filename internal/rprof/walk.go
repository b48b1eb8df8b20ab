package rprof

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// StepHandle is a lightweight reference to one step, carrying everything
// the Accessor needs.
type StepHandle struct {
	Slice
}

// Step returns the step number.
func (h StepHandle) Step() int { return h.Marker.Step }

// Time returns the simulated time of the step.
func (h StepHandle) Time() float64 { return h.Marker.Time }

// StepFilter selects steps during a walk. total is the number of steps in
// the index.
type StepFilter func(h StepHandle, total int) bool

// HasProfiles keeps steps that carry at least one cell.
func HasProfiles(h StepHandle, _ int) bool { return h.Cells > 0 }

// Walk returns a lazy sequence of the steps accepted by every filter, in
// increasing step order. Each call to the returned function restarts the
// walk; walking never modifies the index.
func (x *Index) Walk(filters ...StepFilter) iter.Seq[StepHandle] {
	return func(yield func(StepHandle) bool) {
		total := len(x.markers)
		for ord := 0; ord < total; ord++ {
			h := StepHandle{Slice: x.sliceAt(ord)}
			if !accept(h, total, filters) {
				continue
			}
			if !yield(h) {
				return
			}
		}
	}
}

func accept(h StepHandle, total int, filters []StepFilter) bool {
	for _, f := range filters {
		if !f(h, total) {
			return false
		}
	}
	return true
}

// Range selects ordinals the way a Python slice start:stop:stride does.
// Nil Start or Stop means open-ended; negative values count from the end.
type Range struct {
	Start  *int
	Stop   *int
	Stride int
}

// ParseRange parses "start:stop:stride"; every part is optional, so ":",
// "::2", "-1:" and "5" (a single ordinal) are all valid.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{Stride: 1}, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return Range{}, fmt.Errorf("invalid step range %q: too many fields", s)
	}
	vals := make([]*int, 3)
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return Range{}, fmt.Errorf("invalid step range %q: %w", s, err)
		}
		vals[i] = &v
	}
	r := Range{Start: vals[0], Stop: vals[1], Stride: 1}
	if len(parts) == 1 && vals[0] != nil {
		// A bare index selects a single step.
		stop := *vals[0] + 1
		if stop == 0 {
			r.Stop = nil
		} else {
			r.Stop = &stop
		}
	}
	if vals[2] != nil {
		if *vals[2] <= 0 {
			return Range{}, fmt.Errorf("invalid step range %q: stride must be positive", s)
		}
		r.Stride = *vals[2]
	}
	return r, nil
}

// bounds resolves the range against n steps.
func (r Range) bounds(n int) (start, stop, stride int) {
	stride = r.Stride
	if stride <= 0 {
		stride = 1
	}
	clamp := func(p *int, def int) int {
		if p == nil {
			return def
		}
		v := *p
		if v < 0 {
			v += n
		}
		return min(max(v, 0), n)
	}
	return clamp(r.Start, 0), clamp(r.Stop, n), stride
}

// Filter turns the range into a StepFilter over step ordinals.
func (r Range) Filter() StepFilter {
	return func(h StepHandle, total int) bool {
		start, stop, stride := r.bounds(total)
		return h.Ordinal >= start && h.Ordinal < stop && (h.Ordinal-start)%stride == 0
	}
}

func (r Range) String() string {
	f := func(p *int) string {
		if p == nil {
			return ""
		}
		return strconv.Itoa(*p)
	}
	return fmt.Sprintf("%s:%s:%d", f(r.Start), f(r.Stop), r.Stride)
}
