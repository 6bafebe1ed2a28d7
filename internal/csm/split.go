package csm

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/midgard-csm/pkg/math"
)

// DefaultPercentages are the cumulative split fractions of the default
// four-cascade schedule (6.7%, 13.3%, 26.7%, 53.3% of far).
var DefaultPercentages = []float32{0.067, 0.200, 0.467}

// DefaultLambda is the practical split weight DefaultSplit uses for cascade
// counts the percentage schedule does not cover.
const DefaultLambda = 0.5

// Cascade is one contiguous depth range of the main camera frustum.
type Cascade struct {
	Index int
	Near  float32
	Far   float32
}

// Depth returns the length of the range.
func (c Cascade) Depth() float32 {
	return c.Far - c.Near
}

// SplitPolicy chooses where the main camera's depth range is cut.
type SplitPolicy interface {
	// Name identifies the policy in configuration and logs.
	Name() string
	// Splits returns the n-1 interior split distances for [near, far], in
	// increasing order.
	Splits(near, far float32, n int) ([]float32, error)
}

// PercentageSplit places boundary k at near + far*Cumulative[k].
// Cumulative must hold exactly n-1 increasing fractions in (0, 1).
type PercentageSplit struct {
	Cumulative []float32
}

func (PercentageSplit) Name() string { return "percentage" }

func (p PercentageSplit) Splits(near, far float32, n int) ([]float32, error) {
	if len(p.Cumulative) != n-1 {
		return nil, &InvalidRangeError{Near: near, Far: far, Count: n,
			Reason: fmt.Sprintf("percentage schedule has %d boundaries, need %d", len(p.Cumulative), n-1)}
	}
	out := make([]float32, n-1)
	prev := float32(0)
	for i, f := range p.Cumulative {
		if !math.IsFinite(f) || f <= prev || f >= 1 {
			return nil, &InvalidRangeError{Near: near, Far: far, Count: n,
				Reason: fmt.Sprintf("percentage %d (%g) must increase within (0, 1)", i, f)}
		}
		prev = f
		out[i] = near + far*f
	}
	return out, nil
}

// UniformSplit divides the range into equal lengths.
type UniformSplit struct{}

func (UniformSplit) Name() string { return "uniform" }

func (UniformSplit) Splits(near, far float32, n int) ([]float32, error) {
	out := make([]float32, n-1)
	for i := range out {
		out[i] = uniformSplit(near, far, i+1, n)
	}
	return out, nil
}

// LogarithmicSplit keeps the far/near ratio equal across cascades. near must be > 0.
type LogarithmicSplit struct{}

func (LogarithmicSplit) Name() string { return "logarithmic" }

func (LogarithmicSplit) Splits(near, far float32, n int) ([]float32, error) {
	if near <= 0 {
		return nil, &InvalidRangeError{Near: near, Far: far, Count: n, Reason: "logarithmic split needs near > 0"}
	}
	out := make([]float32, n-1)
	for i := range out {
		out[i] = logSplit(near, far, i+1, n)
	}
	return out, nil
}

// PracticalSplit blends logarithmic and uniform splits:
// Lambda 1 is fully logarithmic, 0 fully uniform.
type PracticalSplit struct {
	Lambda float32
}

func (PracticalSplit) Name() string { return "practical" }

func (p PracticalSplit) Splits(near, far float32, n int) ([]float32, error) {
	if !math.IsFinite(p.Lambda) || p.Lambda < 0 || p.Lambda > 1 {
		return nil, &InvalidRangeError{Near: near, Far: far, Count: n,
			Reason: fmt.Sprintf("practical split lambda %g outside [0, 1]", p.Lambda)}
	}
	if near <= 0 && p.Lambda > 0 {
		return nil, &InvalidRangeError{Near: near, Far: far, Count: n, Reason: "practical split needs near > 0"}
	}
	out := make([]float32, n-1)
	for i := range out {
		u := uniformSplit(near, far, i+1, n)
		l := u
		if p.Lambda > 0 {
			l = logSplit(near, far, i+1, n)
		}
		out[i] = p.Lambda*l + (1-p.Lambda)*u
	}
	return out, nil
}

func uniformSplit(near, far float32, i, n int) float32 {
	return near + (far-near)*float32(i)/float32(n)
}

func logSplit(near, far float32, i, n int) float32 {
	return near * float32(gomath.Pow(float64(far/near), float64(i)/float64(n)))
}

// DefaultSplit uses DefaultPercentages when there are exactly four cascades
// and a practical split with DefaultLambda for any other count. With near at
// zero the practical split degrades to uniform.
type DefaultSplit struct{}

func (DefaultSplit) Name() string { return "default" }

func (DefaultSplit) Splits(near, far float32, n int) ([]float32, error) {
	if n-1 == len(DefaultPercentages) {
		return PercentageSplit{Cumulative: DefaultPercentages}.Splits(near, far, n)
	}
	if near <= 0 {
		return UniformSplit{}.Splits(near, far, n)
	}
	return PracticalSplit{Lambda: DefaultLambda}.Splits(near, far, n)
}

// DefaultSplitPolicy returns DefaultSplit.
func DefaultSplitPolicy() SplitPolicy {
	return DefaultSplit{}
}

// NewSplitPolicy builds a policy by name. percentages is used by the
// percentage policy, lambda by the practical policy.
func NewSplitPolicy(name string, percentages []float32, lambda float32) (SplitPolicy, error) {
	switch name {
	case "", "default":
		return DefaultSplitPolicy(), nil
	case "percentage":
		if len(percentages) == 0 {
			return DefaultSplitPolicy(), nil
		}
		return PercentageSplit{Cumulative: append([]float32(nil), percentages...)}, nil
	case "uniform":
		return UniformSplit{}, nil
	case "logarithmic", "log":
		return LogarithmicSplit{}, nil
	case "practical", "pssm":
		return PracticalSplit{Lambda: lambda}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSplitPolicy, name)
	}
}

// Split partitions [near, far] into n contiguous cascades using policy
// (DefaultSplitPolicy when nil).
func Split(near, far float32, n int, policy SplitPolicy) ([]Cascade, error) {
	return SplitInto(nil, near, far, n, policy)
}

// SplitInto is Split writing into dst, reusing its storage when large enough.
// Interior boundaries are clamped into [previous, far], so the result always
// starts at near, ends exactly at far and never decreases.
func SplitInto(dst []Cascade, near, far float32, n int, policy SplitPolicy) ([]Cascade, error) {
	if n < 1 {
		return dst[:0], &InvalidRangeError{Near: near, Far: far, Count: n, Reason: "cascade count must be at least 1"}
	}
	if !math.IsFinite(near) || !math.IsFinite(far) {
		return dst[:0], &InvalidRangeError{Near: near, Far: far, Count: n, Reason: "range is not finite"}
	}
	if near < 0 {
		return dst[:0], &InvalidRangeError{Near: near, Far: far, Count: n, Reason: "near must not be negative"}
	}
	if far <= near {
		return dst[:0], &InvalidRangeError{Near: near, Far: far, Count: n, Reason: "far must be greater than near"}
	}
	if policy == nil {
		policy = DefaultSplitPolicy()
	}

	interior, err := policy.Splits(near, far, n)
	if err != nil {
		return dst[:0], err
	}
	if len(interior) != n-1 {
		return dst[:0], &InvalidRangeError{Near: near, Far: far, Count: n,
			Reason: fmt.Sprintf("policy %s returned %d splits, need %d", policy.Name(), len(interior), n-1)}
	}

	if cap(dst) < n {
		dst = make([]Cascade, n)
	}
	dst = dst[:n]

	prev := near
	for i := 0; i < n; i++ {
		next := far
		if i < n-1 {
			s := interior[i]
			if !math.IsFinite(s) {
				return dst[:0], &InvalidRangeError{Near: near, Far: far, Count: n,
					Reason: fmt.Sprintf("policy %s produced non-finite split %d", policy.Name(), i)}
			}
			next = min(max(s, prev), far)
		}
		dst[i] = Cascade{Index: i, Near: prev, Far: next}
		prev = next
	}
	return dst, nil
}
