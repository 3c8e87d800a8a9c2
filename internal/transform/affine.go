package transform

import (
	"math"
	"strconv"

	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/evserror"
)

// AffineFactor implements the "a*x + b*d + c" arithmetic used by value
// expressions like "--map abs:z abs:z:30-4x+d": Absolute scales the
// current value, Relative scales the delta since the previous value, and
// Addition is the constant term.
type AffineFactor struct {
	Absolute float64
	Relative float64
	Addition float64
}

// Merge computes the new value of event under this factor. The relative
// term is computed as floor(value*r) - floor(previous_value*r) rather
// than delta*r directly, to avoid accumulating rounding error across a
// long chain of small deltas.
func (f AffineFactor) Merge(event evmodel.Event) evmodel.Event {
	absoluteFactor := f.Absolute * float64(event.Value)
	relativeFactor := math.Floor(float64(event.Value)*f.Relative) - math.Floor(float64(event.PreviousValue)*f.Relative)

	event.Value = int32(math.Trunc(absoluteFactor+f.Addition) + relativeFactor)
	return event
}

// MergeCap computes the interval a capability's values map to under this
// factor, accounting for the relative term by assuming the largest
// possible per-sample delta within the original interval.
func (f AffineFactor) MergeCap(cap_ capset.Capability) capset.Capability {
	min := boundToFloat(cap_.ValueInterval.Min, math.Inf(-1))
	max := boundToFloat(cap_.ValueInterval.Max, math.Inf(1))

	truncMin := math.Trunc(mulZero(min, f.Absolute) + f.Addition)
	truncMax := math.Trunc(mulZero(max, f.Absolute) + f.Addition)

	relativeSpan := mulZero(f.Relative, max-min)

	boundaries := [4]float64{
		truncMin - relativeSpan, truncMin + relativeSpan,
		truncMax - relativeSpan, truncMax + relativeSpan,
	}

	anyNaN := false
	lower, upper := boundaries[0], boundaries[0]
	for _, b := range boundaries {
		if math.IsNaN(b) {
			anyNaN = true
			break
		}
		if b < lower {
			lower = b
		}
		if b > upper {
			upper = b
		}
	}

	if anyNaN {
		cap_.ValueInterval = capset.Unbounded
	} else {
		cap_.ValueInterval = capset.Interval{
			Min: toI32Or(lower, capset.MinValue),
			Max: toI32Or(upper, capset.MaxValue),
		}
	}
	return cap_
}

// AsConstant reports whether this factor reduces to a plain constant
// value, i.e. it has no absolute or relative term.
func (f AffineFactor) AsConstant() (float64, bool) {
	if f.Absolute == 0 && f.Relative == 0 {
		return f.Addition, true
	}
	return 0, false
}

// boundToFloat converts an interval endpoint to a float, treating the
// sentinel MinValue/MaxValue (an unbounded end) as the corresponding
// infinity so arithmetic on it propagates unboundedness the way the
// original's Option<f64>-based range type does.
func boundToFloat(v int32, infinity float64) float64 {
	if v == capset.MinValue || v == capset.MaxValue {
		return infinity
	}
	return float64(v)
}

func mulZero(x, y float64) float64 {
	if x == 0 || y == 0 {
		return 0
	}
	return x * y
}

func toI32Or(v float64, fallback int32) int32 {
	if math.IsNaN(v) {
		return fallback
	}
	if v < float64(capset.MinValue) {
		return capset.MinValue
	}
	if v > float64(capset.MaxValue) {
		return capset.MaxValue
	}
	return int32(v)
}

type affineVariable int

const (
	affineVarValue affineVariable = iota
	affineVarDelta
	affineVarOne
)

type affineSign int

const (
	affineSignPositive affineSign = iota
	affineSignNegative
)

type affinePart struct {
	sign     affineSign
	isSign   bool
	numeric  string
	isNum    bool
	variable affineVariable
	isVar    bool
}

func lexAffineParts(source string) ([]affinePart, error) {
	var parts []affinePart
	for _, ch := range source {
		switch {
		case ch == '-':
			parts = append(parts, affinePart{isSign: true, sign: affineSignNegative})
		case ch == '+':
			parts = append(parts, affinePart{isSign: true, sign: affineSignPositive})
		case ch >= '0' && ch <= '9' || ch == '.':
			if len(parts) > 0 && parts[len(parts)-1].isNum {
				parts[len(parts)-1].numeric += string(ch)
			} else {
				parts = append(parts, affinePart{isNum: true, numeric: string(ch)})
			}
		case ch == 'x':
			parts = append(parts, affinePart{isVar: true, variable: affineVarValue})
		case ch == 'd':
			parts = append(parts, affinePart{isVar: true, variable: affineVarDelta})
		default:
			return nil, evserror.NewArgument("invalid character in affine expression: %q", string(ch))
		}
	}
	return parts, nil
}

type affineComponent struct {
	factor   float64
	variable affineVariable
}

func lexAffineComponents(source string) ([]affineComponent, error) {
	parts, err := lexAffineParts(source)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, evserror.NewArgument("empty affine value")
	}
	if !parts[0].isSign {
		parts = append([]affinePart{{isSign: true, sign: affineSignPositive}}, parts...)
	}

	var components []affineComponent
	i := 0
	for i < len(parts) {
		if !parts[i].isSign {
			return nil, evserror.NewArgument("expected sign in affine expression, found something else")
		}
		sign := parts[i].sign
		i++
		if i >= len(parts) {
			return nil, evserror.NewArgument("invalid affine expression")
		}

		var numeric string
		var variable affineVariable
		switch {
		case parts[i].isVar:
			numeric = "1"
			variable = parts[i].variable
			i++
		case parts[i].isNum:
			numeric = parts[i].numeric
			i++
			if i < len(parts) && parts[i].isVar {
				variable = parts[i].variable
				i++
			} else {
				variable = affineVarOne
			}
		default:
			return nil, evserror.NewArgument("invalid affine expression")
		}

		var number float64
		if variable == affineVarOne {
			n, err := strconv.ParseInt(numeric, 10, 32)
			if err != nil {
				return nil, evserror.NewArgument("cannot parse affine factor as integer: %v", err)
			}
			number = float64(n)
		} else {
			n, err := strconv.ParseFloat(numeric, 64)
			if err != nil {
				return nil, evserror.NewArgument("cannot parse affine factor as number: %v", err)
			}
			number = n
		}

		factor := number
		if sign == affineSignNegative {
			factor = -number
		}
		components = append(components, affineComponent{factor: factor, variable: variable})
	}
	return components, nil
}

// ParseAffineFactor interprets a value expression such as "30-4x+d" into
// an AffineFactor.
func ParseAffineFactor(source string) (AffineFactor, error) {
	components, err := lexAffineComponents(source)
	if err != nil {
		return AffineFactor{}, err
	}
	var result AffineFactor
	for _, c := range components {
		switch c.variable {
		case affineVarValue:
			result.Absolute += c.factor
		case affineVarDelta:
			result.Relative += c.factor
		case affineVarOne:
			result.Addition += c.factor
		}
	}
	return result, nil
}
