package cliarg

import (
	"strconv"
	"strings"
	"time"

	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/evserror"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/transform"
)

func compileMerge(g Group) (*transform.Merge, error) {
	var keyStrs []string
	if len(g.Keys) == 0 {
		keyStrs = []string{"key"}
	} else {
		keyStrs = g.Keys
	}
	keys, err := (keyfilter.Parser{Namespace: evmodel.NamespaceUser}).ParseAll(keyStrs)
	if err != nil {
		return nil, err
	}
	return transform.NewMerge(keys), nil
}

func compileDelay(g Group) (*transform.Delay, error) {
	keys, err := (keyfilter.Parser{Namespace: evmodel.NamespaceUser}).ParseAll(g.KeysOrEmptyKey())
	if err != nil {
		return nil, err
	}
	periodStr, err := g.RequireUniqueClause("period")
	if err != nil {
		return nil, err
	}
	period, err := ParsePeriod(periodStr)
	if err != nil {
		return nil, err
	}
	return transform.NewDelay(keys, period), nil
}

// ParsePeriod parses a number of seconds with up to nanosecond precision,
// e.g. "1", "2.04", "0.000082339". Shared by --delay, --hook's period=
// clause and --oscillate.
func ParsePeriod(value string) (time.Duration, error) {
	if value == "" {
		return 0, evserror.NewArgument("empty period specified")
	}
	if value[0] == '-' {
		return 0, evserror.NewArgument("the period must be nonnegative")
	}

	beforeDecimal, afterDecimal, hasDecimal := strings.Cut(value, ".")
	seconds, err := strconv.ParseUint(beforeDecimal, 10, 64)
	if err != nil {
		return 0, evserror.NewArgument("cannot interpret %q as a number", value)
	}

	var nanoseconds uint64
	if hasDecimal {
		if len(afterDecimal) > 9 {
			return 0, evserror.NewArgument("cannot specify time periods with higher than nanosecond precision")
		}
		fraction, err := strconv.ParseUint(afterDecimal, 10, 64)
		if err != nil {
			return 0, evserror.NewArgument("cannot interpret %q as a number", value)
		}
		for i := len(afterDecimal); i < 9; i++ {
			fraction *= 10
		}
		nanoseconds = fraction
	}

	total := seconds*1_000_000_000 + nanoseconds
	if total == 0 {
		return 0, evserror.NewArgument("cannot specify a period of zero")
	}
	return time.Duration(total), nil
}

func compileScale(g Group) (*transform.Scale, error) {
	var keyStrs []string
	if len(g.Keys) == 0 {
		keyStrs = []string{"abs", "rel"}
	} else {
		keyStrs = g.Keys
	}
	keys, err := (keyfilter.Parser{Namespace: evmodel.NamespaceUser}).ParseAll(keyStrs)
	if err != nil {
		return nil, err
	}

	factorStr, err := g.RequireUniqueClause("factor")
	if err != nil {
		return nil, err
	}
	factor, err := strconv.ParseFloat(factorStr, 64)
	if err != nil {
		return nil, evserror.NewArgument("cannot interpret the factor %q as a number", factorStr)
	}

	return transform.NewScale(keys, factor), nil
}

func compileOscillate(g Group) (*transform.Oscillator, error) {
	keys, err := (keyfilter.Parser{Namespace: evmodel.NamespaceUser}).ParseAll(g.KeysOrEmptyKey())
	if err != nil {
		return nil, err
	}

	periodStr, err := g.RequireUniqueClause("period")
	if err != nil {
		return nil, err
	}
	period, err := ParsePeriod(periodStr)
	if err != nil {
		return nil, err
	}
	if period < 2 {
		return nil, evserror.NewArgument("the period must be at least two nanoseconds")
	}

	activeTime := (period + 1) / 2
	inactiveTime := period - activeTime
	return transform.NewOscillator(keys, activeTime, inactiveTime), nil
}

func compileAbsToRel(g Group) (*transform.AbsToRel, error) {
	keyStrs, err := g.RequireKeys()
	if err != nil {
		return nil, err
	}
	inputKey, err := (keyfilter.Parser{AllowRanges: true, Namespace: evmodel.NamespaceUser}).Parse(keyStrs[0])
	if err != nil {
		return nil, err
	}
	outputKey := inputKey
	if len(keyStrs) > 1 {
		outputKey, err = (keyfilter.Parser{Namespace: evmodel.NamespaceUser}).Parse(keyStrs[1])
		if err != nil {
			return nil, err
		}
	}
	resetKeys, err := (keyfilter.Parser{AllowRanges: true, Namespace: evmodel.NamespaceUser}).ParseAll(g.Clauses("reset"))
	if err != nil {
		return nil, err
	}
	return transform.NewAbsToRel(inputKey, outputKey, resetKeys), nil
}

func compileRelToAbs(g Group) (*transform.RelToAbs, error) {
	keyStrs, err := g.RequireKeys()
	if err != nil {
		return nil, err
	}
	inputKey, err := (keyfilter.Parser{Namespace: evmodel.NamespaceUser}).Parse(keyStrs[0])
	if err != nil {
		return nil, err
	}
	outputKey := inputKey
	if len(keyStrs) > 1 {
		outputKey, err = (keyfilter.Parser{Namespace: evmodel.NamespaceUser}).Parse(keyStrs[1])
		if err != nil {
			return nil, err
		}
	}

	minStr, err := g.RequireUniqueClause("min")
	if err != nil {
		return nil, err
	}
	maxStr, err := g.RequireUniqueClause("max")
	if err != nil {
		return nil, err
	}
	min, err := strconv.ParseInt(minStr, 10, 32)
	if err != nil {
		return nil, evserror.NewArgument("cannot interpret min=%q as an integer", minStr)
	}
	max, err := strconv.ParseInt(maxStr, 10, 32)
	if err != nil {
		return nil, evserror.NewArgument("cannot interpret max=%q as an integer", maxStr)
	}
	if max < min {
		return nil, evserror.NewArgument("max=%d cannot be smaller than min=%d", max, min)
	}

	return transform.NewRelToAbs(inputKey, outputKey, capset.NewInterval(int32(min), int32(max)), g.HasFlag("wrap")), nil
}
