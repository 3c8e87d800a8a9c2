package keyfilter

import (
	"strconv"
	"strings"

	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/ecodes"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/evserror"
)

// Parser describes how a key argument should be interpreted in the
// context it was encountered: the default value range to assume when none
// is written, and whether ranges or value-transitions are syntactically
// permitted there.
type Parser struct {
	DefaultValue      string
	AllowTransitions  bool
	AllowRanges       bool
	Namespace         evmodel.Namespace
	ResolveDomain     func(name string) (evmodel.Domain, error)
}

// Parse interprets one key string, e.g. "key:a", "btn:left:1", "abs:x:0~255@touchpad".
func (p Parser) Parse(keyStr string) (Key, error) {
	eventStr, domainStr, hasDomain := splitOnce(keyStr, "@")
	key, err := p.interpretKey(eventStr)
	if err != nil {
		return Key{}, err
	}
	if hasDomain {
		if p.ResolveDomain == nil {
			return Key{}, evserror.NewArgument("domains are not supported in this context (key %q)", keyStr)
		}
		domain, err := p.ResolveDomain(domainStr)
		if err != nil {
			return Key{}, err
		}
		key.add(property{kind: propDomain, domain: domain})
	}
	return key, nil
}

// ParseAll interprets each string in keyStrs in order, stopping at the
// first one that fails to parse.
func (p Parser) ParseAll(keyStrs []string) ([]Key, error) {
	keys := make([]Key, 0, len(keyStrs))
	for _, s := range keyStrs {
		k, err := p.Parse(s)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func (p Parser) interpretKey(keyStr string) (Key, error) {
	var key Key
	key.add(property{kind: propNamespace, namespace: p.Namespace})
	if keyStr == "" {
		return key, nil
	}

	parts := strings.Split(keyStr, ":")

	typeName := parts[0]
	evType, ok := ecodes.EventType(typeName)
	if !ok {
		return Key{}, evserror.NewArgument("could not interpret the key %q: unknown event type %q", keyStr, typeName)
	}
	if evType == evmodel.EvSyn {
		return Key{}, evserror.NewArgument("cannot use event type \"syn\": synchronisation events are managed automatically")
	}
	key.add(property{kind: propEvtype, evtype: evType})

	if len(parts) < 2 {
		return Key{}, evserror.NewArgument("no event code provided for the key %q", keyStr)
	}
	codeName := parts[1]
	code, ok := ecodes.EventCode(typeName, codeName)
	if !ok {
		return Key{}, evserror.NewArgument("could not interpret the key %q: unknown event code %q", keyStr, codeName)
	}
	key.add(property{kind: propCode, code: code})

	if ecodes.IsAbsMT(code) {
		// ABS_MT codes are treated like any other code; multitouch
		// semantics are not modelled and no warning is logged.
	}

	var valueStr string
	if len(parts) >= 3 {
		valueStr = parts[2]
	} else if p.DefaultValue == "" {
		return key, nil
	} else {
		valueStr = p.DefaultValue
	}

	beforeStr, afterStr, hasTransition := splitOnce(valueStr, "..")
	currentStr := beforeStr
	if hasTransition {
		currentStr = afterStr
	}

	current, err := p.interpretEventValue(currentStr, keyStr)
	if err != nil {
		return Key{}, err
	}
	key.add(property{kind: propValue, valRange: current})

	if hasTransition {
		if !p.AllowTransitions {
			return Key{}, evserror.NewArgument("no transitions are allowed in the key %q", keyStr)
		}
		previous, err := p.interpretEventValue(beforeStr, keyStr)
		if err != nil {
			return Key{}, err
		}
		key.add(property{kind: propPreviousValue, valRange: previous})
	}

	return key, nil
}

// interpretEventValue parses a string like "1", "0~1", "5~", "" into an
// Interval.
func (p Parser) interpretEventValue(valueStr, keyStr string) (capset.Interval, error) {
	if !p.AllowRanges && strings.Contains(valueStr, "~") {
		return capset.Interval{}, evserror.NewArgument("no ranges are allowed in the value %q", valueStr)
	}
	minStr, maxStr, hasRange := splitOnce(valueStr, "~")
	if !hasRange {
		maxStr = minStr
	}
	min, err := parseIntOrWildcard(minStr, capset.MinValue)
	if err != nil {
		return capset.Interval{}, err
	}
	max, err := parseIntOrWildcard(maxStr, capset.MaxValue)
	if err != nil {
		return capset.Interval{}, err
	}
	return capset.Interval{Min: min, Max: max}, nil
}

func parseIntOrWildcard(s string, wildcard int32) (int32, error) {
	if s == "" {
		return wildcard, nil
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, evserror.NewArgument("cannot interpret %q as an integer: %v", s, err)
	}
	return int32(v), nil
}

// ResemblesKey reports whether a string looks like it was meant to be a
// key argument, used to distinguish keys from paths and flags when
// parsing a heterogeneous argument list. It does not guarantee the string
// actually parses as a key, so that misspelled keys can still produce a
// helpful error instead of being silently treated as something else.
func ResemblesKey(s string) bool {
	if strings.HasPrefix(s, "/") {
		return false
	}
	parser := Parser{AllowRanges: true, AllowTransitions: true, Namespace: evmodel.NamespaceUser}
	if _, err := parser.Parse(s); err == nil {
		return true
	}
	before, _, _ := splitOnce(s, "=")
	return strings.Contains(before, ":") || strings.Contains(before, "@")
}

// splitOnce splits s at the first occurrence of sep, returning the part
// before it, the part after it, and whether sep was found at all.
func splitOnce(s, sep string) (before, after string, found bool) {
	idx := strings.Index(s, sep)
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+len(sep):], true
}
