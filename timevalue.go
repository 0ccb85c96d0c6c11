package signet

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timeKind discriminates the shapes a time-claim input can take.
type timeKind uint8

const (
	timeUnset timeKind = iota
	timeAbsent
	timeNow
	timeAbsolute
	timeRelative
)

// TimeValue is a tagged time-claim input for exp, nbf, and iat.
//
// The zero value means "unset": the caller expressed no opinion and the
// configured default applies. Absent is different from unset: it
// suppresses the claim even when a default would have emitted one.
type TimeValue struct {
	kind timeKind
	abs  time.Time
	rel  time.Duration
}

// Absent suppresses the claim entirely, overriding any configured default.
func Absent() TimeValue { return TimeValue{kind: timeAbsent} }

// Now resolves to the clock at the moment of signing.
func Now() TimeValue { return TimeValue{kind: timeNow} }

// At pins the claim to an absolute instant.
func At(t time.Time) TimeValue { return TimeValue{kind: timeAbsolute, abs: t} }

// Unix pins the claim to an absolute Unix timestamp in seconds.
func Unix(sec int64) TimeValue { return TimeValue{kind: timeAbsolute, abs: time.Unix(sec, 0)} }

// In resolves to now+d at the moment of signing.
func In(d time.Duration) TimeValue { return TimeValue{kind: timeRelative, rel: d} }

// ParseTimeValue accepts a decimal Unix timestamp ("1735689600") or a
// relative duration string ("30m", "12h", "7d", "2w", "1d12h").
func ParseTimeValue(s string) (TimeValue, error) {
	if s == "" {
		return TimeValue{}, fmt.Errorf("parse time value: empty input")
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Unix(sec), nil
	}
	d, err := parseExtendedDuration(s)
	if err != nil {
		return TimeValue{}, fmt.Errorf("parse time value %q: %w", s, err)
	}
	return In(d), nil
}

// IsZero reports whether the value is unset.
func (v TimeValue) IsZero() bool { return v.kind == timeUnset }

// or returns v unless it is unset, in which case def applies. This is the
// per-call-over-default precedence rule: presence of any kind, including
// Absent, wins over the default.
func (v TimeValue) or(def TimeValue) TimeValue {
	if v.kind == timeUnset {
		return def
	}
	return v
}

// at resolves the value against the signing clock. The second return is
// false when no claim should be emitted.
func (v TimeValue) at(now time.Time) (time.Time, bool) {
	switch v.kind {
	case timeNow:
		return now, true
	case timeAbsolute:
		return v.abs, true
	case timeRelative:
		return now.Add(v.rel), true
	default:
		return time.Time{}, false
	}
}

// parseExtendedDuration parses time.ParseDuration syntax extended with
// day ("d") and week ("w") units. Mixed forms like "1d12h" are allowed;
// day and week segments are rewritten into hours before delegating to
// the standard parser.
func parseExtendedDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	var out strings.Builder
	var num strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9' || r == '.' || r == '-' || r == '+':
			num.WriteRune(r)
		case r == 'd' || r == 'w':
			f, err := strconv.ParseFloat(num.String(), 64)
			if err != nil {
				return 0, fmt.Errorf("invalid duration %q", s)
			}
			hours := f * 24
			if r == 'w' {
				hours = f * 24 * 7
			}
			out.WriteString(strconv.FormatFloat(hours, 'f', -1, 64))
			out.WriteByte('h')
			num.Reset()
		default:
			out.WriteString(num.String())
			num.Reset()
			out.WriteRune(r)
		}
	}
	if num.Len() > 0 {
		return 0, fmt.Errorf("invalid duration %q: missing unit", s)
	}
	return time.ParseDuration(out.String())
}
