package duration

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrParse is the sentinel matched by every *ParseError.
var ErrParse = errors.New("duration: cannot parse")

// ParseError is returned when an expression contains no recognizable
// magnitude and unit.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return "duration: couldn't parse " + strconv.Quote(e.Input)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// Units are scanned in this order and each may appear at most once. Text
// between tokens is skipped.
var pattern = regexp.MustCompile(`` +
	`(.*?(?P<years>\d+(\.\d+)?)\s*y)?` +
	`(.*?(?P<months>\d+(\.\d+)?)\s*(mon|mos))?` +
	`(.*?(?P<weeks>\d+(\.\d+)?)\s*w)?` +
	`(.*?(?P<days>\d+(\.\d+)?)\s*d)?` +
	`(.*?(?P<hours>\d+(\.\d+)?)\s*h)?` +
	`(.*?(?P<minutes>\d+(\.\d+)?)\s*m)?` +
	`(.*?(?P<seconds>\d+(\.\d+)?)\s*s)?`)

// Parse converts expr into a Duration. A plain number is a count of seconds;
// anything else is scanned for magnitude+unit tokens such as "1h",
// "2 minutes" or "3 minutes, 2 seconds". Recognized units, in order, are
// y, mon|mos, w, d, h, m and s. Years and months are truncated to integers.
func Parse(expr string) (Duration, error) {
	if n, err := strconv.ParseFloat(strings.TrimSpace(expr), 64); err == nil {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return Duration{}, &ParseError{Input: expr}
		}
		return Seconds(n), nil
	}

	match := pattern.FindStringSubmatch(expr)
	if match == nil {
		return Duration{}, &ParseError{Input: expr}
	}

	var d Duration
	var found bool
	for i, name := range pattern.SubexpNames() {
		if name == "" || match[i] == "" {
			continue
		}
		v, err := strconv.ParseFloat(match[i], 64)
		if err != nil {
			return Duration{}, errors.Wrapf(err, "duration: bad %s in %q", name, expr)
		}
		found = true
		switch name {
		case "years":
			d.Years = int(v)
		case "months":
			d.Months = int(v)
		case "weeks":
			d.Weeks = v
		case "days":
			d.Days = v
		case "hours":
			d.Hours = v
		case "minutes":
			d.Minutes = v
		case "seconds":
			d.Seconds = v
		}
	}
	if !found {
		return Duration{}, &ParseError{Input: expr}
	}
	return d, nil
}

// MustParse is like Parse but panics on error. It is meant for package-level
// defaults built from constant expressions.
func MustParse(expr string) Duration {
	d, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return d
}
