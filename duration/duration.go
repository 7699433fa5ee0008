// Package duration implements calendar-aware durations and the human-readable
// duration syntax used to configure cache freshness windows.
package duration

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xhit/go-str2duration/v2"
)

// Duration is a calendar offset. Years and months are whole numbers since a
// fractional calendar unit has no well-defined meaning when added to a
// timestamp; the remaining units keep their fractional precision.
type Duration struct {
	Years   int
	Months  int
	Weeks   float64
	Days    float64
	Hours   float64
	Minutes float64
	Seconds float64
}

// Seconds returns a Duration of n seconds.
func Seconds(n float64) Duration {
	return Duration{Seconds: n}
}

// FromStd converts a standard library duration.
func FromStd(d time.Duration) Duration {
	return Duration{Seconds: d.Seconds()}
}

// Fixed returns the part of the duration that has a fixed length, that is
// everything except years and months.
func (d Duration) Fixed() time.Duration {
	secs := d.Weeks*7*24*3600 +
		d.Days*24*3600 +
		d.Hours*3600 +
		d.Minutes*60 +
		d.Seconds
	return time.Duration(math.Round(secs * float64(time.Second)))
}

// AddTo returns t shifted by d. Years and months are added with calendar
// arithmetic, clamping the day to the length of the resulting month
// (Jan 31 + 1mon is the last day of February), the rest as a fixed offset.
func (d Duration) AddTo(t time.Time) time.Time {
	if d.Years != 0 || d.Months != 0 {
		t = addMonths(t, d.Years*12+d.Months)
	}
	return t.Add(d.Fixed())
}

func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	n += int(month) - 1
	year += n / 12
	n %= 12
	if n < 0 {
		n += 12
		year--
	}
	month = time.Month(n + 1)
	if last := time.Date(year, month+1, 0, 0, 0, 0, 0, t.Location()).Day(); day > last {
		day = last
	}
	hour, minute, sec := t.Clock()
	return time.Date(year, month, day, hour, minute, sec, t.Nanosecond(), t.Location())
}

// Approx returns the length of d when applied at ref.
func (d Duration) Approx(ref time.Time) time.Duration {
	return d.AddTo(ref).Sub(ref)
}

// IsZero reports whether every component is zero.
func (d Duration) IsZero() bool {
	return d == Duration{}
}

func (d Duration) String() string {
	var sb strings.Builder
	if d.Years != 0 {
		sb.WriteString(strconv.Itoa(d.Years))
		sb.WriteString("y")
	}
	if d.Months != 0 {
		sb.WriteString(strconv.Itoa(d.Months))
		sb.WriteString("mon")
	}
	if fixed := d.Fixed(); fixed != 0 || sb.Len() == 0 {
		if fixed == 0 {
			sb.WriteString("0s")
		} else {
			sb.WriteString(str2duration.String(fixed))
		}
	}
	return sb.String()
}
