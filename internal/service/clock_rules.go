package service

import (
	"fmt"
	"strconv"
	"strings"

	"careattend/internal/config"
)

// Clock strings are "HH:MM" on a single day. Overnight spans are not
// representable; arithmetic on them yields zero.

func parseClock(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// RoundUpToInterval rounds a clock string up to the next interval boundary.
// Times already on a boundary are unchanged.
func RoundUpToInterval(clock string, intervalMinutes int) string {
	total, ok := parseClock(clock)
	if !ok || intervalMinutes <= 0 {
		return clock
	}
	rounded := (total + intervalMinutes - 1) / intervalMinutes * intervalMinutes
	return formatClock(rounded)
}

// AdjustClockIn applies the clock-in rounding policy: raw times at or before
// the early threshold (work start minus one rounding interval, plus a
// minute) snap to work start; everything else rounds up to the next
// boundary.
func AdjustClockIn(raw string, tc config.TimeConfig) string {
	total, ok := parseClock(raw)
	if !ok {
		return tc.WorkStart
	}
	start, _ := parseClock(tc.WorkStart)
	earlyThreshold := start - tc.RoundUpMins + 1 // 08:46 under the defaults
	if total <= earlyThreshold {
		return tc.WorkStart
	}
	return RoundUpToInterval(raw, tc.RoundUpMins)
}

// AdjustClockOut applies the clock-out rounding policy: raw times at or
// after the late threshold (work end minus one rounding interval) snap to
// work end; everything else rounds up to the next boundary.
func AdjustClockOut(raw string, tc config.TimeConfig) string {
	total, ok := parseClock(raw)
	if !ok {
		return tc.WorkEnd
	}
	end, _ := parseClock(tc.WorkEnd)
	lateThreshold := end - tc.RoundUpMins // 15:30 under the defaults
	if total >= lateThreshold {
		return tc.WorkEnd
	}
	return RoundUpToInterval(raw, tc.RoundUpMins)
}

// workHours computes the span between two same-day clock strings in hours.
// Unparseable or inverted spans yield zero.
func workHours(clockIn, clockOut string) float64 {
	in, ok1 := parseClock(clockIn)
	out, ok2 := parseClock(clockOut)
	if !ok1 || !ok2 || out < in {
		return 0
	}
	return float64(out-in) / 60
}

// minutesBetween computes whole minutes between two same-day clock strings.
// Unparseable or inverted spans yield zero.
func minutesBetween(start, end string) int {
	s, ok1 := parseClock(start)
	e, ok2 := parseClock(end)
	if !ok1 || !ok2 || e < s {
		return 0
	}
	return e - s
}

// addMinutes offsets a clock string, clamping within the day.
func addMinutes(clock string, minutes int) string {
	total, ok := parseClock(clock)
	if !ok {
		return clock
	}
	total += minutes
	if total > 23*60+59 {
		total = 23*60 + 59
	}
	return formatClock(total)
}
