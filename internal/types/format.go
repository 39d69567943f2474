package types

import (
	"fmt"
	"math"
	"time"

	"github.com/ncruces/go-strftime"
)

// Duration is the native representation of the Time family: a signed
// millisecond count (IEC Time literals are millisecond-resolution).
type Duration int32

// LDuration is the native representation of LTime: nanosecond-resolution,
// 64-bit.
type LDuration int64

// TimeOfDay is the native representation of Tod: milliseconds since
// midnight.
type TimeOfDay uint32

// LTimeOfDay is the native representation of LTod: nanoseconds since
// midnight, 64-bit.
type LTimeOfDay uint64

func (d Duration) String() string  { return formatDuration(time.Duration(d) * time.Millisecond) }
func (d LDuration) String() string { return formatDuration(time.Duration(d)) }

func (t TimeOfDay) String() string {
	return formatTimeOfDay(time.Duration(t) * time.Millisecond)
}

func (t LTimeOfDay) String() string {
	return formatTimeOfDay(time.Duration(t))
}

func formatDuration(d time.Duration) string {
	// IEC-style duration literal, e.g. "T#1h2m3.5s".
	return "T#" + d.String()
}

func formatTimeOfDay(d time.Duration) string {
	midnight := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	t := midnight.Add(d)
	s, err := strftime.Format("%H:%M:%S", t)
	if err != nil {
		return t.Format("15:04:05")
	}
	return s
}

// Display formats the cell's current value following spec §6's
// family-specific rules: floats use a decade-scaled precision table,
// everything else uses its natural textual form.
func (c *Cell) Display() string {
	switch c.family {
	case Bool:
		if c.value.(bool) {
			return "true"
		}
		return "false"
	case Real:
		return formatFloat(float64(c.value.(float32)), realScale)
	case LReal:
		return formatFloat(c.value.(float64), lrealScale)
	case Char:
		return string(rune(c.value.(byte)))
	case WChar:
		return string(c.value.(rune))
	case String, WString:
		return c.value.(string)
	case Time:
		return c.value.(Duration).String()
	case LTime:
		return c.value.(LDuration).String()
	case Tod:
		return c.value.(TimeOfDay).String()
	case LTod:
		return c.value.(LTimeOfDay).String()
	default:
		return fmt.Sprintf("%v", c.value)
	}
}

// scaleStep is one row of the decade-scaled precision table (spec §6:
// "LReal/Real use a scale table ... |x| <= 10 -> 7 decimals for Real,
// <= 10 -> 14 for LReal, narrowing by decade").
type scaleStep struct {
	maxAbs   float64
	decimals int
}

// realScale narrows precision by one decade step as magnitude grows,
// bottoming out at 0 decimals for very large magnitudes.
var realScale = []scaleStep{
	{10, 7}, {100, 6}, {1000, 5}, {10000, 4},
	{100000, 3}, {1000000, 2}, {10000000, 1},
}

var lrealScale = []scaleStep{
	{10, 14}, {100, 13}, {1000, 12}, {10000, 11},
	{100000, 10}, {1000000, 9}, {10000000, 8},
	{100000000, 7}, {1000000000, 6},
}

func formatFloat(v float64, table []scaleStep) string {
	if math.IsNaN(v) {
		return "nan"
	}
	if math.IsInf(v, 1) {
		return "inf"
	}
	if math.IsInf(v, -1) {
		return "-inf"
	}
	abs := math.Abs(v)
	decimals := 0
	for _, step := range table {
		if abs <= step.maxAbs {
			decimals = step.decimals
			break
		}
	}
	return fmt.Sprintf("%.*f", decimals, v)
}
