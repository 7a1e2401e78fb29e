package dataset

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layouts accepted by ParseTime, tried in order. Fractional seconds are
// accepted by every layout that has a seconds field.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05.999999999",
	"2006/01/02",
}

var (
	monthFirstLayouts = []string{"1/2/2006 15:04:05.999999999", "1/2/2006 15:04", "1/2/2006"}
	dayFirstLayouts   = []string{"2/1/2006 15:04:05.999999999", "2/1/2006 15:04", "2/1/2006"}
)

// DateOrder selects how slash dates such as 03/04/2024 are read.
type DateOrder int

const (
	// DateOrderAuto lets SlashOrder decide from the cells at hand.
	DateOrderAuto DateOrder = iota
	MonthFirst
	DayFirst
)

var slashDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/\d{4}`)

// SlashOrder picks the one order every slash date in cells agrees with:
// DayFirst when a leading field exceeds 12, MonthFirst otherwise. ok is
// false when some cells need day first and others month first.
func SlashOrder(cells []string) (DateOrder, bool) {
	dayFirst, monthFirst := false, false
	for _, s := range cells {
		m := slashDate.FindStringSubmatch(strings.TrimSpace(s))
		if m == nil {
			continue
		}
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		if a > 12 {
			dayFirst = true
		}
		if b > 12 {
			monthFirst = true
		}
	}
	switch {
	case dayFirst && monthFirst:
		return DateOrderAuto, false
	case dayFirst:
		return DayFirst, true
	}
	return MonthFirst, true
}

// ParseTime parses s using the accepted layouts. A slash date is read month
// first unless its leading field exceeds 12. Times without a zone are UTC.
// Use ParseTimes for whole columns so every cell shares one order.
func ParseTime(s string) (time.Time, bool) {
	return ParseTimeOrder(s, DateOrderAuto)
}

// ParseTimeOrder is ParseTime with slash dates read in the given order.
func ParseTimeOrder(s string, order DateOrder) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	if order == DateOrderAuto {
		order, _ = SlashOrder([]string{s})
	}
	slash := monthFirstLayouts
	if order == DayFirst {
		slash = dayFirstLayouts
	}
	for _, l := range slash {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTimes parses a column of cells with one slash-date order for all of
// them. With DateOrderAuto the order comes from SlashOrder; a column that
// mixes both orders fails. ok[i] reports whether cells[i] parsed.
func ParseTimes(cells []string, order DateOrder) (times []time.Time, ok []bool, consistent bool) {
	if order == DateOrderAuto {
		var agree bool
		if order, agree = SlashOrder(cells); !agree {
			return nil, nil, false
		}
	}
	times = make([]time.Time, len(cells))
	ok = make([]bool, len(cells))
	for i, s := range cells {
		times[i], ok[i] = ParseTimeOrder(s, order)
	}
	return times, ok, true
}

// FormatTime renders t with the shortest layout that keeps sub-second precision.
func FormatTime(t time.Time) string {
	if t.Location() == time.UTC {
		return t.Format("2006-01-02 15:04:05.999999999")
	}
	return t.Format(time.RFC3339Nano)
}
