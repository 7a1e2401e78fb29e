package dataset

import (
	"regexp"
	"strconv"
	"strings"
)

var plainNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber reads a plain decimal number such as "12", "-3.5" or "1e3".
// Digit separators, hex forms and NaN/Inf spellings are rejected, so ids
// like "781255054_21935453173" stay text.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !plainNumber.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
