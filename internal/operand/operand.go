// Package operand converts command-line tokens into integer operands.
//
// Two conversions are provided. Atoi follows the C library atoi contract and
// never fails: leading whitespace is skipped, an optional sign and the
// longest run of digits are consumed, and anything else is ignored. A token
// without digits converts to zero. ParseStrict rejects anything that is not
// a complete base-10 integer.
package operand

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalid is wrapped by every error ParseStrict returns.
var ErrInvalid = errors.New("invalid operand")

// Parse converts s with ParseStrict when strict is set and with Atoi otherwise.
func Parse(s string, strict bool) (int, error) {
	if strict {
		return ParseStrict(s)
	}
	return Atoi(s), nil
}

// ParseStrict converts s, which must be a complete signed base-10 integer
// that fits in an int.
func ParseStrict(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrInvalid, s)
	}
	return n, nil
}

// Atoi converts the leading integer of s. Values out of range saturate.
func Atoi(s string) int {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	// Accumulate as a negative number so math.MinInt is representable.
	n := 0
	for ; i < len(s) && '0' <= s[i] && s[i] <= '9'; i++ {
		d := int(s[i] - '0')
		if n < (math.MinInt+d)/10 {
			if neg {
				return math.MinInt
			}
			return math.MaxInt
		}
		n = n*10 - d
	}
	if neg {
		return n
	}
	if n == math.MinInt {
		return math.MaxInt
	}
	return -n
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
