// Package lib holds the addition routine linked into the sum executable.
package lib

// Func is the signature of an addition routine.
type Func func(a, b int) int

// Sum returns a + b. Overflow wraps around.
func Sum(a, b int) int {
	return a + b
}
