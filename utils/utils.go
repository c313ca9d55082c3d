package utils

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

///////////////////////////////////////////////////////////////////////////////
// Conversion Utilities - Zero-Alloc Casts
///////////////////////////////////////////////////////////////////////////////

// B2s converts a []byte to a string **without** allocation.
// ⚠️ Caller must ensure the input slice remains valid and unchanged.
//
//go:nosplit
//go:inline
func B2s(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// S2b views a string as bytes without copying. The result must not be written.
//
//go:nosplit
//go:inline
func S2b(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

///////////////////////////////////////////////////////////////////////////////
// Number Rendering
///////////////////////////////////////////////////////////////////////////////

// Itoa renders a non-negative int in decimal using a stack buffer.
// Negative values are rendered with a leading '-'.
func Itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := n < 0
	u := uint64(n)
	if neg {
		u = uint64(-n)
	}
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

var digitWords = [10]string{
	"zero", "one", "two", "three", "four",
	"five", "six", "seven", "eight", "nine",
}

// Spell renders n one decimal digit at a time, each as " <word>".
//
//	Spell(0)    == " zero"
//	Spell(1200) == " one two zero zero"
func Spell(n uint64) string {
	var digits [20]byte
	i := len(digits)
	for {
		i--
		digits[i] = byte(n % 10)
		n /= 10
		if n == 0 {
			break
		}
	}

	size := 0
	for _, d := range digits[i:] {
		size += 1 + len(digitWords[d])
	}
	out := make([]byte, 0, size)
	for _, d := range digits[i:] {
		out = append(out, ' ')
		out = append(out, digitWords[d]...)
	}
	return B2s(out)
}

///////////////////////////////////////////////////////////////////////////////
// Raw stderr output
///////////////////////////////////////////////////////////////////////////////

// PrintWarning writes msg straight to fd 2 with no formatting or allocation.
// Write errors are ignored; there is nowhere left to report them.
func PrintWarning(msg string) {
	if len(msg) == 0 {
		return
	}
	_, _ = unix.Write(2, S2b(msg))
}
