// Package scan turns raw keystrokes from a HID barcode scanner into cart
// additions: a global buffer reducer, a debounce window against hardware
// double-fires and a lookup fallback chain for mangled EAN codes.
package scan

import (
	"strings"
	"unicode"
)

// Reducer accumulates keystrokes into a barcode buffer. HID scanners type
// the code as individual characters and finish with Enter, so the reducer
// listens to every key, not to a focused input field.
type Reducer struct {
	buffer strings.Builder
}

// Submission keys sent by common scanner firmwares.
const (
	keyEnter          = '\n'
	keyCarriageReturn = '\r'
)

// Key feeds one keystroke. On Enter with a non-empty trimmed buffer it
// returns the code and true; the buffer is cleared on every Enter whether
// or not a code was emitted. Printable characters append, everything else
// is ignored.
func (r *Reducer) Key(key rune) (code string, ok bool) {
	if key == keyEnter || key == keyCarriageReturn {
		code = strings.TrimSpace(r.buffer.String())
		r.buffer.Reset()
		return code, code != ""
	}

	if unicode.IsPrint(key) {
		r.buffer.WriteRune(key)
	}
	return "", false
}

// Buffer returns the accumulated, not yet submitted input.
func (r *Reducer) Buffer() string {
	return r.buffer.String()
}
