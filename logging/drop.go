// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: drop.go - Unformatted cold-path diagnostics
//
// Purpose:
//   - Reports failures from places that have no Logger in reach: deferred
//     cleanup, recovered worker panics, shutdown hooks.
//
// Notes:
//   - Plain string concatenation straight to fd 2; no handler, no levels.
//
// ⚠️ Never invoke in hot loops - use only in failure diagnostics.
// ─────────────────────────────────────────────────────────────────────────────

package logging

import "chameneos/utils"

// DropError prints "prefix: err". A nil err prints just the prefix.
func DropError(prefix string, err error) {
	if err != nil {
		utils.PrintWarning(prefix + ": " + err.Error() + "\n")
		return
	}
	utils.PrintWarning(prefix + "\n")
}

// DropMessage prints "prefix: message".
func DropMessage(prefix, message string) {
	utils.PrintWarning(prefix + ": " + message + "\n")
}
