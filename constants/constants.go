// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go - Rendezvous tunables and packed-word geometry
//
// Purpose:
//   - Fixes the bit geometry of the shared queue word (slot width, slot count).
//   - Holds default run sizes and backoff knobs shared by the CLI and tests.
//
// Notes:
//   - Geometry values are load-bearing: packed, rendezvous and config all derive
//     their capacity checks from them.
//   - Backoff values only shape CPU usage while a worker finds nobody to meet.
//
// ⚠️ No runtime logic here - all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

import "time"

// ──────────────────────────── Packed word geometry ───────────────────────────

const (
	// SlotBits is the width of one actor id field inside the shared word.
	SlotBits = 4

	// SlotMask extracts one id field after shifting.
	SlotMask = 1<<SlotBits - 1

	// WordBits is the width of the shared word.
	WordBits = 64

	// QueueSlots is the number of FIFO slots behind the broker field.
	// 64-bit word = 1 broker field + 15 queue slots.
	QueueSlots = WordBits/SlotBits - 1

	// MaxActors is the largest actor set one run accepts. Id 0 is the null id,
	// so a 4-bit field names at most 15 actors.
	MaxActors = SlotMask
)

// ─────────────────────────────── Run defaults ────────────────────────────────

const (
	// DefaultMeetings matches the classic benchmark default when no count is given.
	DefaultMeetings = 600

	// DefaultTapCapacity is the per-worker event ring size (power of two).
	DefaultTapCapacity = 1 << 12
)

// ──────────────────────────────── Backoff ────────────────────────────────────

const (
	// SpinBudget is the number of empty polls a worker spins through before
	// it starts sleeping.
	SpinBudget = 128

	// IdleSleep is the pause taken once the spin budget is exhausted.
	IdleSleep = 50 * time.Microsecond

	// DrainSpinBudget is the miss count after which the tap drain relaxes.
	DrainSpinBudget = 224
)
