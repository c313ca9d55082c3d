// ════════════════════════════════════════════════════════════════════════════════════════════════
// Chameneos Rendezvous - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Lock-free chameneos rendezvous benchmark
// Component: Main Entry Point & Command Orchestration
//
// Description:
//   Runs actor groups through the rendezvous coordinator and prints the classic benchmark
//   report. Runs are phased the same way every time:
//
// Architecture:
//   - Phase 0: Configuration (defaults → YAML file → CHAMENEOS_* env → flags) and telemetry
//   - Phase 1: Heap cleanup so collection does not land inside the timed runs
//   - Phase 2: All groups run concurrently, each on its own set of locked OS threads
//   - Phase 3: Reporting, optional persistence, optional /metrics serving until a signal
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"os"

	"chameneos/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.DropError("FATAL", err)
		os.Exit(1)
	}
}
