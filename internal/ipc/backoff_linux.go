//go:build linux

package ipc

import "time"

// spinBackoff yields briefly after a burst of failed CAS attempts, so a
// worker spinning on a held lock doesn't pin a CPU core while the tick
// process finishes its pass.
func spinBackoff() {
	time.Sleep(50 * time.Microsecond)
}
