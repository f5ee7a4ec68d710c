// Package memzero wipes secret material held in byte buffers.
package memzero

import "crypto/subtle"

// Zero overwrites every buffer with zeros through a constant-time copy, so
// the wipe is not optimised away as a dead store.
func Zero(bufs ...[]byte) {
	for _, b := range bufs {
		if len(b) == 0 {
			continue
		}
		subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
	}
}
