//go:build !windows

package vault

import "golang.org/x/sys/unix"

// pin keeps the seed buffer out of swap with mlock(2). RLIMIT_MEMLOCK may
// refuse it; the bytes are still zeroed on Destroy either way.
func (s *SecureBytes) pin() bool {
	return len(s.data) > 0 && unix.Mlock(s.data) == nil
}

// unpin releases the mlock taken by pin.
func (s *SecureBytes) unpin() {
	_ = unix.Munlock(s.data)
}
