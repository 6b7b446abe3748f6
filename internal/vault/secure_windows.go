//go:build windows

package vault

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// pin keeps the seed buffer resident with VirtualLock.
func (s *SecureBytes) pin() bool {
	if len(s.data) == 0 {
		return false
	}
	return windows.VirtualLock(s.addr(), uintptr(len(s.data))) == nil
}

// unpin releases the lock taken by pin.
func (s *SecureBytes) unpin() {
	_ = windows.VirtualUnlock(s.addr(), uintptr(len(s.data)))
}

func (s *SecureBytes) addr() uintptr {
	return uintptr(unsafe.Pointer(&s.data[0])) //nolint:gosec // address of a live slice
}
