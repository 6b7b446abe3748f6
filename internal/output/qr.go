package output

import (
	"fmt"
	"io"
	"os"

	"github.com/mdp/qrterminal/v3"
	"golang.org/x/term"
	"rsc.io/qr"

	"github.com/mrz1836/alphscan/internal/chain"
	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

// ErrNotTerminal is returned when QR output is redirected; half-block
// characters are unreadable in a file or pipe.
var ErrNotTerminal = &scanerr.ScanError{
	Code:       "NOT_TERMINAL",
	Message:    "QR codes need a terminal",
	Suggestion: "run without redirecting stdout, or drop --qr",
	ExitCode:   scanerr.ExitInput,
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: Fd() returns uintptr, safe conversion for term.IsTerminal
}

// WriteAddressQR renders the address as a QR code, followed by its group,
// index and the address text so the scan can be checked by eye.
func WriteAddressQR(w io.Writer, addr chain.Address) error {
	if !IsTerminal(w) {
		return ErrNotTerminal
	}
	return renderAddressQR(w, addr)
}

func renderAddressQR(w io.Writer, addr chain.Address) error {
	// Addresses are short and scanned off a screen, so the lowest error
	// correction level keeps the code smallest.
	qrterminal.GenerateWithConfig(addr.Hash, qrterminal.Config{
		Level:          qr.L,
		Writer:         w,
		QuietZone:      1,
		HalfBlocks:     true,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
	})

	_, err := fmt.Fprintf(w, "group %s, index %d\n%s\n", addr.Group, addr.Index, addr.Hash)
	return err
}
