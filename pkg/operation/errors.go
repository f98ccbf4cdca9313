package operation

import (
	"gitlab.com/tozd/go/errors"
)

var (
	// 🚫 ErrCanceled is the terminal error of an operation that was canceled
	// before its body ran to completion.
	ErrCanceled = errors.New("operation canceled")

	// 🔒 ErrClosed is delivered to operations submitted after the dispatcher
	// began shutting down.
	ErrClosed = errors.New("dispatcher closed")

	// 💀 ErrUnavailable is delivered to queued and future operations when the
	// worker goroutine died from an internal fault.
	ErrUnavailable = errors.New("dispatcher unavailable")
)
