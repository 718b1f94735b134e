//go:build windows

//
// SPDX-License-Identifier: GPL-3.0-or-later
//

package errclass

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// errnoClasses covers the Winsock error values a connect, read, or write
// on a TCP socket can surface. Windows reports a torn-down pipe through
// WSAECONNRESET rather than a dedicated EPIPE, so that class never
// originates here.
var errnoClasses = map[syscall.Errno]string{
	windows.WSAECONNABORTED: ECONNABORTED,
	windows.WSAECONNREFUSED: ECONNREFUSED,
	windows.WSAECONNRESET:   ECONNRESET,
	windows.WSAEHOSTUNREACH: EHOSTUNREACH,
	windows.WSAENETDOWN:     ENETDOWN,
	windows.WSAENETUNREACH:  ENETUNREACH,
	windows.WSAENOTCONN:     ENOTCONN,
	windows.WSAETIMEDOUT:    ETIMEDOUT,
}
