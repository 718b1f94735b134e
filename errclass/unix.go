//go:build unix

//
// SPDX-License-Identifier: GPL-3.0-or-later
//

package errclass

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// errnoClasses covers the errno values a connect, read, or write on a TCP
// socket can surface on Unix platforms.
var errnoClasses = map[syscall.Errno]string{
	unix.ECONNABORTED: ECONNABORTED,
	unix.ECONNREFUSED: ECONNREFUSED,
	unix.ECONNRESET:   ECONNRESET,
	unix.EHOSTUNREACH: EHOSTUNREACH,
	unix.ENETDOWN:     ENETDOWN,
	unix.ENETUNREACH:  ENETUNREACH,
	unix.ENOTCONN:     ENOTCONN,
	unix.EPIPE:        EPIPE,
	unix.ETIMEDOUT:    ETIMEDOUT,
}
