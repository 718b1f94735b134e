// SPDX-License-Identifier: GPL-3.0-or-later

package netprim

import (
	"context"
	"errors"
	"net"
	"syscall"
	"testing"

	"github.com/svxlink-go/asynclink/errclass"
	"github.com/stretchr/testify/assert"
)

// The default classifier groups the errors a reconnect loop produces into
// errclass labels, with the empty string reserved for success.
func TestDefaultErrClassifier(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, ""},
		{"dial timeout", context.DeadlineExceeded, errclass.ETIMEDOUT},
		{"refused peer", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, errclass.ECONNREFUSED},
		{"unclassified", errors.New("unknown error"), errclass.EGENERIC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultErrClassifier.Classify(tt.err))
		})
	}
}
