// SPDX-License-Identifier: GPL-3.0-or-later

package netprim

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"testing"

	"github.com/bassosimone/netstub"
	"github.com/bassosimone/slogstub"
	"github.com/bassosimone/tlsstub"
)

// newCapturingLogger returns a logger whose records accumulate in the
// returned slice, so a test can assert which span events a primitive
// emitted and with which fields.
func newCapturingLogger() (*slog.Logger, *[]slog.Record) {
	var records []slog.Record
	handler := &slogstub.FuncHandler{
		EnabledFunc: func(ctx context.Context, level slog.Level) bool {
			return true
		},
		HandleFunc: func(ctx context.Context, record slog.Record) error {
			records = append(records, record)
			return nil
		},
	}
	return slog.New(handler), &records
}

// recordNames extracts the event names from captured records, in order.
func recordNames(records []slog.Record) []string {
	var names []string
	for _, r := range records {
		names = append(names, r.Message)
	}
	return names
}

// attrString returns the string value of the named attribute on record,
// failing the test when the attribute is missing.
func attrString(t *testing.T, record slog.Record, key string) string {
	t.Helper()
	var value string
	found := false
	record.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			value = a.Value.String()
			found = true
			return false
		}
		return true
	})
	if !found {
		t.Fatalf("attribute %q not found on %q", key, record.Message)
	}
	return value
}

// newMockTLSEngine returns an engine whose handshake yields conn verbatim,
// standing in for a real TLS stack in handshake-pipeline tests.
func newMockTLSEngine(conn TLSConn) *tlsstub.FuncTLSEngine[TLSConn] {
	return &tlsstub.FuncTLSEngine[TLSConn]{
		ClientFunc: func(c net.Conn, config *tls.Config) TLSConn {
			return conn
		},
		NameFunc: func() string {
			return "mock"
		},
	}
}

// newMinimalConn returns a conn stub with just enough behavior for code
// that introspects addresses during wrapping; tests add Read/Write/Close
// funcs as the scenario needs them.
func newMinimalConn() *netstub.FuncConn {
	return &netstub.FuncConn{
		LocalAddrFunc:  func() net.Addr { return &net.TCPAddr{} },
		RemoteAddrFunc: func() net.Addr { return &net.TCPAddr{} },
	}
}
