// SPDX-License-Identifier: GPL-3.0-or-later

package netprim

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/bassosimone/netstub"
	"github.com/svxlink-go/asynclink/errclass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reads and writes pass bytes and errors through and emit start/done
// pairs, with the classified error on the done event.
func TestObservedConnReadWrite(t *testing.T) {
	readErr := errors.New("read error")
	conn := newMinimalConn()
	conn.ReadFunc = func(b []byte) (int, error) { return 0, readErr }
	conn.WriteFunc = func(b []byte) (int, error) { return len(b), nil }

	logger, records := newCapturingLogger()
	wrapped, err := NewObserveConnFunc(NewConfig(), logger).Call(context.Background(), conn)
	require.NoError(t, err)

	n, werr := wrapped.Write([]byte("ping"))
	require.NoError(t, werr)
	assert.Equal(t, 4, n)

	_, rerr := wrapped.Read(make([]byte, 16))
	require.ErrorIs(t, rerr, readErr)

	assert.Equal(t, []string{"writeStart", "writeDone", "readStart", "readDone"}, recordNames(*records))
	assert.Equal(t, errclass.EGENERIC, attrString(t, (*records)[3], "errClass"))
	assert.Equal(t, "", attrString(t, (*records)[1], "errClass"))
}

// The first Close closes the wrapped conn and logs one span; the second
// returns net.ErrClosed without touching the conn again.
func TestObservedConnCloseOnce(t *testing.T) {
	closes := 0
	conn := newMinimalConn()
	conn.CloseFunc = func() error {
		closes++
		return nil
	}

	logger, records := newCapturingLogger()
	wrapped, err := NewObserveConnFunc(NewConfig(), logger).Call(context.Background(), conn)
	require.NoError(t, err)

	require.NoError(t, wrapped.Close())
	assert.ErrorIs(t, wrapped.Close(), net.ErrClosed)
	assert.Equal(t, 1, closes)
	assert.Equal(t, []string{"closeStart", "closeDone"}, recordNames(*records))
}

// A conn whose Close fails surfaces the error and its class on closeDone.
func TestObservedConnCloseError(t *testing.T) {
	closeErr := errors.New("close failed")
	conn := newMinimalConn()
	conn.CloseFunc = func() error { return closeErr }

	logger, records := newCapturingLogger()
	wrapped, err := NewObserveConnFunc(NewConfig(), logger).Call(context.Background(), conn)
	require.NoError(t, err)

	assert.ErrorIs(t, wrapped.Close(), closeErr)
	assert.Equal(t, errclass.EGENERIC, attrString(t, (*records)[1], "errClass"))
}

// Deadline setters log the requested deadline and forward it.
func TestObservedConnSetDeadline(t *testing.T) {
	var got time.Time
	conn := newMinimalConn()
	conn.SetDeadlineFunc = func(d time.Time) error {
		got = d
		return nil
	}

	logger, records := newCapturingLogger()
	wrapped, err := NewObserveConnFunc(NewConfig(), logger).Call(context.Background(), conn)
	require.NoError(t, err)

	deadline := time.Now().Add(time.Minute)
	require.NoError(t, wrapped.SetDeadline(deadline))
	assert.Equal(t, deadline, got)
	assert.Equal(t, []string{"setDeadline"}, recordNames(*records))
}

// Address accessors delegate to the wrapped conn.
func TestObservedConnAddrs(t *testing.T) {
	laddr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000}
	raddr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5220}
	conn := &netstub.FuncConn{
		LocalAddrFunc:  func() net.Addr { return laddr },
		RemoteAddrFunc: func() net.Addr { return raddr },
	}

	wrapped, err := NewObserveConnFunc(NewConfig(), DefaultSLogger()).Call(context.Background(), conn)
	require.NoError(t, err)

	assert.Same(t, net.Addr(laddr), wrapped.LocalAddr())
	assert.Same(t, net.Addr(raddr), wrapped.RemoteAddr())
}
