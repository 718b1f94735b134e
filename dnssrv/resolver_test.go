// SPDX-License-Identifier: GPL-3.0-or-later

package dnssrv_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/svxlink-go/asynclink/dnssrv"
	"github.com/svxlink-go/asynclink/eventloop"
	"github.com/svxlink-go/asynclink/netprim"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExchanger struct {
	exchange func(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error)
}

func (f *fakeExchanger) ExchangeContext(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error) {
	return f.exchange(ctx, m, address)
}

func srvAnswer(priority, weight, port uint16, target string, ttl uint32) *dns.SRV {
	return &dns.SRV{
		Hdr:      dns.RR_Header{Name: "_svc._tcp.example.", Rrtype: dns.TypeSRV, Class: dns.ClassINET, Ttl: ttl},
		Priority: priority,
		Weight:   weight,
		Port:     port,
		Target:   target,
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never became true")
}

// Lookup merges discovered records with static ones, sorted ascending; a
// TTL-zero static record becomes permanent while live answers exist.
func TestResolverLookupMergesAndSorts(t *testing.T) {
	loop := eventloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	r := dnssrv.New(netprim.NewConfig(), loop, netprim.DefaultSLogger())
	r.SetService("svc", "tcp", "example.")
	r.AddStaticRecord(0, 30, 0, 5222, "static.example.")
	r.Client = &fakeExchanger{
		exchange: func(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error) {
			reply := new(dns.Msg)
			reply.Answer = []dns.RR{
				srvAnswer(20, 0, 5220, "b.example.", 3600),
				srvAnswer(10, 0, 5220, "a.example.", 3600),
			}
			return reply, 0, nil
		},
	}

	ready := false
	r.OnResultsReady = func() { ready = true }
	loop.Post(func() { r.Lookup() })

	waitFor(t, func() bool {
		result := make(chan bool, 1)
		loop.Post(func() { result <- ready })
		return <-result
	})

	loop.Post(func() {
		var rs dnssrv.RecordSet
		r.ResourceRecords(&rs)
		require.Len(t, rs, 3)
		assert.Equal(t, "a.example.", rs[0].Target)
		assert.Equal(t, "b.example.", rs[1].Target)
		assert.Equal(t, "static.example.", rs[2].Target)
		assert.Equal(t, uint32(math.MaxUint32), rs[2].TTL)
		assert.False(t, r.LookupFailed())
	})
	time.Sleep(10 * time.Millisecond)
}

// Lookup still merges static records when the exchange fails, marking the
// lookup as failed; with no live answers a TTL-zero static record keeps
// its literal zero instead of being promoted to permanent.
func TestResolverLookupFailureStillMergesStatic(t *testing.T) {
	loop := eventloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	r := dnssrv.New(netprim.NewConfig(), loop, netprim.DefaultSLogger())
	r.SetService("svc", "tcp", "example.")
	r.AddStaticRecord(0, 10, 0, 5220, "static.example.")
	r.Client = &fakeExchanger{
		exchange: func(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error) {
			return nil, 0, errors.New("no route to resolver")
		},
	}

	done := make(chan struct{})
	r.OnResultsReady = func() { close(done) }
	loop.Post(func() { r.Lookup() })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnResultsReady never fired")
	}

	time.Sleep(5 * time.Millisecond)
	loop.Post(func() {
		var rs dnssrv.RecordSet
		r.ResourceRecords(&rs)
		require.Len(t, rs, 1)
		assert.Equal(t, "static.example.", rs[0].Target)
		assert.Equal(t, uint32(0), rs[0].TTL)
		assert.True(t, r.LookupFailed())
	})
	time.Sleep(10 * time.Millisecond)
}

// Abort discards a stale in-flight lookup without invoking the callback.
func TestResolverAbortDiscardsStaleLookup(t *testing.T) {
	loop := eventloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	started := make(chan struct{})
	r := dnssrv.New(netprim.NewConfig(), loop, netprim.DefaultSLogger())
	r.SetService("svc", "tcp", "example.")
	r.Client = &fakeExchanger{
		exchange: func(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error) {
			close(started)
			<-ctx.Done()
			return nil, 0, ctx.Err()
		},
	}

	calls := 0
	r.OnResultsReady = func() { calls++ }
	loop.Post(func() { r.Lookup() })
	<-started
	loop.Post(func() { r.Abort() })

	time.Sleep(20 * time.Millisecond)
	loop.Post(func() { assert.Equal(t, 0, calls) })
	time.Sleep(10 * time.Millisecond)
}
