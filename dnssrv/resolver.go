// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: _examples/original_source/src/async/core/AsyncTcpPrioClientBase.h
// (the DnsLookup collaborator: SetService/lookup/resultsReady/
// addStaticResourceRecord contract and the static-record TTL=0 merge rule)
// and netprim/connect.go's xStart/xDone span-logging shape, adapted from
// dialing to DNS resolution.

// Package dnssrv resolves DNS SRV records and merges them with statically
// configured ones, delivering the merged, sorted result as an event on an
// [github.com/svxlink-go/asynclink/eventloop.Loop].
package dnssrv

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/netip"
	"time"

	"github.com/svxlink-go/asynclink/eventloop"
	"github.com/svxlink-go/asynclink/netprim"

	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"
	"github.com/miekg/dns"
)

// defaultServer is used when the environment's resolver configuration
// cannot be read (e.g. no /etc/resolv.conf, as in most test environments).
var defaultServer = netip.MustParseAddrPort("127.0.0.1:53")

// Resolver looks up SRV records for one service name and merges them with
// any statically configured records.
//
// All exported methods must be called from the owning [eventloop.Loop]'s
// goroutine. The zero value is not ready to use; construct with [New].
type Resolver struct {
	// Config supplies the ErrClassifier and TimeNow used for logging.
	Config *netprim.Config

	// Logger receives dnsLookupStart/dnsLookupDone spans.
	Logger netprim.SLogger

	// Loop is where the completion event is posted.
	Loop *eventloop.Loop

	// Client performs the SRV exchange. Set by [New] to a plain
	// [*dns.Client]; replaceable in tests.
	Client dnsExchanger

	// Server is the resolver queried for lookups.
	Server netip.AddrPort

	// OnResultsReady is invoked (on the loop) when a lookup completes,
	// successfully or not. Call [Resolver.LookupFailed] to tell which.
	OnResultsReady func()

	label         string
	staticRecords RecordSet
	records       RecordSet
	lookupFailed  bool
	cancel        context.CancelFunc
	generation    int
}

// dnsExchanger abstracts [*dns.Client] for testing.
type dnsExchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error)
}

// New returns a [*Resolver] wired to cfg, logger, and loop, defaulting to
// the system resolver configuration when available.
func New(cfg *netprim.Config, loop *eventloop.Loop, logger netprim.SLogger) *Resolver {
	server := defaultServer
	if conf, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil && len(conf.Servers) > 0 {
		if addr, err := netip.ParseAddr(conf.Servers[0]); err == nil {
			server = netip.AddrPortFrom(addr, 53)
		}
	}
	return &Resolver{
		Config: cfg,
		Logger: logger,
		Loop:   loop,
		Client: &dns.Client{},
		Server: server,
	}
}

// SetService sets the service name to resolve, building the SRV query
// label "_service._proto.domain." per RFC 2782.
func (r *Resolver) SetService(service, proto, domain string) {
	r.label = fmt.Sprintf("_%s._%s.%s", service, proto, dns.Fqdn(domain))
}

// AddStaticRecord adds a statically configured record, merged into the
// result set of every subsequent [Resolver.Lookup] and sorted by priority
// together with the live records. A static record with ttl zero is
// reported with TTL [math.MaxUint32] when the live lookup returned records,
// and with TTL zero otherwise; in both cases it stays in the result set.
// This package does not expire records by TTL
// (AsyncTcpPrioClientBase::addStaticResourceRecord).
func (r *Resolver) AddStaticRecord(ttl uint32, priority, weight, port uint16, target string) {
	r.staticRecords = append(r.staticRecords, Record{
		Priority: priority,
		Weight:   weight,
		Port:     port,
		Target:   dns.Fqdn(target),
		TTL:      ttl,
	})
}

// Lookup starts an asynchronous SRV query for the configured service name.
// It spawns a goroutine that performs the exchange and posts the result
// onto the loop as a call to [Resolver.OnResultsReady]; any prior
// in-flight lookup is discarded without invoking the callback.
func (r *Resolver) Lookup() {
	r.abortPending()

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.generation++
	gen := r.generation

	label := r.label
	server := r.Server.String()
	spanID := newSpanID()

	go func() {
		t0 := r.Config.TimeNow()
		r.logLookupStart(spanID, label, t0)

		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(label), dns.TypeSRV)

		reply, _, err := r.Client.ExchangeContext(ctx, msg, server)
		var discovered RecordSet
		if err == nil {
			for _, rr := range reply.Answer {
				srv, ok := rr.(*dns.SRV)
				if !ok {
					continue
				}
				discovered = append(discovered, Record{
					Priority: srv.Priority,
					Weight:   srv.Weight,
					Port:     srv.Port,
					Target:   srv.Target,
					TTL:      srv.Hdr.Ttl,
				})
			}
		}
		r.logLookupDone(spanID, label, t0, r.Config.TimeNow(), err)

		r.Loop.Post(func() {
			if gen != r.generation {
				return
			}
			// A hard failure is an empty live result, not merely a
			// transport error: a successful exchange with zero SRV
			// answers is just as unusable as a failed one, and static
			// records must not mask either case.
			r.lookupFailed = len(discovered) == 0
			r.records = append(RecordSet{}, discovered...)
			for _, static := range r.staticRecords {
				if static.TTL == 0 && len(discovered) > 0 {
					static.TTL = math.MaxUint32
				}
				r.records = append(r.records, static)
			}
			r.records.Sort()
			if r.OnResultsReady != nil {
				r.OnResultsReady()
			}
		})
	}()
}

// Abort cancels any in-flight lookup. No event is posted as a result.
func (r *Resolver) Abort() {
	r.abortPending()
}

func (r *Resolver) abortPending() {
	r.generation++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// ResourceRecords copies the merged, sorted result of the most recent
// completed lookup into out.
func (r *Resolver) ResourceRecords(out *RecordSet) {
	*out = append((*out)[:0], r.records...)
}

// LookupFailed reports whether the most recent completed lookup failed.
func (r *Resolver) LookupFailed() bool {
	return r.lookupFailed
}

// newSpanID returns a time-ordered unique identifier (UUIDv7) tying one
// lookup's start/done events together in the log stream.
func newSpanID() string {
	return runtimex.PanicOnError1(uuid.NewV7()).String()
}

func (r *Resolver) logLookupStart(spanID, label string, t0 time.Time) {
	r.Logger.Info(
		"dnsLookupStart",
		slog.String("label", label),
		slog.String("spanID", spanID),
		slog.Time("t", t0),
	)
}

func (r *Resolver) logLookupDone(spanID, label string, t0, t time.Time, err error) {
	r.Logger.Info(
		"dnsLookupDone",
		slog.Any("err", err),
		slog.String("errClass", r.Config.ErrClassifier.Classify(err)),
		slog.String("label", label),
		slog.String("spanID", spanID),
		slog.Time("t0", t0),
		slog.Time("t", t),
	)
}
