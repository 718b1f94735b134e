// SPDX-License-Identifier: GPL-3.0-or-later

package dnssrv

import "sort"

// Record is one SRV resource record: a priority/weight/port/target tuple
// plus the TTL it was returned with.
type Record struct {
	// Priority orders records ascending: lower values are preferred.
	Priority uint16

	// Weight is carried for completeness but does not affect ordering;
	// this package breaks priority ties by insertion order, not by
	// weighted selection (see [RecordSet.Sort]).
	Weight uint16

	// Port is the target's TCP port.
	Port uint16

	// Target is the SRV target hostname, including the trailing dot.
	Target string

	// TTL is the record's time-to-live in seconds. For discovered records
	// this is whatever DNS returned; for static records it is the
	// configured value, with zero rewritten at merge time (see
	// [Resolver.AddStaticRecord]).
	TTL uint32
}

// RecordSet is an ordered collection of [Record] values.
type RecordSet []Record

// Sort orders rs ascending by [Record.Priority], breaking ties by
// preserving the relative order records already had (the order DNS
// returned them in, with any static records appended after). Priority
// ties therefore never reorder between lookups; this is deliberately not
// RFC 2782 weighted-random selection, which would make the notion of
// "the primary record" unstable across re-probes.
func (rs RecordSet) Sort() {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].Priority < rs[j].Priority
	})
}

// Begin returns the index of the first record, or -1 if rs is empty.
func (rs RecordSet) Begin() int {
	if len(rs) == 0 {
		return -1
	}
	return 0
}

// End returns the sentinel one-past-the-last index.
func (rs RecordSet) End() int {
	return len(rs)
}
