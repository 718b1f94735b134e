// SPDX-License-Identifier: GPL-3.0-or-later

package dnssrv_test

import (
	"testing"

	"github.com/svxlink-go/asynclink/dnssrv"
	"github.com/stretchr/testify/assert"
)

// Sort orders ascending by priority and is stable on ties.
func TestRecordSetSortStableOnTies(t *testing.T) {
	rs := dnssrv.RecordSet{
		{Priority: 20, Target: "b."},
		{Priority: 10, Target: "first-at-10."},
		{Priority: 10, Target: "second-at-10."},
		{Priority: 5, Target: "a."},
	}
	rs.Sort()

	require := assert.New(t)
	require.Equal("a.", rs[0].Target)
	require.Equal("first-at-10.", rs[1].Target)
	require.Equal("second-at-10.", rs[2].Target)
	require.Equal("b.", rs[3].Target)
}

// Begin/End describe an empty set with Begin == -1 == no iteration.
func TestRecordSetBeginEndEmpty(t *testing.T) {
	var rs dnssrv.RecordSet
	assert.Equal(t, -1, rs.Begin())
	assert.Equal(t, 0, rs.End())
}

// Begin/End bound a non-empty set as [0, len).
func TestRecordSetBeginEndNonEmpty(t *testing.T) {
	rs := dnssrv.RecordSet{{Target: "a."}, {Target: "b."}}
	assert.Equal(t, 0, rs.Begin())
	assert.Equal(t, 2, rs.End())
}
