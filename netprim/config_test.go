// SPDX-License-Identifier: GPL-3.0-or-later

package netprim

import (
	"context"
	"net"
	"testing"

	"github.com/svxlink-go/asynclink/errclass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewConfig fills every field with a usable default: the stdlib dialer,
// the errclass-backed classifier, and the real clock.
func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)

	_, ok := cfg.Dialer.(*net.Dialer)
	assert.True(t, ok)

	assert.Equal(t, "", cfg.ErrClassifier.Classify(nil))
	assert.Equal(t, errclass.ETIMEDOUT, cfg.ErrClassifier.Classify(context.DeadlineExceeded))

	assert.False(t, cfg.TimeNow().IsZero())
}
