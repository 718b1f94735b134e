// SPDX-License-Identifier: GPL-3.0-or-later

package netprim

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A *slog.Logger plugs in directly, and records written through the
// SLogger surface reach its handler.
func TestSlogLoggerIsAnSLogger(t *testing.T) {
	logger, records := newCapturingLogger()

	var sl SLogger = logger
	sl.Info("connectStart", slog.String("remoteAddr", "a.example.:5220"))
	sl.Debug("readStart", slog.Int("ioBufferSize", 512))

	require.Len(t, *records, 2)
	assert.Equal(t, "connectStart", (*records)[0].Message)
	assert.Equal(t, "readStart", (*records)[1].Message)
}

// The default logger discards without panicking.
func TestDefaultSLoggerDiscards(t *testing.T) {
	logger := DefaultSLogger()
	logger.Info("connectDone", slog.Any("err", nil))
	logger.Debug("writeDone")
}
