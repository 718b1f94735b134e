// SPDX-License-Identifier: GPL-3.0-or-later

package netprim

import "github.com/svxlink-go/asynclink/errclass"

// ErrClassifier maps an error to the short label logged as the errClass
// field, so a log stream of reconnect attempts can be grouped by failure
// family ("ECONNREFUSED", "ETIMEDOUT", ...) without parsing error text.
type ErrClassifier interface {
	Classify(err error) string
}

// ErrClassifierFunc adapts a plain function to [ErrClassifier], the same
// way [net/http.HandlerFunc] adapts handlers.
type ErrClassifierFunc func(error) string

var _ ErrClassifier = ErrClassifierFunc(nil)

// Classify implements [ErrClassifier].
func (f ErrClassifierFunc) Classify(err error) string {
	return f(err)
}

// DefaultErrClassifier classifies through [errclass.New].
var DefaultErrClassifier = ErrClassifierFunc(errclass.New)
