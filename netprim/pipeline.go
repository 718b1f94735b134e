//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/ooni/probe-cli/blob/v3.20.0/internal/x/dslx/fxcore.go
//

package netprim

import "context"

// Func is one stage of a connection pipeline: it consumes an input, may
// perform I/O bounded by ctx, and produces the next stage's input or an
// error.
//
// Cleanup contract: a stage that receives a closeable resource and then
// fails must close that resource before returning, so a partially built
// connection never leaks. [TLSHandshakeFunc] closes the TCP socket when
// the handshake fails, for example.
type Func[A, B any] interface {
	Call(ctx context.Context, input A) (B, error)
}

// FuncAdapter turns a closure into a [Func] stage, for pipeline steps too
// small or too local to deserve a named type. The Compose helpers below
// are themselves built on it.
type FuncAdapter[A, B any] func(ctx context.Context, input A) (B, error)

// Call implements [Func].
func (f FuncAdapter[A, B]) Call(ctx context.Context, input A) (B, error) {
	return f(ctx, input)
}

// Compose2 chains op1 into op2: op2 consumes op1's output, and when op1
// fails its error is returned without op2 ever running.
func Compose2[A, B, C any](op1 Func[A, B], op2 Func[B, C]) Func[A, C] {
	return FuncAdapter[A, C](func(ctx context.Context, input A) (C, error) {
		mid, err := op1.Call(ctx, input)
		if err != nil {
			var zero C
			return zero, err
		}
		return op2.Call(ctx, mid)
	})
}

// Compose3 chains three stages; this is the shape of the plaintext dial
// pipeline (dial, bind to the attempt's context, observe I/O).
func Compose3[A, B, C, D any](op1 Func[A, B], op2 Func[B, C], op3 Func[C, D]) Func[A, D] {
	return Compose2(op1, Compose2(op2, op3))
}

// Compose4 chains four stages; the TLS dial pipeline appends a handshake
// stage to the plaintext one.
func Compose4[A, B, C, D, E any](op1 Func[A, B], op2 Func[B, C], op3 Func[C, D], op4 Func[D, E]) Func[A, E] {
	return Compose2(op1, Compose3(op2, op3, op4))
}
