package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
	"unicode/utf8"
)

// maxResponseBytes bounds how much of a response body is buffered.
const maxResponseBytes = 10 << 20

// maxErrorBodyChars bounds the server text copied into an error message.
const maxErrorBodyChars = 512

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type budgetKey struct{}

// WithBudget bounds ctx by d and records d so that timeouts raised under
// the returned context report it. Every call made with that context shares
// the one bound. d <= 0 returns ctx unchanged.
func WithBudget(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	return context.WithValue(ctx, budgetKey{}, d), cancel
}

func budgetOf(ctx context.Context) (time.Duration, bool) {
	d, ok := ctx.Value(budgetKey{}).(time.Duration)
	return d, ok
}

// Call sends req and reads the whole response body within deadline.
// The parent ctx still cancels the call; deadline <= 0 means no extra bound.
// Non-2xx statuses are returned as KindHTTP errors.
func Call(ctx context.Context, doer Doer, req *http.Request, deadline time.Duration, op string) (*Response, error) {
	callCtx := ctx
	cancel := context.CancelFunc(func() {})
	if deadline > 0 {
		callCtx, cancel = context.WithTimeout(ctx, deadline)
	}
	defer cancel()

	resp, err := doer.Do(req.WithContext(callCtx))
	if err != nil {
		return nil, classify(ctx, callCtx, op, deadline, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classify(ctx, callCtx, op, deadline, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("%s failed: %s", op, http.StatusText(resp.StatusCode))
		if text := truncate(string(body), maxErrorBodyChars); text != "" {
			msg += " - " + text
		}
		return nil, HTTP(op, resp.StatusCode, msg)
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// classify maps a transport failure to KindTimeout or KindNetwork.
func classify(parent, callCtx context.Context, op string, deadline time.Duration, err error) error {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return timeout(parent, op, deadline, err)
	}
	if parent.Err() != nil && errors.Is(parent.Err(), context.Canceled) {
		return Network(op, op+" cancelled", err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return timeout(parent, op, deadline, err)
	}
	if errors.Is(err, context.Canceled) {
		return Network(op, op+" cancelled", err)
	}
	return Network(op, op+" request failed: "+err.Error(), err)
}

// timeout reports the bound that fired: the per-call deadline while the
// parent is still live, else the parent's budget. A parent deadline with no
// recorded budget is reported without a duration.
func timeout(parent context.Context, op string, deadline time.Duration, err error) *Error {
	if parent.Err() == nil && deadline > 0 {
		return Timeout(op, deadline, err)
	}
	if d, ok := budgetOf(parent); ok {
		return Timeout(op, d, err)
	}
	return &Error{Op: op, Kind: KindTimeout, Message: op + " timed out", Err: err}
}

// truncate cuts s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
