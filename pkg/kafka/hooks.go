package kafka

import (
	"context"
	"fmt"
	"time"
)

// ConsumerHook observes message handling. BeforeHandle may replace the context
// or payload; a non-nil error skips the handler and counts as a failed attempt.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, topic string, data []byte) (context.Context, []byte, error)
	AfterHandle(ctx context.Context, topic string, data []byte, err error, took time.Duration)
}

type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ string, data []byte) (context.Context, []byte, error) {
	return ctx, data, nil
}

func (NoopHook) AfterHandle(context.Context, string, []byte, error, time.Duration) {}

// HookFuncs adapts plain functions to ConsumerHook. Nil fields are no-ops.
type HookFuncs struct {
	Before func(context.Context, string, []byte) (context.Context, []byte, error)
	After  func(context.Context, string, []byte, error, time.Duration)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, topic string, data []byte) (context.Context, []byte, error) {
	if h.Before == nil {
		return ctx, data, nil
	}
	return h.Before(ctx, topic, data)
}

func (h HookFuncs) AfterHandle(ctx context.Context, topic string, data []byte, err error, took time.Duration) {
	if h.After != nil {
		h.After(ctx, topic, data, err, took)
	}
}

// HookChain runs BeforeHandle in order and AfterHandle in reverse.
// A panicking hook is converted to an error instead of killing the worker.
type HookChain struct {
	hooks []ConsumerHook
}

func NewHookChain(hooks ...ConsumerHook) *HookChain {
	out := make([]ConsumerHook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			out = append(out, h)
		}
	}
	return &HookChain{hooks: out}
}

func (hc *HookChain) BeforeHandle(ctx context.Context, topic string, data []byte) (rctx context.Context, rdata []byte, err error) {
	rctx, rdata = ctx, data
	for _, h := range hc.hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("hook panic: %v", r)
				}
			}()
			rctx, rdata, err = h.BeforeHandle(rctx, topic, rdata)
		}()
		if err != nil {
			return rctx, rdata, err
		}
	}
	return rctx, rdata, nil
}

func (hc *HookChain) AfterHandle(ctx context.Context, topic string, data []byte, err error, took time.Duration) {
	for i := len(hc.hooks) - 1; i >= 0; i-- {
		func() {
			defer func() { _ = recover() }()
			hc.hooks[i].AfterHandle(ctx, topic, data, err, took)
		}()
	}
}
