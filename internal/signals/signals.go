// Package signals wires OS signals into context cancellation and terminal
// resize propagation. Leaf package: stdlib only.
package signals

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// NotifyContext returns a context that is canceled when SIGINT or SIGTERM
// is delivered. The returned cancel func releases the signal registration.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(ch)
	}()

	return ctx, cancel
}

// ResizeHandler forwards SIGWINCH to a resize callback. The caller supplies
// both the measurement and the resize operation so this package stays free
// of terminal and daemon imports.
type ResizeHandler struct {
	ch       chan os.Signal
	resize   func(height, width uint) error
	size     func() (width, height int, err error)
	done     chan struct{}
	stopOnce sync.Once
}

// NewResizeHandler builds a handler. resize receives (height, width);
// size reports the current terminal dimensions as (width, height).
func NewResizeHandler(resize func(height, width uint) error, size func() (width, height int, err error)) *ResizeHandler {
	return &ResizeHandler{
		ch:     make(chan os.Signal, 1),
		resize: resize,
		size:   size,
		done:   make(chan struct{}),
	}
}

// Start begins listening for SIGWINCH.
func (h *ResizeHandler) Start() {
	signal.Notify(h.ch, syscall.SIGWINCH)
	go h.loop()
}

// Stop unregisters the signal listener. Safe to call more than once.
func (h *ResizeHandler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.ch)
		close(h.done)
	})
}

func (h *ResizeHandler) loop() {
	for {
		select {
		case <-h.done:
			return
		case <-h.ch:
			h.fire()
		}
	}
}

func (h *ResizeHandler) fire() {
	if h.size == nil || h.resize == nil {
		return
	}
	width, height, err := h.size()
	if err != nil {
		return
	}
	_ = h.resize(uint(height), uint(width))
}

// Fire performs one resize immediately, outside of any signal delivery.
// Used to push the initial terminal size after attach.
func (h *ResizeHandler) Fire() {
	h.fire()
}
