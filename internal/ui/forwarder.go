// Package ui is the boundary to the interactive rendering layer. The core
// never renders; it hands Forward values to a UIForwarder and receives
// resolved values back through the router. ChannelForwarder is the minimal
// implementation used by the CLI and by tests.
package ui

import "github.com/scriptdeck/scriptdeck/internal/router"

// ChannelForwarder queues UI-bound messages on a channel for a consumer
// loop. Forward blocks when the consumer falls behind, preserving the
// backpressure guarantee end to end.
type ChannelForwarder struct {
	ch chan router.Forward
}

func NewChannelForwarder(buffer int) *ChannelForwarder {
	if buffer <= 0 {
		buffer = 16
	}
	return &ChannelForwarder{ch: make(chan router.Forward, buffer)}
}

func (f *ChannelForwarder) Forward(fw router.Forward) {
	f.ch <- fw
}

// Prompts is the stream the rendering loop consumes.
func (f *ChannelForwarder) Prompts() <-chan router.Forward {
	return f.ch
}
