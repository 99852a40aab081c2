package events

import "context"

// ChannelPublisher buffers events in memory. It is the local development
// and unit test backend; a full buffer drops the oldest event rather than
// blocking a workflow run.
type ChannelPublisher struct {
	ch chan Event
}

func NewChannelPublisher(buffer int) *ChannelPublisher {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelPublisher{ch: make(chan Event, buffer)}
}

func (p *ChannelPublisher) Publish(_ context.Context, event Event) error {
	for {
		select {
		case p.ch <- event:
			return nil
		default:
			select {
			case <-p.ch:
			default:
			}
		}
	}
}

// Events exposes the buffered stream for consumers and tests.
func (p *ChannelPublisher) Events() <-chan Event { return p.ch }

func (p *ChannelPublisher) Close() {}
