package bus

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// OutboundHandler delivers one message on a channel.
type OutboundHandler func(msg OutboundMessage)

// MessageBus carries messages between channels and the gateway. Inbound is
// read by the gateway; Outbound is fanned out to the subscriber registered
// for the message's channel.
type MessageBus struct {
	Inbound  chan InboundMessage
	Outbound chan OutboundMessage

	mu     sync.RWMutex
	subs   map[string]OutboundHandler
	logger *zap.Logger
}

func NewMessageBus(bufSize int) *MessageBus {
	if bufSize < 0 {
		bufSize = 0
	}
	return &MessageBus{
		Inbound:  make(chan InboundMessage, bufSize),
		Outbound: make(chan OutboundMessage, bufSize),
		subs:     make(map[string]OutboundHandler),
		logger:   zap.NewNop(),
	}
}

// SetLogger replaces the no-op logger used for undeliverable messages.
func (b *MessageBus) SetLogger(l *zap.Logger) {
	if l == nil {
		return
	}
	b.mu.Lock()
	b.logger = l.Named("bus")
	b.mu.Unlock()
}

// SubscribeOutbound registers the handler for a channel, replacing any
// previous one.
func (b *MessageBus) SubscribeOutbound(channel string, fn OutboundHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[channel] = fn
}

// Publish queues an outbound message unless ctx is done first.
func (b *MessageBus) Publish(ctx context.Context, msg OutboundMessage) error {
	select {
	case b.Outbound <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DispatchOutbound delivers outbound messages until ctx is cancelled.
// Messages for a channel without a subscriber are dropped.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	for {
		select {
		case msg := <-b.Outbound:
			b.mu.RLock()
			fn, ok := b.subs[msg.Channel]
			logger := b.logger
			b.mu.RUnlock()
			if !ok {
				logger.Warn("no subscriber for outbound message", zap.String("channel", msg.Channel), zap.String("chat", msg.ChatID))
				continue
			}
			fn(msg)
		case <-ctx.Done():
			return
		}
	}
}
