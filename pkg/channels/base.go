package channels

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/feastline/supportbot/pkg/bus"
)

type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, msg bus.OutboundMessage) error
	IsRunning() bool
	IsAllowed(senderID string) bool
}

// BaseChannel carries the state every adapter shares. The running
// flag is atomic: Start/Stop flip it while the dispatch goroutine
// reads it through Send.
type BaseChannel struct {
	bus       *bus.MessageBus
	name      string
	allowList []string
	running   atomic.Bool
}

func NewBaseChannel(name string, bus *bus.MessageBus, allowList []string) *BaseChannel {
	return &BaseChannel{
		bus:       bus,
		name:      name,
		allowList: allowList,
	}
}

func (c *BaseChannel) Name() string {
	return c.name
}

func (c *BaseChannel) IsRunning() bool {
	return c.running.Load()
}

// IsAllowed checks the sender against the allow list. An empty allow
// list admits everyone.
func (c *BaseChannel) IsAllowed(senderID string) bool {
	if len(c.allowList) == 0 {
		return true
	}
	for _, allowed := range c.allowList {
		candidate := strings.TrimSpace(strings.TrimPrefix(allowed, "@"))
		if candidate != "" && candidate == senderID {
			return true
		}
	}
	return false
}

// HandleMessage publishes an inbound user message onto the bus. The
// resolver derives the session id from channel and chat.
func (c *BaseChannel) HandleMessage(senderID, chatID, content string, metadata map[string]string) {
	if !c.IsAllowed(senderID) {
		return
	}

	c.bus.PublishInbound(bus.InboundMessage{
		Channel:  c.name,
		SenderID: senderID,
		ChatID:   chatID,
		Content:  content,
		Metadata: metadata,
	})
}

func (c *BaseChannel) setRunning(running bool) {
	c.running.Store(running)
}
