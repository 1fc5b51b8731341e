package channels

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/feastline/supportbot/pkg/bus"
	"github.com/feastline/supportbot/pkg/config"
	"github.com/feastline/supportbot/pkg/logger"
)

// Manager owns the configured channel adapters and the dispatch loop
// that fans resolved replies back out to them.
type Manager struct {
	channels     map[string]Channel
	bus          *bus.MessageBus
	config       *config.Config
	dispatchTask *asyncTask
	mu           sync.RWMutex
}

type asyncTask struct {
	cancel context.CancelFunc
}

func NewManager(cfg *config.Config, messageBus *bus.MessageBus) (*Manager, error) {
	m := &Manager{
		channels: make(map[string]Channel),
		bus:      messageBus,
		config:   cfg,
	}

	if err := m.initChannels(); err != nil {
		return nil, err
	}

	return m, nil
}

// initChannels wires up every channel with usable configuration.
// Channels are optional; the HTTP gateway works with none enabled.
func (m *Manager) initChannels() error {
	if strings.TrimSpace(m.config.Channels.Discord.Token) != "" {
		discord, err := NewDiscordChannel(m.config.Channels.Discord, m.bus)
		if err != nil {
			return fmt.Errorf("initialize Discord channel: %w", err)
		}
		m.channels["discord"] = discord
		logger.InfoC("channels", "Discord channel initialized")
	}

	logger.InfoCF("channels", "Channel initialization completed", map[string]any{
		"enabled_channels": len(m.channels),
	})
	return nil
}

func (m *Manager) Enabled() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.channels)
}

func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.RLock()
	if len(m.channels) == 0 {
		m.mu.RUnlock()
		logger.InfoC("channels", "No channels enabled")
		return nil
	}
	channelsCopy := make(map[string]Channel, len(m.channels))
	for name, channel := range m.channels {
		channelsCopy[name] = channel
	}
	m.mu.RUnlock()

	var started []string
	var startErrors []string
	for name, channel := range channelsCopy {
		if err := channel.Start(ctx); err != nil {
			logger.ErrorCF("channels", "Failed to start channel", map[string]any{
				"channel": name,
				"error":   err.Error(),
			})
			startErrors = append(startErrors, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		started = append(started, name)
	}

	if len(startErrors) > 0 {
		for _, name := range started {
			if err := channelsCopy[name].Stop(ctx); err != nil {
				logger.WarnCF("channels", "Failed to stop partially-started channel", map[string]any{
					"channel": name,
					"error":   err.Error(),
				})
			}
		}
		return fmt.Errorf("failed to start channels: %s", strings.Join(startErrors, "; "))
	}

	dispatchCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	if m.dispatchTask != nil {
		m.dispatchTask.cancel()
	}
	m.dispatchTask = &asyncTask{cancel: cancel}
	m.mu.Unlock()

	go m.dispatchOutbound(dispatchCtx)

	logger.InfoCF("channels", "Channels started", map[string]any{
		"channels": strings.Join(started, ","),
	})
	return nil
}

func (m *Manager) StopAll(ctx context.Context) {
	m.mu.Lock()
	if m.dispatchTask != nil {
		m.dispatchTask.cancel()
		m.dispatchTask = nil
	}
	channelsCopy := make(map[string]Channel, len(m.channels))
	for name, channel := range m.channels {
		channelsCopy[name] = channel
	}
	m.mu.Unlock()

	for name, channel := range channelsCopy {
		if err := channel.Stop(ctx); err != nil {
			logger.WarnCF("channels", "Failed to stop channel", map[string]any{
				"channel": name,
				"error":   err.Error(),
			})
		}
	}
}

// dispatchOutbound routes resolved replies to their source channel.
func (m *Manager) dispatchOutbound(ctx context.Context) {
	for {
		msg, ok := m.bus.SubscribeOutbound(ctx)
		if !ok {
			return
		}

		m.mu.RLock()
		channel, exists := m.channels[msg.Channel]
		m.mu.RUnlock()

		if !exists {
			logger.WarnCF("channels", "No channel for outbound message", map[string]any{
				"channel": msg.Channel,
			})
			continue
		}

		if err := channel.Send(ctx, msg); err != nil {
			logger.ErrorCF("channels", "Failed to deliver reply", map[string]any{
				"channel": msg.Channel,
				"error":   err.Error(),
			})
		}
	}
}
