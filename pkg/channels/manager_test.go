package channels

import (
	"context"
	"testing"

	"github.com/feastline/supportbot/pkg/bus"
	"github.com/feastline/supportbot/pkg/config"
)

// TestManagerNoChannels verifies the manager is a no-op when no
// channel has usable configuration.
func TestManagerNoChannels(t *testing.T) {
	mb := bus.NewMessageBus()
	defer mb.Close()

	m, err := NewManager(config.DefaultConfig(), mb)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if m.Enabled() != 0 {
		t.Fatalf("enabled = %d, want 0", m.Enabled())
	}

	ctx := context.Background()
	if err := m.StartAll(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	m.StopAll(ctx)
}

// TestManagerDiscordInit verifies a configured token registers the
// Discord adapter without connecting.
func TestManagerDiscordInit(t *testing.T) {
	mb := bus.NewMessageBus()
	defer mb.Close()

	cfg := config.DefaultConfig()
	cfg.Channels.Discord.Token = "test-token"

	m, err := NewManager(cfg, mb)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if m.Enabled() != 1 {
		t.Fatalf("enabled = %d, want 1", m.Enabled())
	}
}
