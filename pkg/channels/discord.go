package channels

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/feastline/supportbot/pkg/bus"
	"github.com/feastline/supportbot/pkg/config"
	"github.com/feastline/supportbot/pkg/logger"
)

const (
	sendTimeout = 10 * time.Second
	// Discord caps messages at 2000 characters; leave headroom so
	// chunks split on natural boundaries.
	chunkLimit = 1800
)

type DiscordChannel struct {
	*BaseChannel
	session *discordgo.Session
	config  config.DiscordConfig
}

func NewDiscordChannel(cfg config.DiscordConfig, bus *bus.MessageBus) (*DiscordChannel, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	return &DiscordChannel{
		BaseChannel: NewBaseChannel("discord", bus, cfg.AllowFrom),
		session:     session,
		config:      cfg,
	}, nil
}

func (c *DiscordChannel) Start(ctx context.Context) error {
	logger.InfoC("discord", "Starting Discord channel")

	c.session.AddHandler(c.handleMessage)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}

	c.setRunning(true)

	botUser, err := c.session.User("@me")
	if err != nil {
		return fmt.Errorf("failed to get bot user: %w", err)
	}
	logger.InfoCF("discord", "Discord channel connected", map[string]any{
		"username": botUser.Username,
		"user_id":  botUser.ID,
	})

	return nil
}

func (c *DiscordChannel) Stop(ctx context.Context) error {
	logger.InfoC("discord", "Stopping Discord channel")
	c.setRunning(false)

	if err := c.session.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}
	return nil
}

func (c *DiscordChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("discord channel not running")
	}
	if msg.ChatID == "" {
		return fmt.Errorf("channel ID is empty")
	}
	if strings.TrimSpace(msg.Content) == "" {
		return nil
	}

	for _, chunk := range splitMessage(msg.Content, chunkLimit) {
		if err := c.sendChunk(ctx, msg.ChatID, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (c *DiscordChannel) sendChunk(ctx context.Context, channelID, content string) error {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := c.session.ChannelMessageSend(channelID, content)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send discord message: %w", err)
		}
		return nil
	case <-sendCtx.Done():
		return fmt.Errorf("send message timeout: %w", sendCtx.Err())
	}
}

// splitMessage splits long replies into chunks at newline boundaries
// where possible, falling back to a hard cut on a rune boundary so a
// multi-byte emoji is never torn apart.
func splitMessage(content string, limit int) []string {
	var chunks []string
	for len(content) > limit {
		cut := strings.LastIndexByte(content[:limit], '\n')
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(content[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
		}
		chunks = append(chunks, strings.TrimRight(content[:cut], "\n"))
		content = strings.TrimLeft(content[cut:], "\n")
	}
	if content != "" {
		chunks = append(chunks, content)
	}
	return chunks
}

func (c *DiscordChannel) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Author == nil {
		return
	}
	if m.Author.ID == s.State.User.ID {
		return
	}
	if !c.IsAllowed(m.Author.ID) {
		logger.DebugCF("discord", "Message rejected by allowlist", map[string]any{
			"user_id": m.Author.ID,
		})
		return
	}

	content := strings.TrimSpace(m.Content)
	if content == "" {
		return
	}

	// Typing hint while the reply resolves; best effort.
	if err := c.session.ChannelTyping(m.ChannelID); err != nil {
		logger.DebugCF("discord", "Failed to send typing indicator", map[string]any{
			"error": err.Error(),
		})
	}

	c.HandleMessage(m.Author.ID, m.ChannelID, content, map[string]string{
		"message_id": m.ID,
		"username":   m.Author.Username,
		"guild_id":   m.GuildID,
	})
}
