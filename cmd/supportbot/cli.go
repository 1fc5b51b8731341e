package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/feastline/supportbot/pkg/bus"
	"github.com/feastline/supportbot/pkg/cache"
	"github.com/feastline/supportbot/pkg/catalog"
	"github.com/feastline/supportbot/pkg/channels"
	"github.com/feastline/supportbot/pkg/config"
	"github.com/feastline/supportbot/pkg/convlog"
	"github.com/feastline/supportbot/pkg/gateway"
	"github.com/feastline/supportbot/pkg/llm"
	"github.com/feastline/supportbot/pkg/logger"
	"github.com/feastline/supportbot/pkg/report"
	"github.com/feastline/supportbot/pkg/resolver"
	"github.com/feastline/supportbot/pkg/rules"
	"github.com/feastline/supportbot/pkg/session"
)

const resolveWorkers = 4

func executeCLI() error {
	return buildRootCommand().Execute()
}

func buildRootCommand() *cobra.Command {
	var showVersion bool

	root := &cobra.Command{
		Use:   "supportbot",
		Short: "Rule-first support chat service with a local-model fallback",
		Long: strings.TrimSpace(`supportbot resolves support messages for a food-delivery service.

Deterministic intent rules answer the common questions instantly; anything
they miss is served from the response cache or generated by a locally
hosted language model.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion()
				return nil
			}
			_ = cmd.Help()
			return fmt.Errorf("a subcommand is required")
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "Show build/version metadata")

	root.AddCommand(newServeCommand())
	root.AddCommand(newChatCommand())
	root.AddCommand(newReportCommand())
	root.AddCommand(newOnboardCommand())
	root.AddCommand(newVersionCommand())

	return root
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".supportbot", "config.json")
}

func addConfigFlag(cmd *cobra.Command, configPath *string) {
	cmd.Flags().StringVarP(configPath, "config", "c", defaultConfigPath(), "Path to config file")
}

// app bundles the collaborators every command variant builds the
// same way.
type app struct {
	cfg      *config.Config
	catalog  *catalog.Catalog
	store    *convlog.Store
	log      *convlog.Service
	resolver *resolver.Resolver
}

func buildApp(configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cat, err := catalog.Load(catalog.Files{
		Dir:         cfg.Data.Dir,
		Restaurants: cfg.Data.Restaurants,
		Menu:        cfg.Data.Menu,
		Orders:      cfg.Data.Orders,
	})
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	store, err := convlog.NewStore(cfg.ConversationDBPath())
	if err != nil {
		return nil, fmt.Errorf("open conversation log: %w", err)
	}

	logService := convlog.NewService(store, cfg.ConvLog.RetentionDays, cfg.ConvLog.CleanupSchedule)

	client := llm.NewClient(cfg.Model.BaseURL, 0)

	// The model backend must be loadable at startup; per-request
	// failures later degrade to an apology reply instead.
	probeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Health(probeCtx); err != nil {
		store.Close()
		return nil, fmt.Errorf("model backend not available at %s: %w", cfg.Model.BaseURL, err)
	}

	res := resolver.New(resolver.Params{
		Rules:    rules.NewEngine(cat, cfg.Support.Phone),
		Cache:    cache.New(),
		Sessions: session.NewStore(cfg.Chat.MaxHistory, cfg.Chat.DefaultSession),
		Client:   client,
		Recorder: logService,
		Options: llm.Options{
			MaxTokens:     cfg.Model.MaxTokens,
			Temperature:   cfg.Model.Temperature,
			TopP:          cfg.Model.TopP,
			TopK:          cfg.Model.TopK,
			RepeatPenalty: cfg.Model.RepeatPenalty,
			Stop:          cfg.Model.Stop,
		},
		Timeout:       time.Duration(cfg.Model.TimeoutSeconds) * time.Second,
		MaxConcurrent: cfg.Model.MaxConcurrent,
	})

	return &app{
		cfg:      cfg,
		catalog:  cat,
		store:    store,
		log:      logService,
		resolver: res,
	}, nil
}

func newServeCommand() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP gateway and any configured channels",
		Long:    "Start the chat API, the conversation log writer, and channel adapters such as Discord.",
		Example: "  supportbot serve --debug",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.SetDebug(debug)
			return runServe(configPath)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func runServe(configPath string) error {
	rt, err := buildApp(configPath)
	if err != nil {
		return err
	}
	defer rt.store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt.log.Start(ctx)

	messageBus := bus.NewMessageBus()
	manager, err := channels.NewManager(rt.cfg, messageBus)
	if err != nil {
		return err
	}
	if err := manager.StartAll(ctx); err != nil {
		return err
	}

	// Bounded worker pool draining channel traffic through the
	// resolver.
	var workers sync.WaitGroup
	for i := 0; i < resolveWorkers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for {
				msg, ok := messageBus.ConsumeInbound(ctx)
				if !ok {
					return
				}
				res := rt.resolver.Resolve(ctx, msg.Content, msg.Channel+":"+msg.ChatID)
				messageBus.PublishOutbound(bus.OutboundMessage{
					Channel: msg.Channel,
					ChatID:  msg.ChatID,
					Content: res.Reply,
				})
			}
		}()
	}

	server := gateway.NewServer(rt.cfg.ListenAddr(), rt.resolver, rt.catalog, rt.log, formatVersion())
	logger.InfoCF("serve", "SupportBot ready", map[string]any{
		"addr":     rt.cfg.ListenAddr(),
		"channels": manager.Enabled(),
	})

	serveErr := server.Start(ctx)

	stop()
	manager.StopAll(context.Background())
	messageBus.Close()
	workers.Wait()
	rt.log.Stop()

	return serveErr
}

func newChatCommand() *cobra.Command {
	var (
		configPath string
		sessionID  string
		message    string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the support bot from the terminal",
		Long:  "Run an interactive local session, or send a one-shot message with --message.",
		Example: strings.Join([]string{
			"  supportbot chat",
			"  supportbot chat --session cli-test",
			"  supportbot chat --message \"Where is my order ORD100000?\"",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.SetDebug(debug)
			return runChat(configPath, sessionID, message)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&sessionID, "session", "s", "cli", "Session id for history continuity")
	cmd.Flags().StringVarP(&message, "message", "m", "", "One-shot message to resolve")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func runChat(configPath, sessionID, oneShot string) error {
	rt, err := buildApp(configPath)
	if err != nil {
		return err
	}
	defer rt.store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt.log.Start(ctx)
	defer rt.log.Stop()

	if strings.TrimSpace(oneShot) != "" {
		res := rt.resolver.Resolve(ctx, oneShot, sessionID)
		fmt.Println(res.Reply)
		return nil
	}

	fmt.Println(config.WelcomeMessage)
	fmt.Println()

	rl, err := readline.New("you> ")
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		res := rt.resolver.Resolve(ctx, line, sessionID)
		fmt.Printf("bot> %s\n", res.Reply)
		fmt.Printf("     (%s, %.2fs)\n\n", res.Source, res.Elapsed.Seconds())
	}

	fmt.Println("👋 Goodbye!")
	return nil
}

func newReportCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:     "report",
		Short:   "Print a usage report from the conversation log",
		Example: "  supportbot report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			store, err := convlog.NewStore(cfg.ConversationDBPath())
			if err != nil {
				return fmt.Errorf("open conversation log: %w", err)
			}
			defer store.Close()

			records, err := store.All(cmd.Context(), 0)
			if err != nil {
				return fmt.Errorf("read conversation log: %w", err)
			}

			report.Generate(os.Stdout, records)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newOnboardCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:     "onboard",
		Short:   "Write the default config and seed data files",
		Example: "  supportbot onboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()

			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				if err := config.SaveConfig(configPath, cfg); err != nil {
					return fmt.Errorf("write config: %w", err)
				}
				fmt.Printf("✅ Wrote default config: %s\n", configPath)
			} else {
				fmt.Printf("Config already exists: %s\n", configPath)
			}

			if err := catalog.WriteSeed(cfg.Data.Dir); err != nil {
				return fmt.Errorf("write seed data: %w", err)
			}
			fmt.Printf("✅ Seed data ready in: %s\n", cfg.Data.Dir)
			fmt.Println("\nNext: start a llama.cpp server, then run `supportbot serve`.")
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build/version metadata",
		Run: func(cmd *cobra.Command, args []string) {
			printVersion()
		},
	}
}
