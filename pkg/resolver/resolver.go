package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/feastline/supportbot/pkg/cache"
	"github.com/feastline/supportbot/pkg/convlog"
	"github.com/feastline/supportbot/pkg/llm"
	"github.com/feastline/supportbot/pkg/logger"
	"github.com/feastline/supportbot/pkg/rules"
	"github.com/feastline/supportbot/pkg/session"
)

// Source tags where a reply came from.
type Source string

const (
	SourceRules   Source = "rules"
	SourceCache   Source = "cache"
	SourceModel   Source = "model"
	SourceApology Source = "apology"
)

// apologyReply is returned when the model backend fails mid-request.
// It is never cached.
const apologyReply = "❌ Sorry, I encountered an error. Please try again."

// promptTemplate embeds only the current message. Session history is
// tracked for memory bounding and the history API, not threaded into
// the prompt.
const promptTemplate = "<s>[INST] You are FeastLine support. Be brief and helpful.\n\nUser: %s\n[/INST]"

// CompletionClient is the slice of llm.Client the resolver needs;
// tests substitute a counting fake.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, opts llm.Options) (string, error)
}

// Recorder receives one record per completed resolution for
// asynchronous durable storage.
type Recorder interface {
	Record(rec convlog.Record)
}

// Resolution is the outcome of resolving one message.
type Resolution struct {
	Reply     string
	SessionID string
	Source    Source
	Rule      string
	Timestamp time.Time
	Elapsed   time.Duration
}

// Resolver composes the pipeline: rule engine fast path, cached
// fallback path, then the generative model slow path, with session
// bookkeeping around all three.
type Resolver struct {
	rules    *rules.Engine
	cache    *cache.Store
	sessions *session.Store
	client   CompletionClient
	recorder Recorder

	opts    llm.Options
	timeout time.Duration // 0 = no per-request deadline
	sem     chan struct{}

	generatorCalls atomic.Uint64
}

// Params collects the resolver's injected collaborators and tuning.
type Params struct {
	Rules         *rules.Engine
	Cache         *cache.Store
	Sessions      *session.Store
	Client        CompletionClient
	Recorder      Recorder // optional
	Options       llm.Options
	Timeout       time.Duration // optional per-completion deadline
	MaxConcurrent int
}

func New(p Params) *Resolver {
	maxConcurrent := p.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Resolver{
		rules:    p.Rules,
		cache:    p.Cache,
		sessions: p.Sessions,
		client:   p.Client,
		recorder: p.Recorder,
		opts:     p.Options,
		timeout:  p.Timeout,
		sem:      make(chan struct{}, maxConcurrent),
	}
}

// Resolve turns a user message into a reply. It never returns an
// error: rule misses route to the fallback path and model failures
// render the apology template.
func (r *Resolver) Resolve(ctx context.Context, message, sessionID string) Resolution {
	start := time.Now()

	sid := r.sessions.Append(sessionID, session.Turn{
		Role:      session.RoleUser,
		Content:   message,
		Timestamp: start,
	})

	reply, source, rule := r.resolveReply(ctx, message)

	r.sessions.Append(sid, session.Turn{
		Role:      session.RoleAgent,
		Content:   reply,
		Timestamp: time.Now(),
	})

	res := Resolution{
		Reply:     reply,
		SessionID: sid,
		Source:    source,
		Rule:      rule,
		Timestamp: start,
		Elapsed:   time.Since(start),
	}

	if r.recorder != nil {
		r.recorder.Record(convlog.Record{
			SessionID:   sid,
			UserMessage: message,
			BotResponse: reply,
			CreatedAt:   start,
		})
	}

	logger.DebugCF("resolver", "Resolved message", map[string]any{
		"session_id": sid,
		"source":     string(source),
		"elapsed_ms": res.Elapsed.Milliseconds(),
	})

	return res
}

func (r *Resolver) resolveReply(ctx context.Context, message string) (string, Source, string) {
	if reply, rule, ok := r.rules.Match(message); ok {
		return reply, SourceRules, rule
	}

	key := cache.Normalize(message)
	if reply, ok := r.cache.Get(key); ok {
		return reply, SourceCache, ""
	}

	reply, err := r.generate(ctx, message)
	if err != nil {
		logger.ErrorCF("resolver", "Model completion failed", map[string]any{
			"error": err.Error(),
		})
		return apologyReply, SourceApology, ""
	}

	r.cache.Put(key, reply)
	return reply, SourceModel, ""
}

func (r *Resolver) generate(ctx context.Context, message string) (string, error) {
	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-r.sem }()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.generatorCalls.Add(1)

	prompt := fmt.Sprintf(promptTemplate, message)
	raw, err := r.client.Complete(ctx, prompt, r.opts)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// GeneratorInvocations reports how many times the model has been
// called, for the stats endpoint and for cache observability in tests.
func (r *Resolver) GeneratorInvocations() uint64 {
	return r.generatorCalls.Load()
}

// History exposes the in-memory session turns.
func (r *Resolver) History(sessionID string) []session.Turn {
	return r.sessions.Get(sessionID)
}

// CachedReplies reports the current response cache size.
func (r *Resolver) CachedReplies() int {
	return r.cache.Len()
}
