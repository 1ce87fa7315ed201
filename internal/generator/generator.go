package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/user/tracegen/internal/config"
	"github.com/user/tracegen/internal/dataset"
	"github.com/user/tracegen/internal/prompts"
	"github.com/user/tracegen/internal/session"
	"github.com/user/tracegen/internal/tools"
	"github.com/user/tracegen/pkg/llm"
)

// Generator fans independent agent sessions out over a prompt list and
// appends the resulting entries to the dataset file. Each session gets its
// own workspace directory; sessions share only the provider and the
// read-only tool definitions.
type Generator struct {
	cfg      *config.Config
	provider llm.Provider
	counter  *prompts.Counter
	runID    string
	log      *slog.Logger

	toolDefs []llm.Tool

	mu          sync.Mutex
	totalCost   float64
	totalTokens int
	written     int
	failed      int
}

// New creates a generator. The provider is injected so tests can substitute
// a mock; production callers pass an openai client built from cfg.
func New(cfg *config.Config, provider llm.Provider) (*Generator, error) {
	if cfg.API.APIKey == "" {
		env := cfg.API.APIKeyEnv
		if env == "" {
			env = "OPENROUTER_API_KEY"
		}
		return nil, fmt.Errorf("missing API key: set api.api_key or the %s environment variable", env)
	}

	// The counter pulls encoding data on first construction, so only build
	// it when a prompt token budget is configured.
	var counter *prompts.Counter
	if cfg.Prompts.MaxPromptTokens > 0 {
		c, err := prompts.NewCounter(cfg.API.Model)
		if err != nil {
			return nil, fmt.Errorf("create token counter: %w", err)
		}
		counter = c
	}

	runID := uuid.New().String()
	return &Generator{
		cfg:      cfg,
		provider: provider,
		counter:  counter,
		runID:    runID,
		log:      slog.With("run_id", runID),
		toolDefs: tools.Definitions(cfg.Agent.ToolsEnabled),
	}, nil
}

// Run executes the generation loop: load prompts, filter already-completed
// ones, process the rest with bounded concurrency, and log totals.
func (g *Generator) Run(ctx context.Context) error {
	g.log.Info("starting dataset generation", "source", g.cfg.Prompts.Source)

	loaded, err := prompts.Load(g.cfg.Prompts.Source)
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}
	g.log.Info("loaded prompts", "count", len(loaded))

	if g.cfg.Prompts.Shuffle {
		rand.Shuffle(len(loaded), func(i, j int) {
			loaded[i], loaded[j] = loaded[j], loaded[i]
		})
	}
	if limit := g.cfg.Prompts.Limit; limit > 0 && limit < len(loaded) {
		loaded = loaded[:limit]
	}
	if budget := g.cfg.Prompts.MaxPromptTokens; budget > 0 {
		kept := loaded[:0]
		skipped := 0
		for _, p := range loaded {
			if g.counter.Count(p) > budget {
				skipped++
				continue
			}
			kept = append(kept, p)
		}
		loaded = kept
		if skipped > 0 {
			g.log.Info("skipped oversized prompts", "count", skipped, "max_tokens", budget)
		}
	}

	writer := dataset.NewWriter(g.cfg.Output.DatasetFile)
	if !g.cfg.Output.AppendMode {
		if err := writer.Truncate(); err != nil {
			return fmt.Errorf("truncate dataset: %w", err)
		}
	}
	errWriter := dataset.NewWriter(g.errorFilePath())

	type job struct {
		index  int
		prompt string
	}
	var toProcess []job
	if g.cfg.Processing.Resume {
		completed, err := dataset.CompletedPrompts(g.cfg.Output.DatasetFile)
		if err != nil {
			return fmt.Errorf("scan completed prompts: %w", err)
		}
		g.log.Info("found completed prompts", "count", len(completed))
		for i, p := range loaded {
			if !completed[strings.TrimSpace(p)] {
				toProcess = append(toProcess, job{i, p})
			}
		}
	} else {
		for i, p := range loaded {
			toProcess = append(toProcess, job{i, p})
		}
	}

	if len(toProcess) == 0 {
		g.log.Info("no prompts to process")
		return nil
	}
	g.log.Info("processing prompts", "count", len(toProcess))

	if err := os.MkdirAll(g.cfg.Workspace.BaseDir, 0o755); err != nil {
		return fmt.Errorf("create workspace base dir: %w", err)
	}

	concurrency := int64(g.cfg.Processing.Concurrency)
	if concurrency < 1 {
		concurrency = 1
	}
	sem := semaphore.NewWeighted(concurrency)
	var wg sync.WaitGroup

	for _, j := range toProcess {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			defer sem.Release(1)
			g.processPrompt(ctx, j.index, j.prompt, writer, errWriter)
		}(j)
	}
	wg.Wait()

	g.log.Info("dataset generation complete",
		"entries", g.written,
		"failed", g.failed,
		"total_cost", fmt.Sprintf("$%.4f", g.totalCost),
		"total_tokens", g.totalTokens,
		"output", g.cfg.Output.DatasetFile,
	)
	return ctx.Err()
}

// processPrompt runs one session and appends the outcome to the dataset or,
// on fatal session error, to the errors file for later rescue.
func (g *Generator) processPrompt(ctx context.Context, index int, prompt string, writer, errWriter *dataset.Writer) {
	sessionID := fmt.Sprintf("session_%06d", index)
	workspace := filepath.Join(g.cfg.Workspace.BaseDir, sessionID)

	log := g.log.With("session_id", sessionID)
	log.Info("processing prompt", "prompt", snippet(prompt, 80))

	if err := os.MkdirAll(workspace, 0o755); err != nil {
		log.Error("create workspace", "error", err)
		return
	}

	registry, err := tools.NewRegistry(workspace, tools.Options{SearxURL: g.cfg.API.SearxngURL})
	if err != nil {
		log.Error("create tool registry", "error", err)
		return
	}

	sess := session.New(sessionID, prompt, g.provider, registry, session.Config{
		SystemPrompt: g.cfg.Agent.SystemPrompt,
		MaxTurns:     g.cfg.Agent.MaxTurns,
		EnabledTools: g.cfg.Agent.ToolsEnabled,
	})
	result := sess.Run(ctx)

	entry := dataset.FormatSession(result)
	entry.Metadata.RunID = g.runID
	entry.Tools = g.toolDefs

	if result.Error != "" {
		log.Error("session failed", "error", result.Error)
		if err := errWriter.Append(entry); err != nil {
			log.Error("append error entry", "error", err)
		}
		g.finishWorkspace(log, workspace, true)
		g.mu.Lock()
		g.failed++
		g.mu.Unlock()
		return
	}

	if err := dataset.Validate(entry); err != nil {
		log.Error("entry validation failed", "error", err)
		g.finishWorkspace(log, workspace, true)
		return
	}

	if err := writer.Append(entry); err != nil {
		log.Error("append entry", "error", err)
		return
	}
	g.finishWorkspace(log, workspace, false)

	g.mu.Lock()
	g.written++
	g.totalCost += result.Usage.Cost
	g.totalTokens += result.Usage.TotalTokens
	g.mu.Unlock()
}

// finishWorkspace removes or preserves a session workspace according to the
// workspace config and whether the session failed.
func (g *Generator) finishWorkspace(log *slog.Logger, workspace string, failed bool) {
	preserve := failed && g.cfg.Workspace.PreserveOnError
	if !failed && !g.cfg.Workspace.Cleanup {
		preserve = true
	}
	if preserve {
		log.Info("preserving workspace", "path", workspace)
		return
	}
	if err := os.RemoveAll(workspace); err != nil {
		log.Warn("cleanup workspace", "error", err)
	}
}

func (g *Generator) errorFilePath() string {
	if g.cfg.Output.ErrorFile != "" {
		return g.cfg.Output.ErrorFile
	}
	base := strings.TrimSuffix(g.cfg.Output.DatasetFile, ".jsonl")
	return base + ".errors.jsonl"
}

func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
