package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/specsprite/internal/audit"
	"github.com/ziadkadry99/specsprite/internal/config"
	"github.com/ziadkadry99/specsprite/internal/db"
	"github.com/ziadkadry99/specsprite/internal/engine"
	"github.com/ziadkadry99/specsprite/internal/intent"
	"github.com/ziadkadry99/specsprite/internal/llm"
	"github.com/ziadkadry99/specsprite/internal/persona"
	"github.com/ziadkadry99/specsprite/internal/session"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `specsprite init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// setupLogging sends package logs to stderr so stdout stays free for the
// MCP protocol. Interactive commands pass quiet to drop them unless
// --verbose is set.
func setupLogging(quiet bool) {
	log.SetOutput(os.Stderr)
	if quiet && !verbose {
		log.SetOutput(io.Discard)
	}
}

// runtime holds everything built from the config that needs closing.
type runtime struct {
	engine *engine.Engine
	audit  *audit.Store
	db     *db.DB
}

func (r *runtime) Close() {
	r.engine.Close()
	r.db.Close()
}

// buildRuntime opens the audit database and builds the completion chain and
// the engine. mcpServer may be nil, in which case the sampling transport
// reports itself unavailable and the chain falls through to the others.
func buildRuntime(cfg *config.Config, mcpServer *server.MCPServer) (*runtime, error) {
	var (
		database *db.DB
		err      error
	)
	if cfg.Audit.Path != "" {
		database, err = db.Open(cfg.Audit.Path)
	} else {
		database, err = db.OpenMemory()
	}
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	opts := cfg.LLMOptions()
	opts.Server = mcpServer
	chain, err := llm.NewChainFromOptions(opts)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating completion chain: %w", err)
	}

	loader := persona.NewLoader(cfg.Personas.Dir)
	auditStore := audit.NewStore(database)
	eng := engine.New(engine.Options{
		Session: session.Options{
			Timeout:  cfg.Conversation.SessionTimeout(),
			MaxTurns: cfg.Conversation.MaxTurns,
		},
		Provider:      chain,
		Personas:      persona.LoadRegistry(loader),
		SystemPrompt:  loader.SystemPrompt("meta-prompt", intent.MetaPrompt),
		MinConfidence: cfg.Conversation.MinConfidence,
		Audit:         auditStore,
	})

	return &runtime{engine: eng, audit: auditStore, db: database}, nil
}
