// Command contentctl imports and generates game content from the
// command line.
//
// Usage:
//
//	contentctl import [-dry-run] <type> <file.json>
//	contentctl generate -type MC [-category BUD] [-difficulty B] [-batch 5] [-max 10] [-dry-run]
//	contentctl token [-staff] <user-id>
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/finlit/finlit-api/internal/config"
	"github.com/finlit/finlit-api/internal/domain/dedup"
	"github.com/finlit/finlit-api/internal/generation"
	"github.com/finlit/finlit-api/internal/platform/gemini"
	"github.com/finlit/finlit-api/internal/platform/logger"
	"github.com/finlit/finlit-api/internal/platform/postgres"
	"github.com/finlit/finlit-api/internal/service"
	"github.com/finlit/finlit-api/internal/service/auth"
	"github.com/finlit/finlit-api/internal/store"
)

const usage = `usage:
  contentctl import [-dry-run] <type> <file.json>
  contentctl generate -type <type> [-category c] [-difficulty d] [-batch n] [-max n] [-dry-run]
  contentctl token [-staff] <user-id>
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "contentctl: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	env := &commandEnv{out: out}
	switch command {
	case "token":
		if env.jwt, err = auth.NewJWTService(cfg.Auth); err != nil {
			return err
		}
		return runToken(ctx, env, args)
	case "import", "generate":
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}

	db, err := postgres.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := env.wire(ctx, cfg, log, db); err != nil {
		return err
	}
	if command == "import" {
		return runImport(ctx, env, args)
	}
	return runGenerate(ctx, env, args)
}

// wire builds the import and generation services over the database.
// Generation runs in the foreground, so no task runner is needed.
func (env *commandEnv) wire(ctx context.Context, cfg *config.Config, log *slog.Logger, db *sql.DB) error {
	tx := store.NewTransactor(db)
	simulations := postgres.NewPostgresSimulationStore(db, log)
	questions := postgres.NewPostgresQuestionStore(db, log)

	filter := dedup.NewFilter()
	filter.MinLength = cfg.Content.DuplicateMinLength
	filter.Scope = dedup.Scope(cfg.Content.DuplicateScope)

	var err error
	if env.imports, err = service.NewImportService(tx, simulations, questions, filter, log); err != nil {
		return err
	}

	var generator generation.Generator
	if cfg.LLM.Enabled() {
		g, err := gemini.NewGeminiGenerator(ctx, log, cfg.LLM)
		if err != nil {
			return fmt.Errorf("failed to initialize LLM generator: %w", err)
		}
		generator = g
	}
	env.generation, err = service.NewGenerationService(generator, env.imports, nil, nil, log)
	return err
}
