package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/generation"
	"github.com/finlit/finlit-api/internal/service"
	"github.com/finlit/finlit-api/internal/service/auth"
	"github.com/google/uuid"
)

var errUsage = errors.New("invalid arguments")

// commandEnv holds what the subcommands need.
type commandEnv struct {
	imports    service.ImportService
	generation service.GenerationService
	jwt        auth.JWTService
	out        io.Writer

	// readFile is os.ReadFile outside tests.
	readFile func(string) ([]byte, error)
}

func (env *commandEnv) read(path string) ([]byte, error) {
	if env.readFile != nil {
		return env.readFile(path)
	}
	return os.ReadFile(path)
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

// runImport imports a JSON array file and prints one line per candidate.
func runImport(ctx context.Context, env *commandEnv, args []string) error {
	fs := newFlagSet("import", env.out)
	dryRun := fs.Bool("dry-run", false, "validate without writing")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: import needs <type> <file.json>", errUsage)
	}
	qt, err := domain.ParseQuestionType(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	raw, err := env.read(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", fs.Arg(1), err)
	}

	report, err := env.imports.Import(ctx, qt, raw, service.ImportOptions{DryRun: *dryRun})
	if err != nil {
		return err
	}
	printReport(env.out, report)
	fmt.Fprintln(env.out, report.Summary())
	return nil
}

// runGenerate runs a generation job in the foreground. -max bounds the
// number of candidates requested across all batches.
func runGenerate(ctx context.Context, env *commandEnv, args []string) error {
	fs := newFlagSet("generate", env.out)
	contentType := fs.String("type", "", "content type (MC, FIB, MAD, FC, BS)")
	category := fs.String("category", "", "category; random per batch when empty")
	difficulty := fs.String("difficulty", "B", "difficulty (B, I, A)")
	batch := fs.Int("batch", generation.DefaultBatchSize, "candidates per generator call")
	limit := fs.Int("max", 0, "total candidates to request; defaults to one batch")
	dryRun := fs.Bool("dry-run", false, "validate without writing")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	req := generation.JobRequest{BatchSize: *batch, Batches: 1, DryRun: *dryRun}
	var err error
	if req.ContentType, err = domain.ParseQuestionType(*contentType); err != nil {
		return fmt.Errorf("%w: -type: %v", errUsage, err)
	}
	if *category != "" {
		if req.Category, err = domain.ParseCategory(*category); err != nil {
			return fmt.Errorf("%w: -category: %v", errUsage, err)
		}
	}
	if req.Difficulty, err = domain.ParseDifficulty(*difficulty); err != nil {
		return fmt.Errorf("%w: -difficulty: %v", errUsage, err)
	}
	if *limit > 0 && *batch > 0 {
		req.Batches = (*limit + *batch - 1) / *batch
	}

	report, err := env.generation.RunGeneration(ctx, req)
	if err != nil {
		return err
	}
	for _, b := range report.Batches {
		fmt.Fprintf(env.out, "batch %d (%s, %s): received %d\n",
			b.Batch, b.Category.DisplayName(), b.Difficulty, b.Received)
		if b.Error != "" {
			fmt.Fprintf(env.out, "  failed: %s\n", b.Error)
			continue
		}
		if b.Import != nil {
			printReport(env.out, b.Import)
		}
	}
	fmt.Fprintln(env.out, report.Summary())
	return nil
}

// runToken prints a signed access token for a user, for seeding staff
// accounts and local testing.
func runToken(ctx context.Context, env *commandEnv, args []string) error {
	fs := newFlagSet("token", env.out)
	staff := fs.Bool("staff", false, "grant content administration access")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: token needs <user-id>", errUsage)
	}
	userID, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("%w: user id: %v", errUsage, err)
	}
	token, err := env.jwt.GenerateToken(ctx, userID, *staff)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.out, token)
	return nil
}

func printReport(out io.Writer, report *domain.ImportReport) {
	for _, item := range report.Items {
		line := fmt.Sprintf("  #%d %s", item.Index, item.Status)
		if item.Text != "" {
			line += fmt.Sprintf(" %q", item.Text)
		}
		switch {
		case item.DuplicateOf != nil:
			line += " of " + item.DuplicateOf.String()
		case len(item.Errors) > 0:
			line += ": " + formatFieldErrors(item.Errors)
		case item.Message != "":
			line += ": " + item.Message
		}
		fmt.Fprintln(out, line)
	}
}

func formatFieldErrors(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		name := k
		if name == "" {
			name = "item"
		}
		parts = append(parts, name+" "+strings.Join(fields[k], ", "))
	}
	return strings.Join(parts, "; ")
}
