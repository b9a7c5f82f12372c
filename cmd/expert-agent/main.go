// Command expert-agent runs goal-driven two-agent conversations from YAML
// config files and writes a transcript plus a takeaways summary per run.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"github.com/subosito/gotenv"

	"github.com/DataScienceDisciple/expert-agent-engine/engine"
	"github.com/DataScienceDisciple/expert-agent-engine/engine/config"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(Run(os.Args))
}

// Run executes the CLI and returns its exit code. It is split from main so
// tests can drive the whole command without spawning a process.
func Run(argv []string) int {
	fs := flag.NewFlagSet("expert-agent", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		maxTurns  int
		outputDir string
		debug     bool
		quiet     bool
	)
	fs.IntVar(&maxTurns, "max-turns", 0, "Override conversation.max_turns from the config (positive values only).")
	fs.StringVar(&outputDir, "output-dir", "", "Override output.dir from the config.")
	fs.BoolVar(&debug, "debug", false, "Enable debug logging.")
	fs.BoolVar(&quiet, "quiet", false, "Only log errors.")
	fs.Usage = func() { writeUsage(os.Stderr) }

	if err := fs.Parse(argv[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	paths := fs.Args()
	if len(paths) == 0 {
		writeUsage(os.Stderr)
		return exitUsage
	}

	logger := newLogger(debug, quiet)

	var maxTurnsSet bool
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "max-turns" {
			maxTurnsSet = true
		}
	})
	if maxTurnsSet && maxTurns < 1 {
		logger.Warn().Int("max_turns", maxTurns).Msg("ignoring -max-turns override, value must be positive")
		maxTurns = 0
	}

	// Best effort; running without a .env file is the normal case.
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Msg("could not load .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(paths) == 1 {
		if err := runOne(ctx, paths[0], maxTurns, outputDir, logger); err != nil {
			logger.Error().Err(err).Str("config", paths[0]).Msg("run failed")
			return exitError
		}
		return exitOK
	}

	// Batch mode: each config is an independent run; one failure does not
	// stop the others.
	p := pool.New().WithErrors()
	for _, path := range paths {
		p.Go(func() error {
			if err := runOne(ctx, path, maxTurns, outputDir, logger); err != nil {
				logger.Error().Err(err).Str("config", path).Msg("run failed")
				return err
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return exitError
	}
	return exitOK
}

func runOne(ctx context.Context, path string, maxTurns int, outputDir string, logger zerolog.Logger) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if maxTurns > 0 {
		cfg.Conversation.MaxTurns = maxTurns
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}

	eng, err := engine.New(cfg, logger)
	if err != nil {
		return err
	}
	res, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info().
		Str("config", path).
		Str("state", string(res.State)).
		Int("turns", res.History.Turns()).
		Str("transcript", res.TranscriptPath).
		Str("takeaways", res.TakeawaysPath).
		Msg("run finished")
	return nil
}

func newLogger(debug, quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case debug:
		level = zerolog.DebugLevel
	case quiet:
		level = zerolog.ErrorLevel
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)
}

func writeUsage(w io.Writer) {
	help := strings.TrimSpace(`
expert-agent — goal-driven two-agent conversation runner

Usage:
  expert-agent [flags] <config.yaml> [config.yaml...]

Runs one conversation per config file: a questioner pursuing the configured
goal against a responder playing the configured persona. Each run writes a
transcript and, when the conversation produced usable content, a paired
takeaways file.

Flags:
  -max-turns N     Override conversation.max_turns (positive values only).
  -output-dir DIR  Override output.dir for all runs.
  -debug           Enable debug logging.
  -quiet           Only log errors.

Environment:
  OPENAI_API_KEY   Used when the config does not set llm.api_key.
                   A .env file in the working directory is loaded if present.

Multiple config files run concurrently. Ctrl-C stops every run at its next
turn boundary and still writes whatever transcript accumulated.
`)
	_, _ = io.WriteString(w, help+"\n")
}
