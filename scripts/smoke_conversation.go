//go:build integration
// +build integration

package scripts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/DataScienceDisciple/expert-agent-engine/engine"
	"github.com/DataScienceDisciple/expert-agent-engine/engine/config"
)

// RunSmokeConversation drives a one-turn conversation end to end against a
// live endpoint and reports the artifact paths. The credential comes from
// OPENAI_API_KEY via the normal config fallback.
func RunSmokeConversation() {
	fmt.Println("Smoke test: one-turn conversation run")

	dir, err := os.MkdirTemp("", "expert-agent-smoke-*")
	must(err, "temp dir")
	defer os.RemoveAll(dir)

	yaml := fmt.Sprintf(`conversation:
  goal: "Confirm the conversation engine works end to end"
  persona: "You are a concise systems engineer."
  max_turns: 1
llm:
  model: %s
  base_url: %q
  timeout: 60s
output:
  dir: %q
`, smokeModel(), os.Getenv("SMOKE_BASE_URL"), dir)

	cfgPath := filepath.Join(dir, "config.yaml")
	must(os.WriteFile(cfgPath, []byte(yaml), 0o644), "write config")

	cfg, err := config.Load(cfgPath)
	must(err, "load config")

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	eng, err := engine.New(cfg, logger)
	must(err, "construct engine")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	res, err := eng.Run(ctx)
	must(err, "run conversation")

	fmt.Printf("OK: state=%s turns=%d\n", res.State, res.History.Turns())
	fmt.Println("OK: transcript ->", res.TranscriptPath)
	if res.TakeawaysPath != "" {
		fmt.Println("OK: takeaways ->", res.TakeawaysPath)
	}
	fmt.Println("Smoke checks completed (required features must pass).")
}
