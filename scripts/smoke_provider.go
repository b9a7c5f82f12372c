//go:build integration
// +build integration

package scripts

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/DataScienceDisciple/expert-agent-engine/engine/dialogue/adapters"
	ports "github.com/DataScienceDisciple/expert-agent-engine/engine/dialogue/ports"
)

func must(err error, msg string) {
	if err != nil {
		log.Fatalf("%s: %v", msg, err)
	}
}

func smokeModel() string {
	if m := os.Getenv("SMOKE_MODEL"); m != "" {
		return m
	}
	return "gpt-4.1-mini"
}

// RunSmokeProvider sends one chat completion to a live OpenAI-compatible
// endpoint and verifies the reply is usable. OPENAI_API_KEY must be set;
// SMOKE_BASE_URL and SMOKE_MODEL override the endpoint and model.
func RunSmokeProvider() {
	fmt.Println("Smoke test: chat completion provider")

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY must be set")
	}

	opts := []adapters.Option{
		adapters.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
	}
	if base := os.Getenv("SMOKE_BASE_URL"); base != "" {
		opts = append(opts, adapters.WithBaseURL(base))
	}
	provider, err := adapters.NewOpenAIProvider(apiKey, opts...)
	must(err, "construct provider")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	reply, err := provider.Complete(ctx, ports.ChatRequest{
		Model:        smokeModel(),
		Instructions: "Answer with a single short sentence.",
		Messages: []ports.PromptMessage{
			{Role: "user", Content: "Reply with the word ready."},
		},
	})
	must(err, "completion")
	if strings.TrimSpace(reply) == "" {
		log.Fatal("completion returned an empty reply")
	}
	fmt.Printf("OK: completion -> %q\n", reply)
}
