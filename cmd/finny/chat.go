package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/k-dang/finny/core"
	"github.com/k-dang/finny/internal/config"
	"github.com/k-dang/finny/pkg/alpaca"
	"github.com/k-dang/finny/pkg/ibkr"
	"github.com/k-dang/finny/pkg/polymarket/clob"
	"github.com/k-dang/finny/pkg/polymarket/gamma"
	"github.com/k-dang/finny/tools"
	alpacatools "github.com/k-dang/finny/tools/alpaca"
	ibkrtools "github.com/k-dang/finny/tools/ibkr"
	pmtools "github.com/k-dang/finny/tools/polymarket"
)

const systemPrompt = `You are a market research assistant with read-only access to
Polymarket prediction markets, Alpaca stock and options data, and an
Interactive Brokers portfolio. Use the available tools to answer questions
with real data. You cannot place orders. Always remind the user that
mispricing signals are heuristic research output, not investment advice.`

func runChat(args []string) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", "finny.toml", "path to config file")
	fs.Parse(args)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("llm api key not configured (set FINNY_LLM_API_KEY or OPENAI_API_KEY)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := buildRegistry(cfg)
	client := tools.NewChatClient(tools.ChatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})

	history := []tools.ChatMessage{{Role: "system", Content: systemPrompt}}

	fmt.Printf("finny chat (%s) - type 'exit' to quit\n", cfg.LLM.Model)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		history = append(history, tools.ChatMessage{Role: "user", Content: line})
		answer, updated, err := client.Chat(ctx, registry, history)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		history = updated
		fmt.Println(answer)
	}
	return scanner.Err()
}

// buildRegistry wires every read-only tool the configuration supports.
func buildRegistry(cfg *config.Config) *core.ToolRegistry {
	registry := core.NewToolRegistry()

	gammaClient := gamma.NewClient(gamma.WithBaseURL(cfg.Polymarket.GammaHost))
	clobClient := clob.NewClient(clob.WithBaseURL(cfg.Polymarket.ClobHost))
	pmtools.RegisterGammaTools(registry, gammaClient)
	pmtools.RegisterClobTools(registry, clobClient)
	pmtools.RegisterScanTools(registry, newScanner(cfg, nil))

	if cfg.Alpaca.APIKey != "" {
		alpacaClient := alpaca.NewClient(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret,
			alpaca.WithBaseURL(cfg.Alpaca.DataHost))
		alpacatools.RegisterAlpacaTools(registry, alpacaClient)
	}

	opts := []ibkr.ClientOption{ibkr.WithBaseURL(cfg.IBKR.GatewayHost)}
	if cfg.IBKR.InsecureSkipVerify {
		opts = append(opts, ibkr.WithInsecureSkipVerify())
	}
	ibkrtools.RegisterIBKRTools(registry, ibkr.NewClient(opts...))

	return registry
}
