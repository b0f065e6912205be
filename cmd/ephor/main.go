// Package main is the entry point for the Ephor Wind Tunnel CLI.
// Ephor sends one prompt to a council of LLM backends, has them blindly
// rank each other's answers, and synthesizes a final verdict.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/config"
	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/council"
	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/gateway"
	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/llm"
	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/logging"
	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/router"
	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/server"
)

var (
	version = "0.1.0"
	cfgPath string
	verbose bool
	pretty  bool

	cfg *config.Config
	log zerolog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ephor",
		Short: "Ephor - multi-model wind tunnel with blind peer review",
		Long: `Ephor sends one prompt to many LLM backends at once, compares their
answers, and produces a ranked, synthesized verdict.

Ask a single model:      ephor ask --model gpt-4o "your question"
Auto-route a question:   ephor ask --auto "your question"
Convene the council:     ephor council "your question"
Preview routing:         ephor route "your question"
Run the API server:      ephor serve`,
		Version:           version,
		PersistentPreRunE: initApp,
		SilenceUsage:      true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (default ~/.ephor/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", true, "human-readable log output")

	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(councilCmd())
	rootCmd.AddCommand(routeCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(statusCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initApp(cmd *cobra.Command, args []string) error {
	var err error
	if cfgPath != "" {
		cfg, err = config.LoadFromPath(cfgPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	log = logging.New(level, pretty || cfg.Logging.Pretty)
	return nil
}

func buildGateway() (*gateway.Gateway, error) {
	return gateway.New(cfg.ProviderConfigs(), log)
}

func askCmd() *cobra.Command {
	var model string
	var auto bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single model, streaming the answer to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := args[0]

			modelID := model
			if auto {
				decision := router.Classify(question)
				modelID = decision.ModelID
				log.Info().Str("route", decision.Route.String()).Int("score", decision.Score).
					Strs("signals", decision.Signals).Msg("auto-routed")
			}
			if modelID == "" {
				return fmt.Errorf("either --model or --auto is required")
			}

			gw, err := buildGateway()
			if err != nil {
				return err
			}

			messages := []llm.Message{{Role: "user", Content: question}}
			result, err := gw.Dispatch(cmd.Context(), modelID, messages,
				gateway.WithMaxTokens(cfg.Budget.MaxResponseTokens),
				gateway.WithTimeout(time.Duration(cfg.Budget.DefaultTimeoutSec)*time.Second),
				gateway.WithOnDelta(func(delta string) { fmt.Print(delta) }),
			)
			if err != nil {
				return err
			}
			fmt.Println()

			mapping, _ := gateway.Resolve(modelID)
			cost := llm.Cost(mapping.AdapterKind, result.InputTokens, result.OutputTokens)
			log.Info().
				Int("input_tokens", result.InputTokens).
				Int("output_tokens", result.OutputTokens).
				Bool("exact_usage", result.ExactUsage).
				Dur("ttft", result.TTFT).
				Dur("total", result.Total).
				Float64("cost_usd", cost).
				Msg("completion finished")
			return nil
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "logical model identifier (see 'ephor status')")
	cmd.Flags().BoolVar(&auto, "auto", false, "pick the model via the query classifier")
	return cmd
}

func councilCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "council [question]",
		Short: "Fan out to the full roster and rank the answers by blind peer review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := args[0]

			gw, err := buildGateway()
			if err != nil {
				return err
			}

			roster := cfg.Roster()
			engine, err := council.NewEngine(gw, roster, log,
				council.WithChairman(cfg.Council.ChairmanModel))
			if err != nil {
				return err
			}

			orch := council.NewOrchestrator(gw, log)
			messages := []llm.Message{{Role: "user", Content: question}}
			results := orch.RunAll(cmd.Context(), roster, messages)
			for _, r := range results {
				if r.Failed() {
					return fmt.Errorf("%s failed: %s", r.BackendID, r.Err)
				}
			}

			outcome, err := engine.RankAll(cmd.Context(), question, results)
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(outcome)
			}
			printOutcome(outcome)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the raw outcome as JSON")
	return cmd
}

func printOutcome(outcome *council.Outcome) {
	fmt.Println("Standings:")
	for _, r := range outcome.Results {
		fmt.Printf("  #%d %s (average rank %.1f)\n", r.Place, r.ModelName, r.AverageRank)
	}
	fmt.Println()
	for _, j := range outcome.Judgments {
		if j.Failed {
			fmt.Printf("Judge %s: failed, counted as neutral\n", j.ModelName)
			continue
		}
		fmt.Printf("Judge %s: %s\n", j.ModelName, j.Reasoning)
	}
	if outcome.ChairmanSynthesis != "" {
		fmt.Printf("\nChairman synthesis:\n%s\n", outcome.ChairmanSynthesis)
	}
}

func routeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route [question]",
		Short: "Show which model the classifier would pick, without calling anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decision := router.Classify(args[0])
			fmt.Printf("route:  %s\n", decision.Route)
			fmt.Printf("model:  %s\n", decision.ModelID)
			fmt.Printf("score:  %d\n", decision.Score)
			for _, sig := range decision.Signals {
				fmt.Printf("signal: %s\n", sig)
			}
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configured backends and supported models",
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := buildGateway()
			if err != nil {
				return err
			}
			fmt.Println("Backends:")
			for kind, ok := range gw.Available() {
				state := "unavailable"
				if ok {
					state = "ready"
				}
				fmt.Printf("  %-12s %s\n", kind, state)
			}
			fmt.Println("Models:")
			models := gateway.SupportedModels()
			sort.Strings(models)
			for _, id := range models {
				fmt.Printf("  %s\n", id)
			}
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP/WebSocket API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := buildGateway()
			if err != nil {
				return err
			}
			engine, err := council.NewEngine(gw, cfg.Roster(), log,
				council.WithChairman(cfg.Council.ChairmanModel))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(cfg, gw, engine, log)
			return srv.Start(ctx)
		},
	}
}
