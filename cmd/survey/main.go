package main

import (
	"adaptivestrategy/internal/app"
	"adaptivestrategy/internal/config"
	"adaptivestrategy/internal/console"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	defaults   config.RecommenderConfig
	apiURL     string
	outDir     string
	pageSize   int
	roundLimit int
	timeout    time.Duration
	retries    int
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "survey",
	Short: "Take the EQ/FLA questionnaire and get a learning strategy recommendation",
	Long: `Runs the questionnaire in the terminal against the recommendation service.

Ambiguous results trigger rounds of additional questions; if the result is still
tied when the rounds run out, a fallback recommendation decides.`,
	SilenceUsage: true,
	RunE:         runSurvey,
}

func init() {
	defaults = config.LoadRecommenderConfig()
	rootCmd.Flags().StringVar(&apiURL, "api", defaults.BaseURL, "Recommendation service base URL")
	rootCmd.Flags().StringVar(&outDir, "out", ".", "Directory for exported results")
	rootCmd.Flags().IntVar(&pageSize, "page-size", 8, "Questions per page")
	rootCmd.Flags().IntVar(&roundLimit, "round-limit", defaults.DefaultRoundLimit, "Additional-question rounds until the service reports its own limit")
	rootCmd.Flags().DurationVar(&timeout, "timeout", defaults.Timeout(), "Per-request timeout")
	rootCmd.Flags().IntVar(&retries, "retries", defaults.MaxRetries, "Attempts per request")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log service calls to stderr")
}

func runSurvey(cmd *cobra.Command, args []string) error {
	if !verbose {
		log.SetOutput(io.Discard)
	}

	info, err := os.Stat(outDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("output directory %q does not exist", outDir)
	}

	cfg := &config.Config{
		JWTSecret:        "terminal",
		SessionTTL:       24 * time.Hour,
		QuestionCacheTTL: time.Hour,
		PageSize:         pageSize,
		Recommender: config.RecommenderConfig{
			BaseURL:           strings.TrimRight(apiURL, "/"),
			TimeoutMS:         int(timeout / time.Millisecond),
			MaxRetries:        retries,
			DefaultRoundLimit: roundLimit,
			ForceFallback:     defaults.ForceFallback,
		},
	}
	if cfg.Recommender.BaseURL == "" {
		return fmt.Errorf("--api cannot be empty")
	}
	if pageSize < 1 || roundLimit < 1 || retries < 1 {
		return fmt.Errorf("--page-size, --round-limit and --retries must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.NewInMemory(cfg)
	return console.New(application.Sessions, cmd.InOrStdin(), cmd.OutOrStdout(), outDir).Run(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
