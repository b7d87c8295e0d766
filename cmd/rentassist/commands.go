package main

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fleetline/rentassist/internal/agent"
	"github.com/fleetline/rentassist/internal/api"
	"github.com/fleetline/rentassist/internal/genai"
	"github.com/fleetline/rentassist/internal/models"
	"github.com/fleetline/rentassist/internal/optimizer"
	"github.com/fleetline/rentassist/internal/store"
)

// --- serve ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the rentassist API server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		dsn, _ := cmd.Flags().GetString("db-dsn")
		return runServer(addr, dsn)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "API listen address (overrides $API_ADDR)")
	serveCmd.Flags().String("db-dsn", "", "database DSN or SQLite file path (overrides $DATABASE_URL)")
}

func runServer(addrFlag, dsnFlag string) error {
	config := loadEnvironmentConfig()
	if addrFlag != "" {
		config.APIAddr = addrFlag
	}
	if dsnFlag != "" {
		config.DatabaseURL = dsnFlag
	}

	st, err := openStore(config.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if err := st.SeedCategories(models.DefaultCategories()); err != nil {
		return fmt.Errorf("seeding categories: %w", err)
	}

	var genaiOpts []genai.Option
	if config.OpenAIKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(config.OpenAIKey))
	}
	gen, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return fmt.Errorf("initializing generation client: %w", err)
	}

	a := agent.New(st, optimizer.New(st), gen)

	var apiOpts []api.Option
	if config.APIAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(config.APIAddr))
	}
	srv := api.NewServer(a, st, apiOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

func openStore(dsn string) (store.Store, error) {
	if store.DetectDSNType(dsn) == "postgres" {
		return store.NewPostgresStore(store.WithDSN(dsn))
	}
	return store.NewSQLiteStore(store.WithDSN(dsn))
}

// --- query ---

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Submit a customer query",
	Long: `Submit a customer query and print the assistant's response.

Examples:
  rentassist query "¿Cuánto cuesta alquilar un SUV el fin de semana?"
  rentassist query "quiero reservar un sedan" --context vehicle_type=sedan --context season=high`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, _ := cmd.Flags().GetStringArray("context")
		overrides := make(map[string]string)
		for _, pair := range pairs {
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("invalid --context value %q, want key=value", pair)
			}
			overrides[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}

		req := map[string]any{"query": args[0]}
		if len(overrides) > 0 {
			req["context"] = overrides
		}

		client := newAPIClient()
		resp, err := client.post(cmd.Context(), "/query", req)
		if err != nil {
			return err
		}

		var envelope struct {
			Status string            `json:"status"`
			Result agent.QueryResult `json:"result"`
		}
		if err := decodeJSON(resp, &envelope); err != nil {
			return err
		}
		if envelope.Result.Error != "" {
			printWarning("degraded response: %s", envelope.Result.Error)
		}

		fmt.Println(envelope.Result.Response)
		printStatus("interaction", "%s", envelope.Result.InteractionID)
		printStatus("category", "%s", envelope.Result.Category)
		return nil
	},
}

func init() {
	queryCmd.Flags().StringArray("context", nil, "context override as key=value (repeatable)")
}

// --- feedback ---

var feedbackCmd = &cobra.Command{
	Use:   "feedback <interaction-id> <score>",
	Short: "Attach a feedback score to an interaction",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		score, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid score %q: %w", args[1], err)
		}
		comments, _ := cmd.Flags().GetString("comments")

		req := map[string]any{
			"interaction_id": args[0],
			"score":          score,
		}
		if comments != "" {
			req["comments"] = comments
		}

		client := newAPIClient()
		resp, err := client.post(cmd.Context(), "/feedback", req)
		if err != nil {
			return err
		}

		var envelope struct {
			Status string `json:"status"`
		}
		if err := decodeJSON(resp, &envelope); err != nil {
			return err
		}
		printSuccess("Feedback recorded for %s", args[0])
		return nil
	},
}

func init() {
	feedbackCmd.Flags().String("comments", "", "free-form feedback comments")
}

// --- templates ---

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List response templates and their metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient()
		resp, err := client.get(cmd.Context(), "/templates")
		if err != nil {
			return err
		}

		var envelope struct {
			Result []models.ResponseTemplate `json:"result"`
		}
		if err := decodeJSON(resp, &envelope); err != nil {
			return err
		}
		if len(envelope.Result) == 0 {
			printWarning("no templates stored")
			return nil
		}
		for _, tmpl := range envelope.Result {
			fmt.Printf("%s  %-12s uses=%d avg=%.2f success=%.2f\n",
				tmpl.ID, tmpl.Category, tmpl.UseCount, tmpl.AverageFeedback, tmpl.SuccessRate)
		}
		return nil
	},
}

// --- categories ---

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List query categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient()
		resp, err := client.get(cmd.Context(), "/categories")
		if err != nil {
			return err
		}

		var envelope struct {
			Result []models.QueryCategory `json:"result"`
		}
		if err := decodeJSON(resp, &envelope); err != nil {
			return err
		}
		for _, cat := range envelope.Result {
			fmt.Printf("%-14s %s\n", cat.Name, cat.Description)
		}
		return nil
	},
}
