package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vettly/vettly-backend/internal/common/database"
	"github.com/vettly/vettly-backend/internal/common/utils"
	"github.com/vettly/vettly-backend/internal/compatibility"
	"github.com/vettly/vettly-backend/internal/explanation"
	"github.com/vettly/vettly-backend/internal/llm"
	"github.com/vettly/vettly-backend/internal/matching"
	"github.com/vettly/vettly-backend/internal/profile"
	"github.com/vettly/vettly-backend/internal/tips"
)

func openDB() (*sqlx.DB, error) {
	db, err := database.NewPostgresDBFromURL(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

func newLLM(ctx context.Context) (llm.Client, error) {
	return llm.New(ctx, llm.Config{
		Provider:     cfg.LLMProvider,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		OpenAIModel:  cfg.OpenAIModel,
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
		Timeout:      cfg.LLMTimeout,
	}, log)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// check validates configuration and reaches every configured backend
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and test database and Redis connectivity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Fprintln(out, "✅ configuration valid")

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintln(out, "✅ postgres reachable")

			if cfg.RedisURL == "" {
				fmt.Fprintln(out, "⚠️  REDIS_URL not set")
				return nil
			}
			redisClient, err := database.NewRedisClientFromURL(cfg.RedisURL)
			if err != nil {
				return err
			}
			defer redisClient.Close()
			fmt.Fprintln(out, "✅ redis reachable")
			return nil
		},
	}
}

type scoreInput struct {
	A compatibility.Answers `json:"a"`
	B compatibility.Answers `json:"b"`
}

type scoreOutput struct {
	Percent        int                           `json:"percent"`
	Result         compatibility.Result          `json:"result"`
	MatchingPoints []compatibility.MatchingPoint `json:"matchingPoints"`
}

// score reads {"a": {...}, "b": {...}} from a file or stdin and prints the result
func newScoreCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score two questionnaire answer sets without touching the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			var input scoreInput
			if err := json.NewDecoder(in).Decode(&input); err != nil {
				return fmt.Errorf("decode answers: %w", err)
			}

			result := compatibility.Calculate(input.A, input.B)
			return printJSON(cmd.OutOrStdout(), scoreOutput{
				Percent:        compatibility.Percent(result),
				Result:         result,
				MatchingPoints: compatibility.MatchingPoints(result),
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON file with answers, - for stdin")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for local testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if role != utils.RoleMember && role != utils.RoleMatchmaker {
				return fmt.Errorf("role must be %q or %q", utils.RoleMember, utils.RoleMatchmaker)
			}
			token, err := utils.GenerateJWT(utils.NewAccessClaims(userID, email, role, ttl), cfg.JWTSecret)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id to put in the token")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&role, "role", utils.RoleMember, "member or matchmaker")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newTipsService(ctx context.Context, db *sqlx.DB) (tips.Service, error) {
	client, err := newLLM(ctx)
	if err != nil {
		return nil, err
	}
	return tips.NewService(tips.NewPostgresRepository(db), client, tips.Options{
		AutoActivate: cfg.WeeklyTipAutoActivate,
	}, log), nil
}

func newTipsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tips",
		Short: "Generate and publish weekly dating tips",
	}

	var category string
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate a tip; without --category the weekly rotation picks one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			svc, err := newTipsService(cmd.Context(), db)
			if err != nil {
				return err
			}

			var tip *tips.Tip
			if category == "" {
				tip, err = svc.GenerateWeeklyTip(cmd.Context())
			} else {
				tip, err = svc.GenerateTip(cmd.Context(), category, "cli")
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tip)
		},
	}
	generate.Flags().StringVar(&category, "category", "", "tip category")

	activate := &cobra.Command{
		Use:   "activate <tip-id>",
		Short: "Make a tip the active one, archiving the previous",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid tip id: %w", err)
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			svc, err := newTipsService(cmd.Context(), db)
			if err != nil {
				return err
			}
			tip, err := svc.Activate(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tip)
		},
	}

	cmd.AddCommand(generate, activate)
	return cmd
}

func newMatchingService(ctx context.Context, db *sqlx.DB) (matching.Service, error) {
	client, err := newLLM(ctx)
	if err != nil {
		return nil, err
	}
	return matching.NewService(
		matching.NewPostgresRepository(db),
		profile.NewService(profile.NewPostgresRepository(db), log),
		explanation.NewGenerator(client, log),
		nil,
		matching.Options{
			PaymentRequired: cfg.MatchPaymentRequired,
			SuggestionLimit: cfg.MatchSuggestionLimit,
		},
		log,
	), nil
}

func newMatchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matches",
		Short: "Run match maintenance jobs once",
	}

	var olderThan time.Duration
	expire := &cobra.Command{
		Use:   "expire",
		Short: "Expire matches that have waited too long for a response",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			svc, err := newMatchingService(cmd.Context(), db)
			if err != nil {
				return err
			}
			if olderThan <= 0 {
				olderThan = cfg.MatchExpiry
			}
			n, err := svc.ExpireStale(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			log.Info("expired matches", zap.Int("count", n), zap.Duration("older_than", olderThan))
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d matches\n", n)
			return nil
		},
	}
	expire.Flags().DurationVar(&olderThan, "older-than", 0, "age threshold (default MATCH_EXPIRY)")

	analyze := &cobra.Command{
		Use:   "analyze",
		Short: "Recompute candidate suggestions for every member",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			svc, err := newMatchingService(cmd.Context(), db)
			if err != nil {
				return err
			}
			n, err := svc.AnalyzeCandidates(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "analyzed %d members\n", n)
			return nil
		},
	}

	cmd.AddCommand(expire, analyze)
	return cmd
}
