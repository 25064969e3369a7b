package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dinehop/dinehop/config"
	"github.com/dinehop/dinehop/core/match"
	"github.com/dinehop/dinehop/core/model"
	"github.com/dinehop/dinehop/core/routing"
	"github.com/dinehop/dinehop/infra/logger"
	"github.com/dinehop/dinehop/infra/osrm"
)

var (
	matchTeamsPath       string
	matchEventPath       string
	matchConstraintsPath string
	matchAlgorithms      string
	matchSeed            int64
	matchFull            bool
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Run a one-shot matching pass over teams from a file",
	RunE:  runMatch,
}

func init() {
	matchCmd.Flags().StringVarP(&matchTeamsPath, "teams", "t", "", "teams JSON file (required)")
	matchCmd.Flags().StringVarP(&matchEventPath, "event", "e", "", "event JSON file")
	matchCmd.Flags().StringVar(&matchConstraintsPath, "constraints", "", "constraints JSON file")
	matchCmd.Flags().StringVarP(&matchAlgorithms, "algorithms", "a", match.AlgorithmGreedy, "comma-separated algorithm names")
	matchCmd.Flags().Int64Var(&matchSeed, "seed", 0, "override the configured run seed")
	matchCmd.Flags().BoolVar(&matchFull, "full", false, "print full proposals instead of summaries")
	if err := matchCmd.MarkFlagRequired("teams"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var teams []model.Team
	if err := readJSONFile(matchTeamsPath, &teams); err != nil {
		return fmt.Errorf("teams: %w", err)
	}
	ev := model.Event{ID: "oneshot", Name: "oneshot"}
	if matchEventPath != "" {
		if err := readJSONFile(matchEventPath, &ev); err != nil {
			return fmt.Errorf("event: %w", err)
		}
	}
	var cons model.Constraints
	if matchConstraintsPath != "" {
		if err := readJSONFile(matchConstraintsPath, &cons); err != nil {
			return fmt.Errorf("constraints: %w", err)
		}
	}

	units, emails := match.BuildPool(teams, cons)
	if len(units) == 0 {
		return fmt.Errorf("no matchable units in %s", matchTeamsPath)
	}

	seed := cfg.Matching.Seed
	if matchSeed != 0 {
		seed = matchSeed
	}
	engine := &match.Engine{
		Resolver: oneShotResolver(cfg.Routing, ev),
		Log:      logger.New("match-command"),
		Seed:     seed,
	}
	in := match.RunInput{Event: ev, Units: units, UnitEmails: emails, Weights: cfg.Matching.Weights}
	names := splitAlgorithms(matchAlgorithms)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := engine.RunAlgorithms(ctx, in, names, nil)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if matchFull {
		return enc.Encode(results)
	}
	type summary struct {
		Algorithm string        `json:"algorithm"`
		Groups    int           `json:"groups"`
		Metrics   model.Metrics `json:"metrics"`
		Best      bool          `json:"best"`
	}
	best := 0
	for i, res := range results {
		if res.Metrics.TotalScore > results[best].Metrics.TotalScore {
			best = i
		}
	}
	out := make([]summary, 0, len(results))
	for i, res := range results {
		out = append(out, summary{
			Algorithm: res.Algorithm,
			Groups:    len(res.Groups),
			Metrics:   res.Metrics,
			Best:      i == best,
		})
	}
	return enc.Encode(out)
}

// oneShotResolver mirrors the service resolver chain without the shared
// cache lifetime: each invocation gets a fresh cache.
func oneShotResolver(cfg config.RoutingConfig, ev model.Event) routing.Resolver {
	fast := routing.FastResolver{SpeedKmh: cfg.SpeedKmh}
	log := logger.New("routing")
	if ev.FastMode || cfg.Backend != "osrm" {
		return routing.NewCachedResolver(fast, cfg.Parallelism, log)
	}
	return routing.NewCachedResolver(osrm.NewClient(cfg.OSRM), cfg.Parallelism, log)
}

func splitAlgorithms(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
