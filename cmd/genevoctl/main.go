package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"genevo/internal/config"
	"genevo/pkg/genevo"
)

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	storeKind string
	dbPath    string
	verbose   bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "genevoctl",
		Short:         "Run and inspect self-adaptive evolutionary searches",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&g.storeKind, "store", "memory", "store backend: memory|badger|sqlite")
	root.PersistentFlags().StringVar(&g.dbPath, "db-path", "", "sqlite file or badger directory")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log per-generation progress")

	root.AddCommand(
		newRunCmd(g),
		newRunsCmd(g),
		newFitnessCmd(g),
		newDiagnosticsCmd(g),
		newPopulationCmd(g),
		newScapesCmd(g),
	)
	return root
}

func (g *globalFlags) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func (g *globalFlags) client(cmd *cobra.Command) (*genevo.Client, error) {
	client, err := genevo.New(genevo.Options{
		StoreKind: g.storeKind,
		DBPath:    g.dbPath,
		Logger:    g.logger(cmd),
	})
	if err != nil {
		return nil, err
	}
	if err := client.Init(cmd.Context()); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func newRunCmd(g *globalFlags) *cobra.Command {
	var (
		configPath   string
		overrides    []string
		scapeName    string
		generations  int
		target       float64
		logPath      string
		continueFrom string
		artifactsDir string
		metricsAddr  string
		cycleReports bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evolve a population against a scape",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := config.Params{}
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				params = loaded
			}
			set, err := config.ParseOverrides(overrides)
			if err != nil {
				return err
			}
			params = params.Merge(set)

			if metricsAddr != "" {
				stop := serveMetrics(metricsAddr, g.logger(cmd))
				defer stop()
			}

			client, err := g.client(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			req := genevo.RunRequest{
				Scape:        scapeName,
				Params:       params,
				Generations:  generations,
				ContinueFrom: continueFrom,
				ArtifactsDir: artifactsDir,
			}
			if cmd.Flags().Changed("target") {
				req.Target = &target
			}
			if cycleReports {
				req.CycleLog = cmd.OutOrStdout()
				req.CycleOut = cmd.OutOrStdout()
			}
			switch logPath {
			case "":
			case "-":
				req.Log = cmd.OutOrStdout()
			default:
				f, err := os.Create(logPath)
				if err != nil {
					return fmt.Errorf("create evolution log: %w", err)
				}
				defer f.Close()
				req.Log = f
			}

			summary, err := client.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run_id=%s generations=%d best_fitness=%.6f best_objective=%.6f target_reached=%t\n",
				summary.RunID, summary.Generations, summary.BestFitness, summary.BestObjective, summary.TargetReached)
			if summary.ArtifactsDir != "" {
				fmt.Fprintf(out, "artifacts=%s\n", summary.ArtifactsDir)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML parameter file")
	f.StringArrayVar(&overrides, "set", nil, "parameter override key=value (repeatable)")
	f.StringVar(&scapeName, "scape", "binary-target", "scape to evolve against")
	f.IntVar(&generations, "generations", 0, "generation cap (<=0 reads Evolution.generations)")
	f.Float64Var(&target, "target", 0, "stop once the best objective drops below this value")
	f.StringVar(&logPath, "log", "", "evolution log file, - for stdout")
	f.StringVar(&continueFrom, "continue", "", "run id whose final population is evolved further")
	f.StringVar(&artifactsDir, "artifacts-dir", "", "also write run artifacts below this directory")
	f.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	f.BoolVar(&cycleReports, "cycle-reports", false, "print the scape's per-generation reports")
	return cmd
}

func serveMetrics(addr string, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func newRunsCmd(g *globalFlags) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List persisted runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := g.client(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			runs, err := client.Runs(cmd.Context(), genevo.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "no runs")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(out, "run_id=%s created_at=%s scape=%s generations=%d evaluations=%d best_fitness=%.6f target_reached=%t\n",
					r.ID, r.CreatedAt.Format(time.RFC3339), r.Scape, r.Generations, r.Evaluations, r.BestFitness, r.TargetReached)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to list")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit runs as JSON")
	return cmd
}

func addRunRefFlags(cmd *cobra.Command, ref *genevo.RunRef) {
	cmd.Flags().StringVar(&ref.RunID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&ref.Latest, "latest", false, "use the most recent run")
}

func newFitnessCmd(g *globalFlags) *cobra.Command {
	var (
		ref     genevo.RunRef
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "fitness",
		Short: "Show the best fitness of every generation of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := g.client(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			history, err := client.FitnessHistory(cmd.Context(), genevo.FitnessHistoryRequest{RunRef: ref, Limit: limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, history)
			}
			for i, best := range history {
				fmt.Fprintf(out, "generation=%d best_fitness=%.6f\n", i+1, best)
			}
			return nil
		},
	}
	addRunRefFlags(cmd, &ref)
	cmd.Flags().IntVar(&limit, "limit", 50, "max generations to print (<=0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit fitness history as JSON")
	return cmd
}

func newDiagnosticsCmd(g *globalFlags) *cobra.Command {
	var (
		ref     genevo.RunRef
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "diagnostics",
		Short: "Show per-generation fitness statistics of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := g.client(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			diagnostics, err := client.Diagnostics(cmd.Context(), genevo.DiagnosticsRequest{RunRef: ref, Limit: limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, diagnostics)
			}
			for _, d := range diagnostics {
				fmt.Fprintf(out, "generation=%d min=%.6f avg=%.6f max=%.6f stddev=%.6f diversity=%.6f best_objective=%.6f evaluations=%d\n",
					d.Generation, d.MinFitness, d.AvgFitness, d.MaxFitness, d.StdDev, d.Diversity, d.BestObjective, d.Evaluations)
			}
			return nil
		},
	}
	addRunRefFlags(cmd, &ref)
	cmd.Flags().IntVar(&limit, "limit", 50, "max generations to print (<=0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit diagnostics as JSON")
	return cmd
}

func newPopulationCmd(g *globalFlags) *cobra.Command {
	var (
		ref     genevo.RunRef
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "population",
		Short: "Show the final population of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := g.client(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			population, err := client.Population(cmd.Context(), ref)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, population)
			}
			fmt.Fprintf(out, "population=%s scape=%s generation=%d size=%d\n",
				population.ID, population.Scape, population.Generation, len(population.Individuals))
			for i, ind := range population.Individuals {
				fmt.Fprintf(out, "%3d fitness=%.6f evaluations=%d age=%d\n", i, ind.Fitness, ind.Evaluations, ind.Age)
			}
			return nil
		},
	}
	addRunRefFlags(cmd, &ref)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the population record as JSON")
	return cmd
}

func newScapesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "scapes",
		Short: "List the registered scapes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := genevo.New(genevo.Options{Logger: g.logger(cmd)})
			if err != nil {
				return err
			}
			for _, name := range client.Scapes() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
