package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"

	"gointegral/adapters/quadrature"
	"gointegral/app"
	"gointegral/domain/core"
	"gointegral/domain/integration"
	"gointegral/domain/manifold"
	"gointegral/internal/config"
	"gointegral/internal/errors"
	"gointegral/internal/logging"
	"gointegral/internal/metrics"
	"gointegral/internal/study"
	"gointegral/internal/testkit"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootFlags are shared by every command.
type rootFlags struct {
	configPath string
	logLevel   string
}

// session is what a command needs once configuration is loaded.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *app.Engine
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "gointegral",
		Short:         "Multidimensional numerical integration by Monte Carlo or adaptive quadrature",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (error, warn, info, debug, trace); overrides log.level")

	rootCmd.AddCommand(
		newRunCmd(flags),
		newVolumeCmd(flags),
		newStudyCmd(flags),
		newMethodsCmd(),
	)
	return rootCmd
}

func openSession(cmd *cobra.Command, flags *rootFlags) (*session, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cmd.ErrOrStderr(), level)

	opts := []app.EngineOption{app.WithDefaults(cfg.Engine), app.WithLogger(logger)}
	if cfg.Metrics.Enabled {
		opts = append(opts, app.WithMetrics(metrics.Default()))
	}
	return &session{cfg: cfg, logger: logger, engine: app.NewEngine(opts...)}, nil
}

// close flushes metrics when a textfile is configured.
func (s *session) close() error {
	if !s.cfg.Metrics.Enabled || s.cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := metrics.WriteTextfile(s.cfg.Metrics.Textfile, prometheus.DefaultGatherer); err != nil {
		return errors.Wrap(err, "failed to write metrics")
	}
	s.logger.Debug("metrics written", "path", s.cfg.Metrics.Textfile)
	return nil
}

// solverFlags binds the per-run options. Only flags the user sets override
// the configured defaults.
type solverFlags struct {
	samples        int
	batchSize      int
	seed           int64
	workers        int
	tolerance      float64
	maxDepth       int
	maxEvaluations int
	rule           string
	progress       bool
}

func (f *solverFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.samples, "samples", 0, "Monte Carlo sample count")
	cmd.Flags().IntVar(&f.batchSize, "batch-size", 0, "Monte Carlo points per batch")
	cmd.Flags().Int64Var(&f.seed, "seed", 42, "Random seed for reproducible sampling")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Monte Carlo worker goroutines")
	cmd.Flags().Float64Var(&f.tolerance, "tolerance", 0, "Quadrature absolute error tolerance")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", 0, "Quadrature maximum subdivision depth")
	cmd.Flags().IntVar(&f.maxEvaluations, "max-evaluations", 0, "Quadrature evaluation budget")
	cmd.Flags().StringVar(&f.rule, "rule", "", "Quadrature rule pair (gk15, gk7, legendre)")
	cmd.Flags().BoolVar(&f.progress, "progress", false, "Report Monte Carlo progress on stderr")
}

func (f *solverFlags) options(cmd *cobra.Command) []app.RunOption {
	var opts []app.RunOption
	changed := cmd.Flags().Changed
	if changed("samples") {
		opts = append(opts, app.WithSamples(f.samples))
	}
	if changed("batch-size") {
		opts = append(opts, app.WithBatchSize(f.batchSize))
	}
	if changed("seed") {
		opts = append(opts, app.WithSeed(uint64(f.seed)))
	}
	if changed("workers") {
		opts = append(opts, app.WithWorkers(f.workers))
	}
	if changed("tolerance") {
		opts = append(opts, app.WithTolerance(f.tolerance))
	}
	if changed("max-depth") {
		opts = append(opts, app.WithMaxDepth(f.maxDepth))
	}
	if changed("max-evaluations") {
		opts = append(opts, app.WithMaxEvaluations(f.maxEvaluations))
	}
	if changed("rule") {
		opts = append(opts, app.WithRule(f.rule))
	}
	if f.progress {
		opts = append(opts, app.WithProgress(progressTo(cmd.ErrOrStderr())))
	}
	return opts
}

func progressTo(w io.Writer) integration.ProgressFunc {
	return func(fraction float64, message string) error {
		_, err := fmt.Fprintf(w, "%5.1f%% %s\n", 100*fraction, message)
		return err
	}
}

// domainFor resolves the integrand's bounds from --bounds or its default
// domain in --dim dimensions.
func domainFor(in testkit.Integrand, spec string, dim int) (integration.Bounds, error) {
	if strings.TrimSpace(spec) != "" {
		return integration.ParseBoundsSpec(spec)
	}
	if dim <= 0 {
		return nil, errors.ValidationErrorf("--dim must be positive, got %d", dim)
	}
	return in.DefaultBounds(dim), nil
}

func newRunCmd(root *rootFlags) *cobra.Command {
	var (
		integrand string
		bounds    string
		dim       int
		method    string
		runID     string
		sf        solverFlags
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Integrate a catalog function over a box",
		Long: `Integrate one of the catalog functions and print the estimate.

Catalog: ` + strings.Join(testkit.Names(), ", ") + `

Example: gointegral run --integrand gaussian --bounds "-2:2,-2:2" --method quadrature --rule gk7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, root)
			if err != nil {
				return err
			}
			in, err := testkit.Lookup(integrand)
			if err != nil {
				return err
			}
			b, err := domainFor(in, bounds, dim)
			if err != nil {
				return err
			}

			opts := sf.options(cmd)
			if cmd.Flags().Changed("run-id") {
				id, err := core.ParseRunID(runID)
				if err != nil {
					return err
				}
				opts = append(opts, app.WithRunID(id))
			}

			res, err := s.engine.Run(cmd.Context(), in.Func, b, method, opts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s over %s\n", in.Description, b)
			fmt.Fprintln(out, res)
			if exact, ok := in.Exact(b); ok {
				fmt.Fprintf(out, "exact %.10g, abs error %.3e\n", exact, math.Abs(res.Value()-exact))
			}
			return s.close()
		},
	}

	cmd.Flags().StringVar(&integrand, "integrand", "gaussian", "Catalog integrand name")
	cmd.Flags().StringVar(&bounds, "bounds", "", `Integration box as "min:max,min:max,..."`)
	cmd.Flags().IntVar(&dim, "dim", 2, "Dimension of the default domain when --bounds is empty")
	cmd.Flags().StringVar(&method, "method", app.MethodMonteCarlo, "Integration method")
	cmd.Flags().StringVar(&runID, "run-id", "", "UUID labelling the run in logs (generated when unset)")
	sf.register(cmd)

	return cmd
}

func newVolumeCmd(root *rootFlags) *cobra.Command {
	var (
		shape  string
		dim    int
		radius float64
		lo, hi float64
		method string
		sf     solverFlags
	)

	cmd := &cobra.Command{
		Use:   "volume",
		Short: "Check a manifold's analytic volume against an integration run",
		Long: `Integrate the indicator of a hypersphere or hyperrectangle over its
bounding box and compare with the closed-form volume.

Example: gointegral volume --shape sphere --dim 4 --samples 2000000 --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, root)
			if err != nil {
				return err
			}

			var p manifold.Predicate
			switch strings.ToLower(strings.TrimSpace(shape)) {
			case "sphere":
				p, err = manifold.NewHyperSphere(dim, radius, nil)
			case "box":
				p, err = manifold.NewHyperRectangle(integration.Cube(dim, lo, hi))
			default:
				return errors.ValidationErrorf("unknown shape %q (available: box, sphere)", shape)
			}
			if err != nil {
				return err
			}

			v, err := s.engine.Validate(cmd.Context(), p, method, sf.options(cmd)...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, v.Result)
			fmt.Fprintf(out, "exact %.10g, abs error %.3e, rel error %.3e\n", v.Exact, v.AbsError, v.RelError())
			if c, ok := p.Centroid(); ok {
				fmt.Fprintf(out, "centroid %v\n", c)
			}
			if v.Result.ErrorEstimate() > 0 {
				fmt.Fprintf(out, "within 3 error estimates: %t\n", v.WithinError(3))
			}
			return s.close()
		},
	}

	cmd.Flags().StringVar(&shape, "shape", "sphere", "Manifold shape (sphere, box)")
	cmd.Flags().IntVar(&dim, "dim", 4, "Dimension")
	cmd.Flags().Float64Var(&radius, "radius", 1, "Sphere radius")
	cmd.Flags().Float64Var(&lo, "lo", 0, "Box lower corner on every axis")
	cmd.Flags().Float64Var(&hi, "hi", 1, "Box upper corner on every axis")
	cmd.Flags().StringVar(&method, "method", app.MethodMonteCarlo, "Integration method")
	sf.register(cmd)

	return cmd
}

func newStudyCmd(root *rootFlags) *cobra.Command {
	var (
		integrand string
		bounds    string
		dim       int
		samples   []int
		trials    int
		seed      int64
		batchSize int
		workers   int
		xlsxPath  string
	)

	cmd := &cobra.Command{
		Use:   "study",
		Short: "Measure Monte Carlo convergence over increasing sample counts",
		Long: `Run seeded Monte Carlo trials at each sample count, summarise them and
fit the log-log slope of error against samples.

Example: gointegral study --integrand sumsq --dim 3 --samples 1000,10000,100000 --trials 20 --xlsx study.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, root)
			if err != nil {
				return err
			}
			in, err := testkit.Lookup(integrand)
			if err != nil {
				return err
			}
			b, err := domainFor(in, bounds, dim)
			if err != nil {
				return err
			}

			cfg := study.Config{
				Name:      in.Name,
				Samples:   samples,
				Trials:    trials,
				Seed:      uint64(seed),
				BatchSize: batchSize,
				Workers:   workers,
			}
			cfg.Exact, cfg.HasExact = in.Exact(b)

			report, err := study.Run(cmd.Context(), s.engine, in.Func, b, cfg)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)

			if xlsxPath != "" {
				if err := study.WriteXLSX(xlsxPath, report); err != nil {
					return err
				}
				s.logger.Info("study exported", "path", xlsxPath)
			}
			return s.close()
		},
	}

	cmd.Flags().StringVar(&integrand, "integrand", "sumsq", "Catalog integrand name")
	cmd.Flags().StringVar(&bounds, "bounds", "", `Integration box as "min:max,min:max,..."`)
	cmd.Flags().IntVar(&dim, "dim", 2, "Dimension of the default domain when --bounds is empty")
	cmd.Flags().IntSliceVar(&samples, "samples", []int{1000, 10000, 100000}, "Sample counts to study")
	cmd.Flags().IntVar(&trials, "trials", 10, "Trials per sample count")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Base random seed")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Points per batch (0 uses the configured default)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker goroutines (0 uses the configured default)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write the report to this .xlsx file")

	return cmd
}

func printReport(w io.Writer, r *study.Report) {
	fmt.Fprintf(w, "%s over %s\n", r.Name, r.Bounds)
	fmt.Fprintf(w, "%10s %6s %16s %12s %12s %12s\n", "samples", "trials", "mean", "std dev", "mean err", "abs err")
	for _, l := range r.Levels {
		fmt.Fprintf(w, "%10d %6d %16.10g %12.4e %12.4e %12.4e\n",
			l.Samples, l.Trials, l.MeanValue, l.StdDevValue, l.MeanErrorEstimate, l.MeanAbsError)
	}
	fmt.Fprintf(w, "slope reported %.3f, observed %.3f\n", r.ReportedSlope, r.ObservedSlope)
}

func newMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List integration methods and quadrature rules",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "methods:", strings.Join(app.NewEngine().Methods(), ", "))
			fmt.Fprintln(out, "rules:", strings.Join(quadrature.RuleNames(), ", "))
		},
	}
}
