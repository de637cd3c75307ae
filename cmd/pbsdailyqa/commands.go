package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"pbsdailyqa/internal/logger"
	"pbsdailyqa/internal/models"
	"pbsdailyqa/internal/phantom"
	"pbsdailyqa/pkg/analysis"
	"pbsdailyqa/pkg/batch"
	"pbsdailyqa/pkg/config"
	"pbsdailyqa/pkg/dosegrid"
	"pbsdailyqa/pkg/report"
	"pbsdailyqa/pkg/upload"
	"pbsdailyqa/pkg/visualization"
)

const component = "cli"

// app carries the flag values and the state built from them before each
// command runs
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	logJSON    bool

	format     string
	pretty     bool
	profiles   bool
	outputPath string
	uploadRoot string

	plotType    string
	annotations string
	axis        string

	background float64
	amplitude  float64

	numCores   int
	extensions []string

	cfg *config.Config
	log logger.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "pbsdailyqa",
		Short: "Analyze PBS proton daily QA spot exports",
		Long: `pbsdailyqa reads the 2D dose export of the 16-spot PBS daily QA plan and
reports spot position, spot size, flatness and symmetry against the
calibration baseline.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "pbsdailyqa.yaml", "Configuration file")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	pf.BoolVar(&a.logJSON, "log-json", false, "Log JSON lines instead of console output")

	rootCmd.AddCommand(
		a.analyzeCmd(),
		a.instanceCmd(),
		a.plotCmd(),
		a.batchCmd(),
		a.phantomCmd(),
		a.configCmd(),
	)

	return rootCmd
}

// setup loads the configuration and applies explicitly set flags over it
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON = a.logJSON
	}
	if flags.Lookup("format") != nil {
		if flags.Changed("format") {
			cfg.Output.Format = a.format
		}
		if flags.Changed("pretty") {
			cfg.Output.Pretty = a.pretty
		}
		if flags.Changed("profiles") {
			cfg.Output.Profiles = a.profiles
		}
	}
	if flags.Lookup("upload-root") != nil && flags.Changed("upload-root") {
		cfg.Upload.Root = a.uploadRoot
	}
	if flags.Lookup("cores") != nil {
		if flags.Changed("cores") {
			cfg.Processing.NumCores = a.numCores
		}
		if flags.Changed("ext") {
			cfg.Processing.Extensions = a.extensions
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(a.stderr, cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	return nil
}

func (a *app) addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&a.format, "format", "f", "", "Output format: json, yaml, summary, xlsx (default from config)")
	cmd.Flags().BoolVar(&a.pretty, "pretty", false, "Pretty-print JSON output")
	cmd.Flags().BoolVar(&a.profiles, "profiles", false, "Include axis profiles and spot regions in json/yaml output")
	cmd.Flags().StringVarP(&a.outputPath, "output", "o", "", "Output file path (default: stdout)")
}

func (a *app) analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <export.txt>",
		Short: "Analyze a daily QA dose export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.analyzeFile(args[0])
			if err != nil {
				return err
			}
			return a.writeResult(result)
		},
	}
	a.addOutputFlags(cmd)
	return cmd
}

func (a *app) instanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instance <id>",
		Short: "Analyze the export stored for a test list instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := upload.NewStore(a.cfg.Upload.Root)
			path, err := store.Resolve(args[0])
			if errors.Is(err, upload.ErrNoData) {
				a.log.Warning(component, "no data", map[string]interface{}{"id": args[0], "root": store.Root})
				fmt.Fprintln(a.stdout, err.Error())
				return nil
			}
			if err != nil {
				return err
			}

			result, err := a.analyzeFile(path)
			if err != nil {
				return err
			}
			return a.writeResult(result)
		},
	}
	a.addOutputFlags(cmd)
	cmd.Flags().StringVar(&a.uploadRoot, "upload-root", "", "Upload root directory (default from config)")
	return cmd
}

func (a *app) plotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot <export.txt>",
		Short: "Write the review plot panels of a dose export as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := visualization.ParsePlotRequest(a.plotType, a.annotations, a.axis)
			var invalid *visualization.InvalidParameterError
			if errors.As(err, &invalid) {
				// a bad selection is answered, not failed
				return a.writeJSON(invalid)
			}
			if err != nil {
				return err
			}

			result, err := a.analyzeFile(args[0])
			if err != nil {
				return err
			}

			panels, err := visualization.BuildPanels(result, req, visualization.NewClassifier(a.cfg.Tolerances()))
			if err != nil {
				return err
			}
			return a.writeJSON(panels)
		},
	}
	cmd.Flags().StringVar(&a.plotType, "plot-type", "", "Plot type: profile or spot (default profile)")
	cmd.Flags().StringVar(&a.annotations, "annotations", "", "Annotations: position or size (default position)")
	cmd.Flags().StringVar(&a.axis, "axis", "", "Profile axis: x or y (default x)")
	cmd.Flags().BoolVar(&a.pretty, "pretty", false, "Pretty-print JSON output")
	cmd.Flags().StringVarP(&a.outputPath, "output", "o", "", "Output file path (default: stdout)")
	return cmd
}

func (a *app) batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Analyze every export in a directory and tabulate the grid figures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := batch.NewRunner(&batch.Params{
				InputDir:   args[0],
				Extensions: a.cfg.Processing.Extensions,
				NumCores:   a.cfg.Processing.NumCores,
			}, a.log)

			outcomes, err := runner.Run()
			if err != nil {
				return err
			}

			w, closeOutput, err := a.output()
			if err != nil {
				return err
			}
			err = report.WriteTrend(w, outcomes, visualization.NewClassifier(a.cfg.Tolerances()))
			if cerr := closeOutput(); err == nil {
				err = cerr
			}
			return err
		},
	}
	cmd.Flags().IntVar(&a.numCores, "cores", 0, "Number of exports analyzed at once, 0 for all cores (default from config)")
	cmd.Flags().StringSliceVar(&a.extensions, "ext", nil, "Export file extensions, e.g. .txt,.opg (default from config)")
	cmd.Flags().StringVarP(&a.outputPath, "output", "o", "", "Output file path (default: stdout)")
	return cmd
}

func (a *app) phantomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phantom <export.txt>",
		Short: "Write a synthetic daily QA export with every spot at its reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("failed to create export: %w", err)
			}
			defer f.Close()

			axis := phantom.Axis(100)
			values := phantom.Sample(axis, axis, phantom.DailyQA(a.background, a.amplitude))
			if err := phantom.WriteExport(f, axis, axis, values); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}

			a.log.Info(component, "phantom written", map[string]interface{}{"path": args[0]})
			return f.Close()
		},
	}
	cmd.Flags().Float64Var(&a.background, "background", 10, "Flat background dose")
	cmd.Flags().Float64Var(&a.amplitude, "amplitude", 100, "Spot peak dose above background")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init <path>",
		Short: "Write the default configuration",
		Args:  cobra.ExactArgs(1),
		// the file to be written need not load
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateDefaultConfigFile(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Default configuration written to %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func (a *app) analyzeFile(path string) (*models.AnalysisResult, error) {
	grid, err := dosegrid.ParseFile(path)
	if err != nil {
		a.log.Error(component, err, map[string]interface{}{"path": path})
		return nil, err
	}

	rows, cols := grid.Dims()
	a.log.Debug(component, "grid parsed", map[string]interface{}{"path": path, "rows": rows, "cols": cols})

	return analysis.NewAnalyzer(a.log).Analyze(grid)
}

// output returns the configured destination and a function closing it
func (a *app) output() (io.Writer, func() error, error) {
	if a.outputPath == "" {
		return a.stdout, func() error { return nil }, nil
	}
	f, err := os.Create(a.outputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output: %w", err)
	}
	return f, f.Close, nil
}

func (a *app) writeResult(result *models.AnalysisResult) error {
	format, err := report.ParseFormat(a.cfg.Output.Format)
	if err != nil {
		return err
	}

	w, closeOutput, err := a.output()
	if err != nil {
		return err
	}

	classifier := visualization.NewClassifier(a.cfg.Tolerances())
	switch format {
	case report.FormatSummary:
		err = report.WriteSummary(w, result, classifier)
	case report.FormatXLSX:
		err = report.WriteWorkbook(w, result, classifier)
	default:
		var opts []report.Option
		if a.cfg.Output.Profiles {
			opts = append(opts, report.WithProfiles())
		}
		err = report.Encode(w, result, format, a.cfg.Output.Pretty, opts...)
	}

	if cerr := closeOutput(); err == nil {
		err = cerr
	}
	return err
}

func (a *app) writeJSON(v interface{}) error {
	w, closeOutput, err := a.output()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	if a.pretty {
		enc.SetIndent("", "  ")
	}
	err = enc.Encode(v)

	if cerr := closeOutput(); err == nil {
		err = cerr
	}
	return err
}
