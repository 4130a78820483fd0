package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TFMV/forcegraph/config"
	"github.com/TFMV/forcegraph/ingest"
	"github.com/TFMV/forcegraph/logging"
	"github.com/TFMV/forcegraph/models"
	"github.com/TFMV/forcegraph/physics"
	"github.com/TFMV/forcegraph/render"
)

var version = "0.3.0"

// globalFlags are shared by every command and override the config file
type globalFlags struct {
	configPath  string
	dataFile    string
	inputFormat string
	logLevel    string
	debug       bool
	width       float64
	height      float64
	noise       float64
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:          "forcegraph",
		Short:        "Interactive force-directed graph views",
		Long:         "forcegraph lays out a node-link graph with a force simulation and serves it as a live, draggable view or renders it to SVG/JSON.",
		Version:      version,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to a config file (yaml, toml or json)")
	pf.StringVar(&flags.dataFile, "data", "", "Path to graph data (json, yaml, csv or edge list); the sample graph when empty")
	pf.StringVar(&flags.inputFormat, "input-format", "", "Input format, inferred from the file extension when empty")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.BoolVar(&flags.debug, "debug", false, "Enable development logging")
	pf.Float64Var(&flags.width, "width", 0, "Viewport width")
	pf.Float64Var(&flags.height, "height", 0, "Viewport height")
	pf.Float64Var(&flags.noise, "noise", 0, "Intensity of the simplex drift force (0 disables it)")

	root.AddCommand(
		serveCmd(flags),
		renderCmd(flags),
	)
	return root
}

// loadConfig reads the config file and applies explicitly set flags on top
func loadConfig(cmd *cobra.Command, flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("data") {
		cfg.Input.Path = flags.dataFile
	}
	if changed("input-format") {
		cfg.Input.Format = flags.inputFormat
	}
	if changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if changed("debug") {
		cfg.Log.Development = flags.debug
		if flags.debug && !changed("log-level") {
			cfg.Log.Level = "debug"
		}
	}
	if changed("width") {
		cfg.Render.Width = flags.width
	}
	if changed("height") {
		cfg.Render.Height = flags.height
	}
	if changed("noise") {
		cfg.Simulation.NoiseIntensity = flags.noise
	}
	return cfg, nil
}

// setup loads config, builds the logger and reports config warnings
func setup(cmd *cobra.Command, flags *globalFlags) (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, err
	}
	for _, warning := range cfg.Validate() {
		logger.Warn("config", zap.String("warning", warning))
	}
	return cfg, logger, nil
}

// loadGraph processes the configured input file, or returns the sample
// graph when none is configured
func loadGraph(cfg *config.Config, logger *zap.Logger) (*models.Graph, error) {
	if cfg.Input.Path == "" {
		logger.Info("no data file given, using the sample graph")
		return models.SampleGraph(), nil
	}
	graph, err := ingest.ProcessFile(cfg.Input.Path, cfg.Input.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to process input file: %w", err)
	}
	logger.Info("graph loaded",
		zap.String("path", cfg.Input.Path),
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("edges", graph.EdgeCount()),
	)
	return graph, nil
}

func layoutOptions(cfg *config.Config) physics.Options {
	opts := physics.DefaultOptions()
	sc := cfg.Simulation
	opts.LinkDistance = sc.LinkDistance
	opts.ChargeStrength = sc.ChargeStrength
	opts.CenterStrength = sc.CenterStrength
	opts.NoiseIntensity = sc.NoiseIntensity
	opts.NoiseSeed = int64(sc.Seed)
	opts.Config.Seed = sc.Seed
	opts.Config.VelocityDecay = sc.VelocityDecay
	if sc.AlphaMin > 0 {
		opts.Config.AlphaMin = sc.AlphaMin
	}
	opts.Config.AlphaDecay = physics.AlphaDecayFor(opts.Config.AlphaMin, 300)
	if sc.AlphaDecay > 0 {
		opts.Config.AlphaDecay = sc.AlphaDecay
	}
	return opts
}

func outputOptions(cfg *config.Config, format string) *render.OutputOptions {
	opts := render.NewDefaultOptions(format)
	rc := cfg.Render
	opts.Width = rc.Width
	opts.Height = rc.Height
	opts.Background = rc.Background
	opts.MarkerWidth = rc.MarkerWidth
	opts.MarkerHeight = rc.MarkerHeight
	opts.ImageSize = rc.ImageSize
	opts.EdgeColor = rc.EdgeColor
	opts.FontSize = rc.FontSize
	return opts
}
