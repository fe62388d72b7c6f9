// Command viewer opens a window showing an animated glTF model with a
// free-fly camera.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/config"
	"github.com/Carmen-Shannon/oxy-viewer/viewer"
	"github.com/spf13/cobra"
)

func init() {
	// GLFW and the surface must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
	modelPath  string
	profile    bool
	verbose    bool
	watch      bool
}

func newRootCommand() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "viewer",
		Short:         "View an animated glTF model with a free-fly camera",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	f.StringVarP(&opts.modelPath, "model", "m", "", "model to show, optionally labelled (model.glb#Scene0)")
	f.BoolVar(&opts.profile, "profile", false, "log frame statistics once per second")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	f.BoolVar(&opts.watch, "watch", true, "reload controller settings when the config file changes")
	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	if opts.verbose {
		common.LogLevel.Set(slog.LevelDebug)
	}
	common.SetupLogging(cmd.ErrOrStderr())

	cfg, err := loadConfig(opts)
	if err != nil {
		slog.Error("configuration rejected", slog.Any("error", err))
		return err
	}

	viewerOpts := []viewer.ViewerOption{viewer.WithProfiling(opts.profile)}
	if opts.configPath != "" && opts.watch {
		viewerOpts = append(viewerOpts, viewer.WithConfigWatch(opts.configPath))
	}

	v, err := viewer.New(cfg, viewerOpts...)
	if err != nil {
		slog.Error("viewer setup failed", slog.Any("error", err))
		return err
	}
	return v.Run()
}

// loadConfig reads the config file, if any, and applies the --model override.
func loadConfig(opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if opts.modelPath != "" {
		cfg.Model.Scene = opts.modelPath
		// The configured clip belongs to the configured file.
		cfg.Model.Animation = ""
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("model override: %w", err)
	}
	return cfg, nil
}
