// Package commands provides the CLI commands for sandsh.
package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/telnet2/go-practice/go-sandsh"
	"github.com/telnet2/go-practice/go-sandsh/internal/config"
	"github.com/telnet2/go-practice/go-sandsh/internal/logging"
)

// Version information set at build time
var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	configPath string
	logLevel   string
	logPretty  bool
	fsMode     string
	fsRoot     string
	startCwd   string
)

// ExitError carries a command's exit code out of Execute.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

var rootCmd = &cobra.Command{
	Use:   "sandsh",
	Short: "sandsh - a sandboxed shell command dispatcher",
	Long: `sandsh interprets a small set of shell-like commands (file management,
text output and system information) without spawning processes.

Run 'sandsh run <command>' for a single command, 'sandsh repl' for an
interactive prompt, or 'sandsh serve' to host the HTTP API.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default sandsh.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().BoolVar(&logPretty, "log-pretty", false, "Human-readable log output")
	rootCmd.PersistentFlags().StringVar(&fsMode, "mode", "", "Filesystem mode (os|jail|overlay|memory)")
	rootCmd.PersistentFlags().StringVar(&fsRoot, "root", "", "Host directory for jail and overlay modes")
	rootCmd.PersistentFlags().StringVar(&startCwd, "cwd", "", "Starting working directory")

	rootCmd.SetVersionTemplate(fmt.Sprintf("sandsh %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file and environment, then applies flags that
// were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-pretty") {
		cfg.Log.Pretty = logPretty
	}
	if flags.Changed("mode") {
		cfg.Sandbox.Mode = fsMode
	}
	if flags.Changed("root") {
		cfg.Sandbox.Root = fsRoot
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logging.Init(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Output: os.Stderr,
		Pretty: cfg.Log.Pretty,
	})
	return cfg, nil
}

// newExecutor builds the executor described by cfg and prepares its
// scratch and home directories.
func newExecutor(cfg *config.Config, logger zerolog.Logger) (*sandsh.Executor, error) {
	mode, err := sandsh.ParseFsMode(cfg.Sandbox.Mode)
	if err != nil {
		return nil, err
	}
	fs, err := sandsh.NewSandboxFs(mode, cfg.Sandbox.Root)
	if err != nil {
		return nil, err
	}

	home := cfg.Sandbox.Home
	if home == "" && mode != sandsh.FsModeOS {
		// The host's home directory rarely exists inside a sandbox.
		home = "/"
	}

	opts := []sandsh.Option{
		sandsh.WithFs(fs),
		sandsh.WithLogger(logger),
		sandsh.WithScratchDir(cfg.Sandbox.Scratch),
		sandsh.WithCPUInterval(cfg.Sandbox.CPUInterval),
	}
	if home != "" {
		opts = append(opts, sandsh.WithHome(home))
	}
	exec := sandsh.New(opts...)

	if err := sandsh.PrepareDirs(fs, cfg.Sandbox.Scratch, cfg.Sandbox.Home); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("mode", string(mode)).
		Str("root", cfg.Sandbox.Root).
		Msg("executor ready")
	return exec, nil
}

// initialCwd returns the --cwd flag or the configured scratch directory.
func initialCwd(cfg *config.Config) string {
	if startCwd != "" {
		return startCwd
	}
	return cfg.Sandbox.Scratch
}
