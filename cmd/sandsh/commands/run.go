package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/telnet2/go-practice/go-sandsh/internal/logging"
)

var runCmd = &cobra.Command{
	Use:   "run <command line>",
	Short: "Run a single command line",
	Long: `Run one command line and exit with its exit code.

Arguments are joined with spaces, so quote the line to keep shell quoting
intact:

  sandsh run 'echo "hello world" > greeting.txt'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	exec, err := newExecutor(cfg, logging.Component("executor"))
	if err != nil {
		return err
	}

	line := strings.Join(args, " ")
	res := exec.Run(context.Background(), line, initialCwd(cfg))
	if res.Clear() {
		fmt.Fprint(cmd.OutOrStdout(), clearScreen)
	} else {
		fmt.Fprint(cmd.OutOrStdout(), res.Stdout)
	}
	if res.Stderr != "" {
		fmt.Fprint(cmd.ErrOrStderr(), color.RedString("%s", res.Stderr))
	}
	if s := suggestionFor(line, res.ExitCode); s != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), color.HiBlackString("%s", s))
	}

	if res.ExitCode != 0 {
		return &ExitError{Code: res.ExitCode}
	}
	return nil
}
