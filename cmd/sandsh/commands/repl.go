package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/telnet2/go-practice/go-sandsh"
	"github.com/telnet2/go-practice/go-sandsh/client"
	"github.com/telnet2/go-practice/go-sandsh/internal/logging"
)

// clearScreen moves the cursor home and erases the display.
const clearScreen = "\033[H\033[2J"

var (
	replServer    string
	replSessionID string
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive prompt",
	Long: `Start an interactive prompt. Commands run locally unless --server points
at a running 'sandsh serve', in which case a remote session is used.

Type 'exit' or press Ctrl+D to quit.`,
	RunE: runREPLCmd,
}

func init() {
	replCmd.Flags().StringVar(&replServer, "server", "", "Server URL for a remote session (e.g. http://localhost:8080)")
	replCmd.Flags().StringVar(&replSessionID, "session", "", "Attach to an existing remote session")
}

// shellBackend runs lines and remembers the working directory between them.
type shellBackend interface {
	Execute(ctx context.Context, line string) (sandsh.Result, error)
	Cwd() string
}

type localBackend struct {
	exec *sandsh.Executor
	cwd  string
}

func (b *localBackend) Execute(ctx context.Context, line string) (sandsh.Result, error) {
	res := b.exec.Run(ctx, line, b.cwd)
	b.cwd = res.Cwd
	return res, nil
}

func (b *localBackend) Cwd() string { return b.cwd }

type remoteBackend struct {
	session *client.Session
}

func (b *remoteBackend) Execute(ctx context.Context, line string) (sandsh.Result, error) {
	res, err := b.session.Execute(line)
	if err != nil {
		return sandsh.Result{}, err
	}
	return sandsh.Result{
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Cwd:      res.Cwd,
		ExitCode: res.ExitCode,
	}, nil
}

func (b *remoteBackend) Cwd() string { return b.session.Cwd() }

func runREPLCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var backend shellBackend
	if replServer != "" {
		session, err := client.NewSession(client.SessionOptions{
			BaseURL:       replServer,
			SessionID:     replSessionID,
			AutoReconnect: true,
		})
		if err != nil {
			return err
		}
		defer session.Close(replSessionID == "")
		backend = &remoteBackend{session: session}
		fmt.Fprintln(cmd.ErrOrStderr(), color.New(color.FgHiBlack).Sprintf("Connected to %s (session %s)", replServer, session.ID()))
	} else {
		exec, err := newExecutor(cfg, logging.Component("executor"))
		if err != nil {
			return err
		}
		backend = &localBackend{exec: exec, cwd: initialCwd(cfg)}
	}

	return runREPL(cmd.Context(), backend, os.Stdin, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// runREPL reads lines from in until EOF or exit and prints each result.
func runREPL(ctx context.Context, backend shellBackend, in io.Reader, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	prompt := color.New(color.FgCyan, color.Bold)
	failed := color.New(color.FgRed)
	hint := color.New(color.FgHiBlack)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "%s ", prompt.Sprintf("%s $", backend.Cwd()))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			return nil
		}

		res, err := backend.Execute(ctx, line)
		if err != nil {
			fmt.Fprintln(errOut, failed.Sprintf("error: %v", err))
			continue
		}

		if res.Clear() {
			fmt.Fprint(out, clearScreen)
			continue
		}
		fmt.Fprint(out, res.Stdout)
		if res.Stderr != "" {
			fmt.Fprint(errOut, failed.Sprint(res.Stderr))
		}
		if s := suggestionFor(line, res.ExitCode); s != "" {
			fmt.Fprintln(errOut, hint.Sprint(s))
		}
	}
}
