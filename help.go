package sandsh

import (
	"context"
	"fmt"
	"strings"
)

// CommandHelp stores help information for a command
type CommandHelp struct {
	Name        string
	Usage       string
	Description string
	Examples    []string
}

const helpText = "Supported commands:\n" +
	"  pwd, ls [-l] [path], cd <path>, mkdir <name>, rmdir <name>, rm [-r] <path>\n" +
	"  cat <file>, touch <file>, mv <src> <dest>, cp [-r] <src> <dest>\n" +
	"  echo [text] [> file] [>> file], head <file>, tail <file>\n" +
	"  cpu, mem, ps, whoami, date, uptime\n" +
	"  clear, help\n"

var commandHelp = map[string]CommandHelp{
	"pwd": {
		Name:        "pwd",
		Usage:       "pwd",
		Description: "Print the current working directory",
	},
	"ls": {
		Name:        "ls",
		Usage:       "ls [-l] [path]",
		Description: "List directory contents sorted by name; -l prefixes each entry with its size in bytes",
		Examples: []string{
			"ls",
			"ls -l /tmp",
		},
	},
	"cd": {
		Name:        "cd",
		Usage:       "cd [directory]",
		Description: "Change the working directory; without an argument go to the home directory",
		Examples: []string{
			"cd /tmp",
			"cd ..          # Go to parent directory",
		},
	},
	"mkdir": {
		Name:        "mkdir",
		Usage:       "mkdir <directory...>",
		Description: "Create directories, including missing parents",
		Examples: []string{
			"mkdir a/b/c",
		},
	},
	"rmdir": {
		Name:        "rmdir",
		Usage:       "rmdir <directory...>",
		Description: "Remove empty directories",
	},
	"rm": {
		Name:        "rm",
		Usage:       "rm [-r|-rf|-fr] <path...>",
		Description: "Remove files; directories need -r",
		Examples: []string{
			"rm notes.txt",
			"rm -r build",
		},
	},
	"cat": {
		Name:        "cat",
		Usage:       "cat <file...>",
		Description: "Print files, separated by a newline",
	},
	"touch": {
		Name:        "touch",
		Usage:       "touch <file...>",
		Description: "Create files or update their modification time",
	},
	"mv": {
		Name:        "mv",
		Usage:       "mv <source...> <dest>",
		Description: "Move or rename files; several sources need a directory destination",
	},
	"cp": {
		Name:        "cp",
		Usage:       "cp [-r] <source...> <dest>",
		Description: "Copy files; directories need -r and are copied into dest",
		Examples: []string{
			"cp a.txt b.txt",
			"cp -r src backup",
		},
	},
	"echo": {
		Name:        "echo",
		Usage:       "echo [text...] [> file | >> file]",
		Description: "Print text, or write it to a file (> overwrites, >> appends)",
		Examples: []string{
			"echo hello",
			"echo 'Hello, World!' > hello.txt",
			"echo more >> hello.txt",
		},
	},
	"head": {
		Name:        "head",
		Usage:       "head <file>",
		Description: "Print the first 10 lines of a file",
	},
	"tail": {
		Name:        "tail",
		Usage:       "tail <file>",
		Description: "Print the last 10 lines of a file",
	},
	"cpu": {
		Name:        "cpu",
		Usage:       "cpu",
		Description: "Show CPU utilization",
	},
	"mem": {
		Name:        "mem",
		Usage:       "mem",
		Description: "Show used and total memory",
	},
	"ps": {
		Name:        "ps",
		Usage:       "ps",
		Description: "List running processes with CPU and memory usage",
	},
	"whoami": {
		Name:        "whoami",
		Usage:       "whoami",
		Description: "Print the current user name",
	},
	"date": {
		Name:        "date",
		Usage:       "date",
		Description: "Print the local date and time",
	},
	"uptime": {
		Name:        "uptime",
		Usage:       "uptime",
		Description: "Show how long the system has been up",
	},
	"clear": {
		Name:        "clear",
		Usage:       "clear",
		Description: "Clear the terminal",
	},
	"help": {
		Name:        "help",
		Usage:       "help [command]",
		Description: "Display help information about commands",
		Examples: []string{
			"help          # List all available commands",
			"help cp       # Show detailed help for cp",
		},
	},
}

// cmdHelp implements the help command
func cmdHelp(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	if len(args) == 0 {
		return output(helpText, cwd)
	}

	help, ok := commandHelp[args[0]]
	if !ok {
		return Result{}, notFoundError("help: no help available for '%s'", args[0])
	}
	return output(help.Format(), cwd)
}

// Format renders the detailed help page.
func (h CommandHelp) Format() string {
	var sb strings.Builder
	title := "Command: " + h.Name
	fmt.Fprintln(&sb, title)
	fmt.Fprintln(&sb, strings.Repeat("=", len(title)))
	fmt.Fprintln(&sb)
	fmt.Fprintf(&sb, "Usage: %s\n\n", h.Usage)
	fmt.Fprintf(&sb, "Description:\n  %s\n", h.Description)
	if len(h.Examples) > 0 {
		fmt.Fprintln(&sb)
		fmt.Fprintln(&sb, "Examples:")
		for _, example := range h.Examples {
			fmt.Fprintf(&sb, "  %s\n", example)
		}
	}
	return sb.String()
}

// LookupHelp returns the help entry for a command.
func LookupHelp(name string) (CommandHelp, bool) {
	h, ok := commandHelp[name]
	return h, ok
}
