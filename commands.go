package sandsh

import (
	"context"
	"sort"
)

// HandlerFunc implements one command. args excludes the command name. A
// returned error is turned into the Result by the executor.
type HandlerFunc func(ctx context.Context, x *Executor, args []string, cwd string) (Result, error)

var builtins map[string]HandlerFunc

func init() {
	builtins = map[string]HandlerFunc{
		"pwd":    cmdPwd,
		"ls":     cmdLs,
		"cd":     cmdCd,
		"mkdir":  cmdMkdir,
		"rm":     cmdRm,
		"rmdir":  cmdRmdir,
		"cat":    cmdCat,
		"touch":  cmdTouch,
		"mv":     cmdMv,
		"cp":     cmdCp,
		"echo":   cmdEcho,
		"head":   cmdHead,
		"tail":   cmdTail,
		"cpu":    cmdCPU,
		"mem":    cmdMem,
		"ps":     cmdPs,
		"whoami": cmdWhoami,
		"date":   cmdDate,
		"uptime": cmdUptime,
		"clear":  cmdClear,
		"help":   cmdHelp,
		"--help": cmdHelp,
		"-h":     cmdHelp,
	}
}

func lookup(name string) (HandlerFunc, bool) {
	h, ok := builtins[name]
	return h, ok
}

// Commands returns the names the dispatcher recognizes, sorted.
func Commands() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
