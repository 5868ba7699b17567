package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	os.Exit(runMain(os.Args, DefaultEnv()))
}

// commands lists the subcommand names.
var commands = []string{"convert", "watch", "history", "reconvert", "forget", "settings", "version", "help"}

// isCommand reports whether arg names a subcommand.
func isCommand(arg string) bool {
	for _, c := range commands {
		if arg == c {
			return true
		}
	}
	return false
}

// runMain runs the CLI and returns the process exit code.
func runMain(args []string, env *Environment) int {
	warnUnknownEnvVars(env.Stderr)

	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	cmd, rest := args[1], args[2:]
	var err error
	switch cmd {
	case "convert":
		err = runConvert(ctx, rest, env)
	case "watch":
		err = runWatch(ctx, rest, env)
	case "history":
		err = runHistory(ctx, rest, env)
	case "reconvert":
		err = runReconvert(ctx, rest, env)
	case "forget":
		err = runForget(ctx, rest, env)
	case "settings":
		err = runSettings(ctx, rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "log2html %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(rest, env)
	default:
		if !looksLikeLog(cmd) {
			fmt.Fprintf(env.Stderr, "unknown command: %s\n", cmd)
			printUsage(env.Stderr)
			return ExitUsage
		}
		// log2html app.log is shorthand for log2html convert app.log
		err = runConvert(ctx, args[1:], env)
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}
