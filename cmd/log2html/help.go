package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: log2html <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert log files to highlighted HTML")
	fmt.Fprintln(w, "  watch      Re-convert log files whenever they change")
	fmt.Fprintln(w, "  history    List recorded conversions")
	fmt.Fprintln(w, "  reconvert  Re-convert recorded files with current settings")
	fmt.Fprintln(w, "  forget     Remove records from the history")
	fmt.Fprintln(w, "  settings   Show, export, import or reset stored settings")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "A log file given without a command is converted: log2html app.log")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  LOG2HTML_CONFIG      Config file name or path")
	fmt.Fprintln(w, "  LOG2HTML_DB          Settings database path")
	fmt.Fprintln(w, "  LOG2HTML_OUTPUT_DIR  Default output directory")
	fmt.Fprintln(w, "  LOG2HTML_ENCODING    Input encoding")
	fmt.Fprintln(w, "  LOG2HTML_LOG_LEVEL   debug, info, warn (default) or error")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'log2html help <command>' for details on a specific command.")
}

// printMatchUsage prints the rule and rendering flags.
func printMatchUsage(w io.Writer) {
	fmt.Fprintln(w, "Highlighting:")
	fmt.Fprintln(w, "  -k, --rule <KW=COLOR[:scope]> Keyword rule, repeatable; replaces stored rules")
	fmt.Fprintln(w, "                                COLOR: #RGB, #RRGGBB, #AARRGGBB or a CSS name")
	fmt.Fprintln(w, "                                scope: word (default) or line")
	fmt.Fprintln(w, "  -w, --whole-word              Match whole words only")
	fmt.Fprintln(w, "  -i, --ignore-case             Ignore case when matching")
	fmt.Fprintln(w, "      --case-sensitive          Match case exactly")
	fmt.Fprintln(w, "  -e, --encoding <name>         Input encoding: auto, utf-8, windows-1252, ...")
	fmt.Fprintln(w, "      --background <color>      Page background color")
	fmt.Fprintln(w, "      --foreground <color>      Default text color")
}

// printSettingsFlagUsage prints flags shared by commands using the database.
func printSettingsFlagUsage(w io.Writer, withConfig bool) {
	fmt.Fprintln(w, "Settings:")
	if withConfig {
		fmt.Fprintln(w, "  -c, --config <name>           Config file name or path")
	}
	fmt.Fprintln(w, "      --db <path>               Settings database (default: user config dir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet                   Only show errors")
	fmt.Fprintln(w, "  -v, --verbose                 Log debug details to stderr")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: log2html convert [input...] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert log files to HTML with colored keywords.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Log file or directory (optional if config has input.defaultDir)")
	fmt.Fprintln(w, "           Directories are scanned for input.extensions (default: .log, .txt)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <dir>            Output directory (default: next to each input)")
	fmt.Fprintln(w, "      --no-history              Do not record conversions")
	fmt.Fprintln(w, "      --no-store                Use built-in defaults, skip the settings database")
	fmt.Fprintln(w)
	printMatchUsage(w)
	fmt.Fprintln(w)
	printSettingsFlagUsage(w, true)
}

// printWatchUsage prints usage for the watch command.
func printWatchUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: log2html watch <input...> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert log files, then re-convert each one when it changes.")
	fmt.Fprintln(w, "Each file keeps a single history record. Stop with Ctrl+C.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <dir>            Output directory (default: next to each input)")
	fmt.Fprintln(w, "      --debounce <duration>     Quiet period before re-converting (default: 300ms)")
	fmt.Fprintln(w, "      --no-history              Do not record conversions")
	fmt.Fprintln(w, "      --no-store                Use built-in defaults, skip the settings database")
	fmt.Fprintln(w)
	printMatchUsage(w)
	fmt.Fprintln(w)
	printSettingsFlagUsage(w, true)
}

// printHistoryUsage prints usage for the history command.
func printHistoryUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: log2html history [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "List recorded conversions, newest first.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -n, --limit <n>               Show at most n records")
	fmt.Fprintln(w, "      --date-format <s>         Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D, HH, hh, mm, ss, A")
	fmt.Fprintln(w, "                                Presets: iso, date, european, us, long")
	fmt.Fprintln(w)
	printSettingsFlagUsage(w, true)
}

// printReconvertUsage prints usage for the reconvert command.
func printReconvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: log2html reconvert <id...> | --all [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Re-convert recorded files into their previous output directory")
	fmt.Fprintln(w, "with the current settings. IDs may be abbreviated to a unique prefix.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -a, --all                     Re-convert every record")
	fmt.Fprintln(w)
	printMatchUsage(w)
	fmt.Fprintln(w)
	printSettingsFlagUsage(w, true)
}

// printForgetUsage prints usage for the forget command.
func printForgetUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: log2html forget <id...> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Remove records from the history. Output files are kept.")
	fmt.Fprintln(w)
	printSettingsFlagUsage(w, false)
}

// printSettingsUsage prints usage for the settings command.
func printSettingsUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: log2html settings <subcommand> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Subcommands:")
	fmt.Fprintln(w, "  show             Print stored rules, options and palette")
	fmt.Fprintln(w, "  export [file]    Write stored rules and options as a YAML config")
	fmt.Fprintln(w, "  import <config>  Save a YAML config's rules and options")
	fmt.Fprintln(w, "  reset            Restore default rules, options and palette")
	fmt.Fprintln(w)
	printSettingsFlagUsage(w, false)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "watch":
		printWatchUsage(env.Stdout)
	case "history":
		printHistoryUsage(env.Stdout)
	case "reconvert":
		printReconvertUsage(env.Stdout)
	case "forget":
		printForgetUsage(env.Stdout)
	case "settings":
		printSettingsUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: log2html version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: log2html help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
