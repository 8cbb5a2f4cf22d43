package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "serve":
		return runServe(args[1:])
	case "translate":
		return runTranslate(args[1:])
	case "select":
		return runSelect(args[1:])
	case "latest":
		return runLatest(args[1:])
	case "popup":
		return runPopup(args[1:])
	case "health":
		return runHealth(args[1:])
	case "daemon":
		return runDaemon(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "transpop CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  transpop <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  serve      Start the coordinator and its HTTP API")
	fmt.Fprintln(os.Stderr, "  translate  Translate text and store it as the latest result")
	fmt.Fprintln(os.Stderr, "  select     Translate text as a context-action selection")
	fmt.Fprintln(os.Stderr, "  latest     Show the latest stored translation")
	fmt.Fprintln(os.Stderr, "  popup      Open an interactive translation view")
	fmt.Fprintln(os.Stderr, "  health     Verify store (and optionally server) connectivity")
	fmt.Fprintln(os.Stderr, "  daemon     Manage the systemd service for transpop serve")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"transpop <command> -h\" for command-specific flags.")
}
