package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/playlytics/playlytics/internal/telectl"
)

var (
	serverURL = flag.String("server-url", "http://localhost:8420", "Telemetry API URL")
	apiKey    = flag.String("api-key", "", "API key (or set TELECTL_API_KEY env var)")
	format    = flag.String("format", "table", "Output format: table or json")
)

func main() {
	flag.Parse()

	if *apiKey == "" {
		*apiKey = os.Getenv("TELECTL_API_KEY")
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	client := telectl.NewHTTPClient(*serverURL, *apiKey)
	asJSON := *format == "json"

	var err error
	switch args[0] {
	case "dashboard":
		fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
		from := fs.String("from", "", "window start (RFC3339 or YYYY-MM-DD)")
		to := fs.String("to", "", "window end (RFC3339 or YYYY-MM-DD)")
		fs.Parse(args[1:])
		err = telectl.Dashboard(client, os.Stdout, *from, *to, asJSON)
	case "session":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Error: session requires a session id")
			os.Exit(1)
		}
		err = telectl.Session(client, os.Stdout, args[1], asJSON)
	case "events":
		fs := flag.NewFlagSet("events", flag.ExitOnError)
		sessionID := fs.String("session", "", "filter by session id")
		eventType := fs.String("type", "", "filter by event type")
		limit := fs.Int("limit", 50, "maximum rows")
		fs.Parse(args[1:])
		err = telectl.Events(client, os.Stdout, *sessionID, *eventType, *limit, asJSON)
	case "send-event":
		fs := flag.NewFlagSet("send-event", flag.ExitOnError)
		sessionID := fs.String("session", "telectl-smoke", "session id")
		eventType := fs.String("type", "SmokeTest", "event type")
		eventName := fs.String("name", "telectl", "event name")
		fs.Parse(args[1:])
		err = telectl.SendEvent(client, os.Stdout, *sessionID, *eventType, *eventName)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", args[0])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`telectl - telemetry API operator CLI

Usage:
  telectl [flags] <command> [command flags]

Commands:
  dashboard [--from ... --to ...]          Show aggregate dashboard
  session <session-id>                     Show one session
  events [--session ... --type ... --limit N]  List recent events
  send-event [--session ... --type ... --name ...]  Post a smoke-test event
  help                                     Show this help

Flags:
  --server-url   Telemetry API URL (default http://localhost:8420)
  --api-key      API key (or TELECTL_API_KEY env var)
  --format       table or json`)
}
