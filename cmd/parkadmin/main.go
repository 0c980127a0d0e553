// Command parkadmin edits the park site content stored on the configured
// medium and can watch it for changes made by other contexts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"parkadmin/internal/app"
	"parkadmin/internal/config"
	"parkadmin/internal/observability"
	"parkadmin/internal/pkg/logger"
)

var (
	exitFunc = os.Exit
	openApp  = app.New
)

// errUsage marks errors that should exit with status 2.
var errUsage = errors.New("usage")

type command struct {
	summary string
	run     func(ctx context.Context, env *cmdEnv, args []string) error
}

// cmdEnv is what every command runs against.
type cmdEnv struct {
	cfg     config.Config
	log     *logger.Logger
	app     *app.App
	metrics *observability.PromRecorder
	stdout  io.Writer
	stderr  io.Writer
}

var commands = map[string]command{
	"list":       {"list <kind>: print every entity of a collection", runList},
	"get":        {"get <kind> -id N: print one entity", runGet},
	"add":        {"add <kind> -json '{...}': append an entity, printing it with its id", runAdd},
	"update":     {"update <kind> -id N -json '{...}': merge fields into an entity", runUpdate},
	"remove":     {"remove <kind> -id N: delete an entity", runRemove},
	"map":        {"map: print the map configuration", runMap},
	"map-update": {"map-update -json '{...}': merge fields into the map configuration", runMapUpdate},
	"map-toggle": {"map-toggle: flip the map active flag", runMapToggle},
	"dump":       {"dump: print the whole content aggregate", runDump},
	"seed":       {"seed [-force]: write the seed content if missing (or always with -force)", runSeed},
	"login":      {"login -user U -secret S: start an admin session", runLogin},
	"logout":     {"logout: end the admin session", runLogout},
	"status":     {"status: report whether an admin session is active", runStatus},
	"watch":      {"watch: print every refresh of every binding until interrupted", runWatch},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	exitFunc(code)
}

func cli(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		usage(stderr)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "configuration: %v\n", err)
		return 1
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	env := &cmdEnv{cfg: cfg, log: log, stdout: stdout, stderr: stderr}
	var opts []app.Option
	if cfg.MetricsAddr != "" {
		env.metrics = observability.NewPromRecorder()
		opts = append(opts, app.WithMetrics(env.metrics))
	}
	a, err := openApp(ctx, cfg, log, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "open: %v\n", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("close", "error", err)
		}
	}()
	env.app = a

	if err := cmd.run(ctx, env, args[1:]); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "usage: parkadmin %s\n", cmd.summary)
			return 2
		}
		fmt.Fprintf(stderr, "%s: %v\n", args[0], err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: parkadmin <command> [arguments]")
	fmt.Fprintln(w, "kinds: slides, wonders, animals, prices, groups")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].summary)
	}
}
