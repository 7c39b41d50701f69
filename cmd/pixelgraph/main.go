// Command pixelgraph serves an agent graph as a pixel-art game.
//
// Without an API key it runs in demo mode and plays a scripted simulation.
//
//	OPENAI_API_KEY=sk-... pixelgraph --port 8000 --static ./frontend/dist
//	pixelgraph --demo --store sqlite --dsn events.db
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/smallnest/pixelgraph/arcade"
	"github.com/smallnest/pixelgraph/config"
	"github.com/smallnest/pixelgraph/log"
	"github.com/smallnest/pixelgraph/server"
	"github.com/smallnest/pixelgraph/store"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type flags struct {
	configPath string
	envFile    string
	host       string
	port       int
	demo       bool
	staticDir  string
	storeName  string
	dsn        string
	logLevel   string
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (*flags, *pflag.FlagSet, error) {
	f := &flags{}
	fs := pflag.NewFlagSet("pixelgraph", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&f.configPath, "config", "c", "", "path to a YAML config file")
	fs.StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	fs.StringVar(&f.host, "host", "", "listen host (default 0.0.0.0)")
	fs.IntVarP(&f.port, "port", "p", 0, "listen port (default 8000)")
	fs.BoolVar(&f.demo, "demo", false, "force demo mode")
	fs.StringVar(&f.staticDir, "static", "", "directory with the front end build")
	fs.StringVar(&f.storeName, "store", "", "event store: memory, sqlite, redis or postgres")
	fs.StringVar(&f.dsn, "dsn", "", "event store DSN (file path, redis:// URL or postgres connection string)")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn, error or none")
	fs.BoolVarP(&f.version, "version", "v", false, "print the version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pixelgraph [flags]\n\n%s", fs.FlagUsages())
	}
	return f, fs, fs.Parse(args)
}

// loadConfig layers the config file, the environment and the flags.
func loadConfig(f *flags, fs *pflag.FlagSet) (*config.Config, error) {
	if err := config.LoadDotEnv(!fs.Changed("env-file"), f.envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if fs.Changed("host") {
		cfg.Server.Host = f.host
	}
	if fs.Changed("port") {
		cfg.Server.Port = f.port
	}
	if fs.Changed("demo") {
		cfg.Server.Demo = f.demo
	}
	if fs.Changed("static") {
		cfg.Server.StaticDir = f.staticDir
	}
	if fs.Changed("store") {
		cfg.Store.Driver = f.storeName
	}
	if fs.Changed("dsn") {
		cfg.Store.DSN = f.dsn
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newServer builds the game server and its event store. The caller closes both.
func newServer(ctx context.Context, cfg *config.Config, logger log.Logger, stderr io.Writer) (*server.GameServer, store.EventStore, error) {
	var runner arcade.Runner
	opts := []server.Option{
		server.WithLogger(log.Named(logger, "server")),
		server.WithStaticDir(cfg.Server.StaticDir),
		server.WithDemoDelay(cfg.Server.DemoDelay),
		server.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
	}

	switch err := cfg.CheckLLM(); {
	case errors.Is(err, config.ErrMissingAPIKey):
		fmt.Fprintln(stderr, "Warning: OPENAI_API_KEY not set. Running in demo mode.")
	case errors.Is(err, config.ErrDemoForced):
		logger.Info("demo mode requested")
	default:
		model, err := newModel(cfg.LLM)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot initialise the %s LLM provider: %w", cfg.LLM.Provider, err)
		}
		gr, err := newChatbotRunner(model, cfg.LLM, log.Named(logger, "runner"))
		if err != nil {
			return nil, nil, err
		}
		runner = gr
		opts = append(opts, server.WithGraph(gr.Graph().GetGraph()))
	}

	es, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open the %s event store: %w", cfg.Store.Driver, err)
	}
	opts = append(opts, server.WithStore(es))

	return server.NewGameServer(runner, cfg.Visual, opts...), es, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	f, fs, err := parseFlags(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}
	if f.version {
		fmt.Fprintln(stdout, "pixelgraph", version)
		return 0
	}

	cfg, err := loadConfig(f, fs)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	level, err := log.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger := log.NewGologLoggerWithLevel(level)
	log.SetDefaultLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, es, err := newServer(ctx, cfg, logger, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintln(stderr, "Check the llm and store sections of your config, or run with --demo --store memory.")
		return 1
	}
	defer es.Close()

	fmt.Fprintln(stdout, arcade.Banner(srv.Title(), cfg.Addr(), srv.Mode()))

	if err := srv.ListenAndServe(ctx, cfg.Addr()); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
