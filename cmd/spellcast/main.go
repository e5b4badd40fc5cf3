// Command spellcast runs the casting pipeline headless: it replays gesture
// scripts or synthetic gestures through a draw session and serves the
// operational HTTP surface.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/spellcast/internal/adapters/http/api"
	app "github.com/okian/spellcast/internal/app"
	"github.com/okian/spellcast/internal/config"
	"github.com/okian/spellcast/internal/replay"
	"github.com/okian/spellcast/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// Replay defaults.
const (
	defaultSynthetic    = 20
	defaultSettleFrames = 30
)

// errGesturesFailed reports a replay in which some gesture missed its expectation.
var errGesturesFailed = errors.New("gestures failed expectations")

type options struct {
	script    string
	synthetic int
	seed      int64
	save      string
	serve     bool
	tick      time.Duration
}

func parseFlags(args []string, output io.Writer) (options, error) {
	fs := flag.NewFlagSet("spellcast", flag.ContinueOnError)
	fs.SetOutput(output)

	var o options
	fs.StringVar(&o.script, "script", "", "YAML gesture script to replay (default: synthetic gestures)")
	fs.IntVar(&o.synthetic, "synthetic", defaultSynthetic, "Number of synthetic gestures when no script is given")
	fs.Int64Var(&o.seed, "seed", 0, "Seed for synthetic gestures (0: time-based)")
	fs.StringVar(&o.save, "save", "", "Write the replayed gestures to this YAML file")
	fs.BoolVar(&o.serve, "serve", false, "Keep serving HTTP after the replay until interrupted")
	fs.DurationVar(&o.tick, "tick", 0, "Frame time override (default: script tick or 16ms)")

	if err := fs.Parse(args); err != nil {
		return o, fmt.Errorf("parse flags: %w", err)
	}
	if o.synthetic < 0 {
		return o, fmt.Errorf("parse flags: -synthetic must not be negative")
	}
	return o, nil
}

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(ctx, cfg, opts); err != nil {
		logger.Get().Error(ctx, "spellcast failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options) error {
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := app.New(
		app.WithConfig(cfg),
		app.WithLogger(log),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	srv := startHTTP(ctx, cfg.MetricsAddr, svc)

	runErr := replayGestures(ctx, svc, opts)

	if opts.serve && runErr == nil {
		log.Info(ctx, "replay done; serving until interrupted")
		<-ctx.Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service shutdown failed", logger.Error(err))
	}
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "server shutdown failed", logger.Error(err))
		}
	}

	stats := svc.GetStats()
	log.Info(ctx, "spellcast stopped",
		logger.Any("dispatched", stats["dispatched"]),
		logger.Any("spawned", stats["spawned"]),
		logger.Any("dropped", stats["dropped"]),
	)
	return runErr
}

func startHTTP(ctx context.Context, addr string, svc *app.Service) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		logger.Get().Info(ctx, "starting HTTP server", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Get().Error(ctx, "HTTP server failed", logger.Error(err))
		}
	}()
	return srv
}

func replayGestures(ctx context.Context, svc *app.Service, opts options) error {
	script, err := loadGestures(opts)
	if err != nil {
		return err
	}
	if opts.save != "" {
		if err := replay.SaveScript(opts.save, script); err != nil {
			logger.Get().Warn(ctx, "failed to save gestures", logger.String("path", opts.save), logger.Error(err))
		}
	}

	machine, err := svc.Machine()
	if err != nil {
		return fmt.Errorf("draw session: %w", err)
	}

	tick := script.Tick
	if opts.tick > 0 {
		tick = opts.tick
	}
	runner := replay.NewRunner(machine,
		replay.WithTick(tick),
		replay.WithSettleFrames(defaultSettleFrames),
		replay.WithLogger(logger.Get().Named("replay")),
	)

	rep, err := runner.Run(ctx, script.Gestures)
	if err != nil {
		return fmt.Errorf("replay %s: %w", script.Name, err)
	}

	logger.Get().Info(ctx, "replay report",
		logger.String("script", script.Name),
		logger.Int("played", rep.Played),
		logger.Int("cast", rep.Cast),
		logger.Int("glitched", rep.Glitched),
		logger.Int("fallback", rep.Fallback),
		logger.Any("by_spell", rep.BySpell),
		logger.Any("by_shape", rep.ByShape),
	)
	if !rep.Passed() {
		return fmt.Errorf("%w: %d of %d", errGesturesFailed, len(rep.Failed), rep.Played)
	}
	return nil
}

func loadGestures(opts options) (*replay.Script, error) {
	if opts.script != "" {
		s, err := replay.LoadScript(opts.script)
		if err != nil {
			return nil, fmt.Errorf("load script: %w", err)
		}
		return s, nil
	}
	gen := replay.NewGenerator(opts.seed)
	return &replay.Script{
		Name:     "synthetic",
		Tick:     replay.DefaultTick,
		Gestures: gen.Batch(opts.synthetic),
	}, nil
}
