package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/dailyplan/dailyplan/dashboard"
	"github.com/dailyplan/dailyplan/log"
)

var ServeCmd = Serve{
	command: command{
		workdir: DEFAULT_WORKDIR,
	},
}

// Serve runs the dashboard: the page images are regenerated from the workbook on each
// page load (and every DAILYPLAN_REFRESH_INTERVAL if set) and displayed as a slideshow.
type Serve struct {
	command
	bind  string
	flags *pflag.FlagSet
}

func (cmd *Serve) Name() string {
	return "serve"
}

func (cmd *Serve) Description() string {
	return "Serves the daily plan slideshow"
}

func (cmd *Serve) Usage() string {
	return "[--workdir <dir>] [--bind <address>]"
}

func (cmd *Serve) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--env <file>] serve [options]\n", APP)
	fmt.Println()
	fmt.Println("  Renders the configured worksheet ranges to images and serves them as a slideshow that")
	fmt.Println("  cycles through the pages. The workbook source and renderer are configured from the")
	fmt.Println("  environment (or a .env file) e.g. SHAREPOINT_SITE_URL, DAILYPLAN_RENDERER, DAILYPLAN_PAGES.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println("  Examples:")
	fmt.Printf("    %s --env /etc/dailyplan/dailyplan.env serve --bind 0.0.0.0:8080\n", APP)
	fmt.Println()
}

func (cmd *Serve) FlagSet() *pflag.FlagSet {
	if cmd.flags == nil {
		cmd.flags = cmd.flagset("serve")
		cmd.flags.StringVar(&cmd.bind, "bind", cmd.bind, "HTTP bind address. Defaults to DAILYPLAN_BIND or ':8080'")
	}

	return cmd.flags
}

func (cmd *Serve) Execute(ctx context.Context, options *Options) error {
	cfg, err := cmd.configure(options, cmd.FlagSet())
	if err != nil {
		return err
	}

	if cmd.bind != "" {
		cfg.Bind = cmd.bind
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.Default(cfg.Debug)
	if err := logger.WithErrorLog(cfg.ErrorLog()); err != nil {
		return err
	}

	defer logger.Close()

	logger.Debugf("%v", cfg)

	unlock, err := dashboard.Lock(cfg.Workdir)
	if err != nil {
		return err
	}

	defer unlock()

	pages, err := dashboard.ParsePages(cfg.Pages)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	source, err := newSource(ctx, cfg, logger)
	if err != nil {
		return err
	}

	rasterizer, err := newRasterizer(cfg, logger)
	if err != nil {
		return err
	}

	builder, err := dashboard.NewBuilder(source, rasterizer, pages, cfg.ImageDir(), logger)
	if err != nil {
		return err
	}

	hub := dashboard.NewHub(logger)
	builder.Hub = hub
	builder.MaxAge = cfg.MaxAge

	server, err := dashboard.NewServer(builder, hub, cfg.SlideInterval, logger)
	if err != nil {
		return err
	}

	logger.Infof("%v: source %v, renderer %v, %v pages", APP, source.Name(), rasterizer.Name(), len(pages))

	if cfg.RefreshInterval > 0 {
		go builder.Refresh(ctx, cfg.RefreshInterval)
	}

	return server.Run(ctx, cfg.Bind, cfg.MaxConnections)
}
