package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"google.golang.org/api/option"

	"github.com/dailyplan/dailyplan/acquire"
	"github.com/dailyplan/dailyplan/config"
	"github.com/dailyplan/dailyplan/log"
	"github.com/dailyplan/dailyplan/raster"
)

const APP = "dailyplan"

// Options holds the global command line options.
type Options struct {
	Debug bool
	Env   string
}

// Command is implemented by the dailyplan subcommands.
type Command interface {
	Name() string
	Description() string
	Usage() string
	Help()
	FlagSet() *pflag.FlagSet
	Execute(ctx context.Context, options *Options) error
}

// Cobra wraps a Command as a cobra subcommand.
func Cobra(c Command, options *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   strings.TrimSpace(c.Name() + " " + c.Usage()),
		Short: c.Description(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return c.Execute(cmd.Context(), options)
		},
	}

	cmd.Flags().AddFlagSet(c.FlagSet())
	cmd.SetHelpFunc(func(*cobra.Command, []string) {
		c.Help()
	})

	return cmd
}

type command struct {
	workdir string
}

func (c *command) flagset(name string) *pflag.FlagSet {
	flagset := pflag.NewFlagSet(name, pflag.ContinueOnError)

	flagset.StringVar(&c.workdir, "workdir", c.workdir, "Directory for working files (images, tokens, logs)")

	return flagset
}

// configure loads the configuration from the environment and the optional .env file. An
// explicit --workdir overrides DAILYPLAN_WORKDIR.
func (c *command) configure(options *Options, flags *pflag.FlagSet) (*config.Config, error) {
	cfg := config.New(c.workdir)
	if err := cfg.Load(options.Env); err != nil {
		return nil, err
	}

	if flags != nil && flags.Changed("workdir") {
		cfg.Workdir = c.workdir
	}

	cfg.Debug = cfg.Debug || options.Debug

	return cfg, nil
}

func helpOptions(flagset *pflag.FlagSet) {
	count := 0
	flagset.VisitAll(func(f *pflag.Flag) {
		count++
	})

	if count > 0 {
		fmt.Println("  Options:")
		fmt.Println()
		fmt.Println(flagset.FlagUsages())
	}
}

func tokens(cfg *config.Config) string {
	if cfg.Google.Tokens != "" {
		return cfg.Google.Tokens
	}

	return acquire.TokenFile(cfg.GoogleCredentials(), filepath.Join(cfg.Workdir, ".google"))
}

// newSource returns the workbook source selected by DAILYPLAN_SOURCE.
func newSource(ctx context.Context, cfg *config.Config, logger *log.Logger) (acquire.Source, error) {
	switch cfg.Source {
	case config.SourceSharePoint:
		client, err := acquire.SharePointClient(ctx, cfg.SharePoint.SiteURL, acquire.SharePointCredentials{
			TenantID:     cfg.SharePoint.TenantID,
			ClientID:     cfg.SharePoint.ClientID,
			ClientSecret: cfg.SharePoint.ClientSecret,
			Username:     cfg.SharePoint.Username,
			Password:     cfg.SharePoint.Password,
		})
		if err != nil {
			return nil, err
		}

		return acquire.NewSharePoint(cfg.SharePoint.SiteURL, cfg.SharePoint.FileURL, cfg.Password, client, logger)

	case config.SourceDrive:
		id, err := acquire.DriveFileID(cfg.Google.FileURL)
		if err != nil {
			return nil, err
		}

		client, err := acquire.GoogleClient(ctx, cfg.GoogleCredentials(), tokens(cfg), acquire.DRIVE)
		if err != nil {
			return nil, fmt.Errorf("authentication/authorization error (%v)", err)
		}

		return acquire.NewGoogleDrive(ctx, id, cfg.Password, logger, option.WithHTTPClient(client))

	case config.SourceSheets:
		id, err := acquire.DriveFileID(cfg.Google.FileURL)
		if err != nil {
			return nil, err
		}

		client, err := acquire.GoogleClient(ctx, cfg.GoogleCredentials(), tokens(cfg), acquire.SHEETS, acquire.DRIVE)
		if err != nil {
			return nil, fmt.Errorf("authentication/authorization error (%v)", err)
		}

		return acquire.NewGoogleSheets(ctx, id, logger, option.WithHTTPClient(client))

	case config.SourceFile:
		return &acquire.File{Path: cfg.File.Path, Password: cfg.Password}, nil

	default:
		return nil, fmt.Errorf("invalid source %q", cfg.Source)
	}
}

// newRasterizer returns the renderer selected by DAILYPLAN_RENDERER.
func newRasterizer(cfg *config.Config, logger *log.Logger) (raster.Rasterizer, error) {
	switch cfg.Renderer {
	case config.RendererGrid:
		return raster.NewGrid(raster.DefaultOptions(), logger), nil

	case config.RendererExec:
		return raster.NewExec(cfg.SnapshotCommand, cfg.SnapshotTimeout, logger)

	case config.RendererService:
		return raster.NewService(cfg.RenderURL, cfg.RenderKey, nil, logger)

	default:
		return nil, fmt.Errorf("invalid renderer %q", cfg.Renderer)
	}
}
