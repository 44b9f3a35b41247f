package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/dailyplan/dailyplan/log"
	"github.com/dailyplan/dailyplan/workbook"
)

var RenderCmd = Render{
	command: command{
		workdir: DEFAULT_WORKDIR,
	},
}

// Render fetches the workbook once and renders a single range to a PNG file.
type Render struct {
	command
	area  string
	file  string
	flags *pflag.FlagSet
}

func (cmd *Render) Name() string {
	return "render"
}

func (cmd *Render) Description() string {
	return "Renders a worksheet range to a PNG image"
}

func (cmd *Render) Usage() string {
	return "--range <range> --file <file>"
}

func (cmd *Render) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--env <file>] render [options] --range <range> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Fetches the configured workbook and renders a worksheet range to a PNG file with the")
	fmt.Println("  configured renderer")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println("  Examples:")
	fmt.Printf("    %s render --range 'Morning!A1:H33' --file morning.png\n", APP)
	fmt.Println()
}

func (cmd *Render) FlagSet() *pflag.FlagSet {
	if cmd.flags == nil {
		cmd.flags = cmd.flagset("render")
		cmd.flags.StringVar(&cmd.area, "range", cmd.area, "Worksheet range e.g. 'Morning!A1:H33'")
		cmd.flags.StringVar(&cmd.file, "file", cmd.file, "PNG file name")
	}

	return cmd.flags
}

func (cmd *Render) Execute(ctx context.Context, options *Options) error {
	if strings.TrimSpace(cmd.area) == "" {
		return fmt.Errorf("--range is a required option")
	}

	if strings.TrimSpace(cmd.file) == "" {
		return fmt.Errorf("--file is a required option")
	}

	sheet, rng, err := workbook.ParseAddress(cmd.area)
	if err != nil {
		return err
	}

	cfg, err := cmd.configure(options, cmd.FlagSet())
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.Default(cfg.Debug)

	source, err := newSource(ctx, cfg, logger)
	if err != nil {
		return err
	}

	rasterizer, err := newRasterizer(cfg, logger)
	if err != nil {
		return err
	}

	wb, err := source.Fetch(ctx)
	if err != nil {
		return err
	}

	if err := rasterizer.Render(ctx, wb, sheet, rng.String(), cmd.file); err != nil {
		return err
	}

	logger.Infof("rendered %v to %v", workbook.FormatAddress(sheet, rng), cmd.file)

	return nil
}
