package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/dailyplan/dailyplan/log"
	"github.com/dailyplan/dailyplan/workbook"
)

var GetCmd = Get{
	command: command{
		workdir: DEFAULT_WORKDIR,
	},

	area: "",
	file: "",
}

type Get struct {
	command
	area  string
	file  string
	flags *pflag.FlagSet
}

func (cmd *Get) Name() string {
	return "get"
}

func (cmd *Get) Description() string {
	return "Retrieves the workbook from the configured source and stores it to a local file"
}

func (cmd *Get) Usage() string {
	return "[--range <range>] [--file <file>]"
}

func (cmd *Get) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--env <file>] get [options] [--range <range>] [--file <file>]\n", APP)
	fmt.Println()
	fmt.Println("  Downloads the workbook. With --range the worksheet range is stored as a TSV file.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println("  Examples:")
	fmt.Printf("    %s --debug get --file plan.xlsm\n", APP)
	fmt.Printf("    %s get --range 'Morning!A1:H33' --file morning.tsv\n", APP)
	fmt.Println()
}

func (cmd *Get) FlagSet() *pflag.FlagSet {
	if cmd.flags == nil {
		cmd.flags = cmd.flagset("get")
		cmd.flags.StringVar(&cmd.area, "range", cmd.area, "Worksheet range e.g. 'Morning!A1:H33'")
		cmd.flags.StringVar(&cmd.file, "file", cmd.file, "File name. Defaults to '<yyyy-mm-ddTHHmmss>.<ext>'")
	}

	return cmd.flags
}

func (cmd *Get) Execute(ctx context.Context, options *Options) error {
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

	logger.Debugf("fetching workbook from %v", source.Name())

	wb, err := source.Fetch(ctx)
	if err != nil {
		return err
	}

	var b bytes.Buffer
	var file = cmd.file

	if strings.TrimSpace(cmd.area) == "" {
		document, err := wb.Document()
		if err != nil {
			return err
		}

		b.Write(document)

		if file == "" {
			file = time.Now().Format("2006-01-02T150405") + wb.DocumentExt()
		}
	} else {
		name, rng, err := workbook.ParseAddress(cmd.area)
		if err != nil {
			return err
		}

		sheet, err := wb.Sheet(name)
		if err != nil {
			return err
		}

		if err := workbook.WriteTSV(&b, sheet, rng); err != nil {
			return fmt.Errorf("error creating TSV file (%v)", err)
		}

		if file == "" {
			file = time.Now().Format("2006-01-02T150405.tsv")
		}
	}

	if err := save(file, b.Bytes()); err != nil {
		return err
	}

	logger.Infof("retrieved workbook %v (version %q) to file %s", wb.Name, wb.Version, file)

	return nil
}

func save(file string, data []byte) error {
	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".dailyplan-*")
	if err != nil {
		return err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), file)
}
