package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dailyplan/dailyplan/commands"
)

var cli = []commands.Command{
	&commands.VersionCmd,
	&commands.ServeCmd,
	&commands.RenderCmd,
	&commands.GetCmd,
	&commands.AuthoriseCmd,
}

var options = commands.Options{
	Debug: false,
	Env:   "",
}

func main() {
	root := &cobra.Command{
		Use:           commands.APP,
		Short:         "Displays the daily shift plan from a shared workbook as a slideshow",
		Version:       commands.VERSION,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&options.Debug, "debug", options.Debug, "Enable debugging information")
	root.PersistentFlags().StringVar(&options.Env, "env", options.Env, "Optional .env file with the configuration. Defaults to ./.env")

	for _, c := range cli {
		root.AddCommand(commands.Cobra(c, &options))
	}

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "\nERROR: %v\n\n", err)
		os.Exit(1)
	}
}
