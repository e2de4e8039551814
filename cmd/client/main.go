package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/daylog/internal/client/cli"
	"github.com/dmitrijs2005/daylog/internal/client/config"
)

var Version = "dev"

// Configuration flags (-m, -a, -c, ...) are parsed by config.LoadConfig from
// os.Args, so cobra only routes subcommands.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:                "daylog",
		Short:              "daylog - a daily journal with summaries and monthly reviews",
		Version:            Version,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := cli.NewApp(cmd.Context(), config.LoadConfig())
			if err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}

	rootCmd.AddCommand(
		oneShot("show [date]", "Print the entry for a date (default today)"),
		oneShot("month [YYYY-MM]", "List the entries of a month"),
		oneShot("review [YYYY-MM]", "Print or generate the monthly review"),
		oneShot("keywords [YYYY-MM]", "Print the keywords of a month"),
		oneShot("year [YYYY]", "List the days with entries in a year"),
		oneShot("export <file>", "Write all entries and reviews to a file"),
		oneShot("import <file|url>", "Load entries and reviews from a file or URL"),
		oneShot("backup", "Store an export in object storage (remote mode)"),
		versionCmd(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", cli.Describe(err))
		os.Exit(1)
	}
}

// oneShot runs a single REPL command against the saved session and exits.
func oneShot(use, short string) *cobra.Command {
	return &cobra.Command{
		Use:                use,
		Short:              short,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := cli.NewApp(ctx, config.LoadConfig())
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Start(ctx); err != nil {
				return err
			}
			return app.Exec(ctx, cmd.Name(), config.Positional(args))
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "daylog", Version)
		},
	}
}
