package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

// Version is set at build time
var Version = "dev"

func main() {
	app := &cli.App{
		Name:                   "quickgrep",
		Usage:                  "Interactive ripgrep search with live preview",
		UsageText:              "quickgrep [flags] [initial query]",
		Version:                Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Directory to search (defaults to the current directory)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (defaults to ./" + configFileHint + " then the user config)",
			},
			&cli.BoolFlag{
				Name:  "git-root",
				Usage: "Search from the root of the enclosing git repository",
			},
			&cli.StringFlag{
				Name:  "rg",
				Usage: "Matcher executable",
			},
			&cli.StringFlag{
				Name:  "rg-args",
				Usage: "Extra matcher flags, shell quoted (e.g. --rg-args \"--hidden -g '!*.min.js'\")",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude paths matching glob patterns (e.g. --exclude 'vendor/**' --exclude '*.pb.go')",
			},
			&cli.BoolFlag{
				Name:    "print",
				Aliases: []string{"p"},
				Usage:   "Print path:line:col of the chosen match instead of opening it",
			},
			&cli.BoolFlag{
				Name:  "write-config",
				Usage: "Write the config (file values plus matcher flags) to the config file and exit",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log file path",
				Value: defaultLogPath(),
			},
		},
		Action: func(c *cli.Context) error {
			return run(c, strings.Join(c.Args().Slice(), " "))
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
