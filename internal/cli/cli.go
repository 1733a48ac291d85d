// Package cli implements the reelstats command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Fetch   *FetchCommand
	Analyze *AnalyzeCommand
	Serve   *ServeCommand
	Status  *StatusCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(ctx context.Context, version string, out io.Writer) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags
	e := &env{ctx: ctx, globals: &globals, version: version, out: out}

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "reelstats"
	parser.LongDescription = "Fetch popular movies from Trakt and TMDB, score them and browse the results."

	cmds := &commands{
		Fetch:   &FetchCommand{env: e},
		Analyze: &AnalyzeCommand{env: e},
		Serve:   &ServeCommand{env: e},
		Status:  &StatusCommand{env: e},
	}

	_, _ = parser.AddCommand("fetch", "Fetch popular movies", "Walk Trakt's popular movies year by year and store every title not yet indexed.", cmds.Fetch)
	_, _ = parser.AddCommand("analyze", "Analyze stored movies", "Score every stored movie and write the JSON report and PNG plots.", cmds.Analyze)
	_, _ = parser.AddCommand("serve", "Run the web dashboard", "Serve the popularity, genre and analysis pages until interrupted.", cmds.Serve)
	_, _ = parser.AddCommand("status", "Show index statistics", "Show the number of stored movies, the last fetch run and the per-year page cursor.", cmds.Status)

	return parser, &globals, cmds
}

// Run is the main entry point using os.Args.
func Run(ctx context.Context, version string) error {
	return RunWithArgs(ctx, version, nil, os.Stdout)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(ctx context.Context, version string, args []string, out io.Writer) error {
	// --version is valid without a subcommand
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Fprintf(out, "reelstats %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(ctx, version, out)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		var flagsErr *goflags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == goflags.ErrHelp {
			return nil
		}
		return err
	}
	return nil
}
