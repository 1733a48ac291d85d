package cli

import (
	"context"
	"io"
)

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" short:"c" description:"Path to config file (default: reelstats.yaml in . or ./configs)"`
	Verbose bool   `long:"verbose" short:"v" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// env is shared by every subcommand
type env struct {
	ctx     context.Context
	globals *GlobalFlags
	version string
	out     io.Writer
}

// FetchCommand downloads popular movies into the local index.
type FetchCommand struct {
	NoNotify bool `long:"no-notify" description:"Skip the Telegram summary even when enabled"`

	*env `no-flag:"true"`
}

// AnalyzeCommand scores stored movies and writes the report and plots.
type AnalyzeCommand struct {
	NoPlots  bool `long:"no-plots" description:"Skip PNG rendering"`
	Top      int  `long:"top" description:"Ranking length (overrides analysis.top_n)"`
	NoNotify bool `long:"no-notify" description:"Skip the Telegram highlights even when enabled"`

	*env `no-flag:"true"`
}

// ServeCommand runs the web dashboard.
type ServeCommand struct {
	Addr string `long:"addr" description:"Listen address (overrides dashboard.addr)"`

	*env `no-flag:"true"`
}

// StatusCommand prints index statistics.
type StatusCommand struct {
	JSON bool `long:"json" description:"Output in JSON format"`

	*env `no-flag:"true"`
}
