package cli

import (
	"github.com/rewired-gh/reelstats/internal/dashboard"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	srv, err := dashboard.New(dashboard.Options{
		Store:      store,
		ResultsDir: cfg.Analysis.ResultsDir,
		PlotsDir:   cfg.PlotsPath(),
		PageSize:   cfg.Dashboard.PageSize,
		Version:    c.version,

		MinKeywordMovies: cfg.Analysis.MinKeywordMovies,
	})
	if err != nil {
		return err
	}

	addr := cfg.Dashboard.Addr
	if c.Addr != "" {
		addr = c.Addr
	}
	return srv.ListenAndServe(c.ctx, addr)
}
