package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/mindgraph/pkg/server"
	"github.com/matzehuels/mindgraph/pkg/store"
)

type serveOpts struct {
	addr    string
	backend string
	dir     string
	origins []string
}

func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the mindgraph backend",
		Long: `Run the REST backend that stores the simple and link-data graphs.

The store backend defaults to the config file's [store] section; the file
backend keeps one document per graph under --dir and pushes changes made
on disk to live clients.`,
		Example: `  mindgraph serve
  mindgraph serve --addr :9000 --store memory
  mindgraph serve --store redis`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, "+server.DefaultAddr+")")
	cmd.Flags().StringVar(&opts.backend, "store", "", "store backend: memory, file, redis, mongo")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "directory for the file store")
	cmd.Flags().StringSliceVar(&opts.origins, "origin", nil, "allowed browser origin (repeatable)")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts serveOpts) error {
	ctx := cmd.Context()
	cfg := c.settings()

	sc := cfg.StoreOptions()
	if opts.backend != "" {
		sc.Backend = opts.backend
	}
	if opts.dir != "" {
		sc.Dir = opts.dir
	}
	if sc.Backend == store.BackendFile && sc.Dir == "" {
		dir, err := dataDir()
		if err != nil {
			return err
		}
		sc.Dir = dir
	}

	st, err := store.Open(ctx, sc)
	if err != nil {
		return err
	}
	defer st.Close()

	addr := opts.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	origins := opts.origins
	if len(origins) == 0 {
		origins = cfg.Server.AllowedOrigins
	}

	srv := server.New(server.Options{
		Store:          st,
		Logger:         c.Logger,
		AllowedOrigins: origins,
	})
	c.Logger.Info("mindgraph server listening", "addr", addr, "store", sc.Backend)
	if sc.Dir != "" && sc.Backend == store.BackendFile {
		c.Logger.Debug("file store", "dir", sc.Dir)
	}
	return srv.Run(ctx, addr)
}
