// Copyright 2012 Arne Roomann-Kurrik
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kurrik/covers/covers"
	"github.com/kurrik/covers/sqlstore"
	"github.com/kurrik/fauxfile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

type Args struct {
	src           string
	config        string
	content       string
	templates     string
	blockTemplate string
	db            string
	addr          string
	attributes    string
	watch         bool
	verbose       bool
}

func DefaultArgs() *Args {
	return &Args{
		src:           "src",
		config:        "site.yaml",
		content:       "content.yaml",
		templates:     "templates",
		blockTemplate: "covers.tmpl",
		addr:          "localhost:8080",
	}
}

// Builds the logger for the command line.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	return config.Build()
}

// Reads attributes from the flag value, or from in when it is "-" or empty.
func readAttributes(value string, in io.Reader) (raw covers.Raw, err error) {
	var data []byte
	if value == "" || value == "-" {
		if data, err = io.ReadAll(in); err != nil {
			return
		}
	} else {
		data = []byte(value)
	}
	raw = covers.Raw{}
	if strings.TrimSpace(string(data)) == "" {
		return
	}
	if err = json.Unmarshal(data, &raw); err != nil {
		err = fmt.Errorf("invalid attributes: %w", err)
		return
	}
	if raw == nil {
		raw = covers.Raw{}
	}
	return
}

func NewRootCommand(fs fauxfile.Filesystem, stdin io.Reader, stdout io.Writer) *cobra.Command {
	var (
		a   = DefaultArgs()
		log *zap.Logger
		app *App
	)
	root := &cobra.Command{
		Use:           "covers",
		Short:         "Resolve and render covers blocks",
		Long:          "covers resolves covers blocks (take action pages, campaigns, content) against a site and renders their markup.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.src, "source", a.src, "Path to the site directory.")
	root.PersistentFlags().StringVar(&a.config, "config", a.config, "Site configuration file, relative to the site directory.")
	root.PersistentFlags().StringVar(&a.content, "content", a.content, "Content file, relative to the site directory.")
	root.PersistentFlags().StringVar(&a.templates, "templates", a.templates, "Templates directory, relative to the site directory.")
	root.PersistentFlags().StringVar(&a.blockTemplate, "block-template", a.blockTemplate, "Name of the block template in the templates directory.")
	root.PersistentFlags().StringVar(&a.db, "db", a.db, "Read content from this SQLite database instead of the content file.")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", a.verbose, "Log debug output.")

	// Loads the site before any command that needs it.
	load := func(cmd *cobra.Command, args []string) (err error) {
		if log, err = newLogger(a.verbose); err != nil {
			return
		}
		app = NewApp(fs, a, log)
		return app.Load()
	}
	done := func(cmd *cobra.Command, args []string) error {
		log.Sync()
		return app.Close()
	}

	resolveCmd := &cobra.Command{
		Use:                "resolve",
		Short:              "Print the normalized attributes and covers as JSON",
		Args:               cobra.NoArgs,
		PersistentPreRunE:  load,
		PersistentPostRunE: done,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			var (
				raw   covers.Raw
				block *Block
			)
			if raw, err = readAttributes(a.attributes, stdin); err != nil {
				return
			}
			if block, err = app.Render(cmd.Context(), raw); err != nil {
				return
			}
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(block)
		},
	}
	resolveCmd.Flags().StringVar(&a.attributes, "attributes", "", "Block attributes as JSON; read from stdin if empty or -.")

	renderCmd := &cobra.Command{
		Use:                "render",
		Short:              "Print the block markup",
		Args:               cobra.NoArgs,
		PersistentPreRunE:  load,
		PersistentPostRunE: done,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			var (
				raw covers.Raw
				out string
			)
			if raw, err = readAttributes(a.attributes, stdin); err != nil {
				return
			}
			if out, err = app.RenderMarkup(cmd.Context(), raw); err != nil {
				return
			}
			_, err = fmt.Fprintln(stdout, out)
			return
		},
	}
	renderCmd.Flags().StringVar(&a.attributes, "attributes", "", "Block attributes as JSON; read from stdin if empty or -.")

	serveCmd := &cobra.Command{
		Use:                "serve",
		Short:              "Serve covers over HTTP",
		Args:               cobra.NoArgs,
		PersistentPreRunE:  load,
		PersistentPostRunE: done,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return Serve(ctx, app)
			})
			if a.watch {
				g.Go(func() error {
					return Watch(ctx, app, a.src)
				})
			}
			return g.Wait()
		},
	}
	serveCmd.Flags().StringVar(&a.addr, "addr", a.addr, "Address to listen on.")
	serveCmd.Flags().BoolVar(&a.watch, "watch", a.watch, "Reload the site when files under the site directory change.")

	importCmd := &cobra.Command{
		Use:   "import DATABASE",
		Short: "Copy the site content into a SQLite database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			var db *sqlstore.Store
			if log, err = newLogger(a.verbose); err != nil {
				return
			}
			defer log.Sync()
			a.db = ""
			app = NewApp(fs, a, log)
			site, err := app.parseSiteMeta()
			if err != nil {
				return
			}
			mem, err := app.parseContent(site)
			if err != nil {
				return
			}
			if db, err = sqlstore.Open(args[0]); err != nil {
				return
			}
			defer db.Close()
			dataset := mem.Dataset()
			if err = db.Import(cmd.Context(), dataset); err != nil {
				return
			}
			log.Info("Imported site",
				zap.String("db", args[0]),
				zap.Int("posts", len(dataset.Posts)),
				zap.Int("terms", len(dataset.Terms)))
			return
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "covers %s\n", version)
		},
	}

	root.AddCommand(resolveCmd, renderCmd, serveCmd, importCmd, versionCmd)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd := NewRootCommand(&fauxfile.RealFilesystem{}, os.Stdin, os.Stdout)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
