// Package cli implements the storefront command line client.
package cli

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenking/merch-storefront/internal/app"
	"github.com/xenking/merch-storefront/internal/cartstore"
	"github.com/xenking/merch-storefront/internal/shopify"
	"github.com/xenking/merch-storefront/internal/storefront"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	StateFile  string
	ConfigFile string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// BackendFactory creates the commerce backend for a command run.
type BackendFactory func(opts *RootOptions, lg *zap.Logger) (storefront.Backend, error)

// NewRootCommand creates the root command backed by the Storefront API.
func NewRootCommand() *cobra.Command {
	return newRootCommand(shopifyBackend)
}

func newRootCommand(newBackend BackendFactory) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "storefront",
		Short: "Browse the merch catalog and manage a cart",
		Long: `Browse the merch catalog and manage a cart from the terminal.

Only the cart ID is kept between runs, in the state file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return errors.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.StateFile, "state", defaultStateFile(), "cart state file")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "extra YAML config file")

	e := &env{opts: opts, newBackend: newBackend}
	cmd.AddCommand(newProductsCommand(e))
	cmd.AddCommand(newProductCommand(e))
	cmd.AddCommand(newCartCommand(e))

	return cmd
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "storefront-state.yaml"
	}
	return filepath.Join(dir, "merch-storefront", "state.yaml")
}

func shopifyBackend(opts *RootOptions, _ *zap.Logger) (storefront.Backend, error) {
	var files []string
	if opts.ConfigFile != "" {
		files = append(files, opts.ConfigFile)
	}
	cfg, err := app.LoadConfig(files...)
	if err != nil {
		return nil, err
	}
	// The CLI runs on the shopper's machine: never send the private token.
	client, err := app.NewShopifyClient(cfg.Shopify, shopify.ModePublic, nil)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// env is what every command needs, built lazily so flag parsing happens
// first.
type env struct {
	opts       *RootOptions
	newBackend BackendFactory
}

// session is one command run: logger, service and the persisted cart.
type session struct {
	ctx  context.Context
	svc  *storefront.Service
	cart *cartstore.Store
	out  *OutputFormatter
	lg   *zap.Logger
}

func (e *env) session(cmd *cobra.Command) (*session, error) {
	lg := zap.NewNop()
	if e.opts.Verbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return nil, errors.Wrap(err, "create logger")
		}
		lg = dev
	}

	backend, err := e.newBackend(e.opts, lg)
	if err != nil {
		return nil, err
	}

	state, err := cartstore.LoadState(e.opts.StateFile)
	if err != nil {
		return nil, err
	}
	store := cartstore.New(state.CartID)
	cartstore.Persist(store, e.opts.StateFile, func(err error) {
		lg.Warn("Save cart state", zap.String("path", e.opts.StateFile), zap.Error(err))
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return &session{
		ctx:  zctx.Base(ctx, lg),
		svc:  storefront.NewService(backend, nil, storefront.Config{}),
		cart: store,
		out:  &OutputFormatter{Format: e.opts.Format, Writer: cmd.OutOrStdout()},
		lg:   lg,
	}, nil
}
