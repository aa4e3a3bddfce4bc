package cli

import (
	"fmt"
	"io"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/merch-storefront/internal/domain/catalog"
	"github.com/xenking/merch-storefront/internal/selection"
)

type productsOptions struct {
	limit      int
	collection string
}

func newProductsCommand(e *env) *cobra.Command {
	opts := &productsOptions{}

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List catalog products",
		Long: `List catalog products with their card price.

An unreachable or invalid catalog prints an empty listing.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := e.session(cmd)
			if err != nil {
				return err
			}
			products := s.svc.ListProducts(s.ctx, opts.limit, opts.collection)
			return s.out.Print(products, func(w io.Writer) {
				if len(products) == 0 {
					_, _ = fmt.Fprintln(w, "No products.")
					return
				}
				_, _ = fmt.Fprintln(w, "HANDLE\tTITLE\tPRICE")
				for _, p := range products {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p.Handle, p.Title, p.CardPrice())
				}
			})
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", 0, "number of products (default: configured page size)")
	cmd.Flags().StringVar(&opts.collection, "collection", catalog.AllCollections, "collection title filter")

	return cmd
}

type productOptions struct {
	color string
	size  string
}

func newProductCommand(e *env) *cobra.Command {
	opts := &productOptions{}

	cmd := &cobra.Command{
		Use:   "product <handle>",
		Short: "Show a product page",
		Long: `Show a product page for the given handle.

Without --color and --size the page opens on the first available variant.`,
		Example: `  storefront product classic-tee
  storefront product classic-tee --color Blue --size M`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.session(cmd)
			if err != nil {
				return err
			}

			var sel *selection.Selection
			if cmd.Flags().Changed("color") || cmd.Flags().Changed("size") {
				sel = &selection.Selection{Color: opts.color, Size: opts.size}
			}

			page, err := s.svc.ProductPage(s.ctx, args[0], sel)
			if err != nil {
				return errors.Wrapf(err, "product %q", args[0])
			}
			return s.out.Print(page, func(w io.Writer) { printPage(w, page) })
		},
	}

	cmd.Flags().StringVar(&opts.color, "color", "", "selected color")
	cmd.Flags().StringVar(&opts.size, "size", "", "selected size")

	return cmd
}

func printPage(w io.Writer, page selection.Page) {
	p := page.Product
	_, _ = fmt.Fprintf(w, "Title:\t%s\n", p.Title)
	if len(p.Colors) > 0 {
		_, _ = fmt.Fprintf(w, "Colors:\t%v\n", p.Colors)
	}
	if len(p.Sizes) > 0 {
		_, _ = fmt.Fprintf(w, "Sizes:\t%v\n", p.Sizes)
	}
	_, _ = fmt.Fprintf(w, "Selected:\tcolor=%q size=%q\n", page.Selection.Color, page.Selection.Size)
	if page.Variant != nil {
		_, _ = fmt.Fprintf(w, "Variant:\t%s\n", page.Variant.ID)
	}
	_, _ = fmt.Fprintf(w, "Price:\t%s\n", page.Price)
	status := string(page.Status)
	if page.Label != "" {
		status = page.Label
	}
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", status)
}
