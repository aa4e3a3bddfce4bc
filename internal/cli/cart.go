package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenking/merch-storefront/internal/domain/catalog"
	"github.com/xenking/merch-storefront/internal/selection"
	"github.com/xenking/merch-storefront/internal/storefront"
)

func newCartCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the cart",
		Long: `Show and change the cart.

The cart lives on the store; only its ID is kept in the state file.`,
	}

	cmd.AddCommand(newCartShowCommand(e))
	cmd.AddCommand(newCartAddCommand(e))
	cmd.AddCommand(newCartRemoveCommand(e))
	cmd.AddCommand(newCartClearCommand(e))

	return cmd
}

func newCartShowCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Show the current cart",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := e.session(cmd)
			if err != nil {
				return err
			}

			id := s.cart.CartID()
			c, err := s.svc.Cart(s.ctx, id)
			if err != nil {
				return err
			}
			if c == nil && id != "" {
				s.lg.Info("Stored cart no longer exists", zap.String("cart_id", id))
				s.cart.Clear()
			} else {
				s.cart.Set(c)
			}
			return s.printCart()
		},
	}
}

func newCartAddCommand(e *env) *cobra.Command {
	var quantity string

	cmd := &cobra.Command{
		Use:   "add <merchandise-id>",
		Short: "Add a variant to the cart",
		Long: `Add a variant to the cart, creating the cart on first use.

The quantity is clamped to the allowed range; unparsable input counts as 1.`,
		Example:       `  storefront cart add gid://shopify/ProductVariant/11 --quantity 2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.session(cmd)
			if err != nil {
				return err
			}

			c, err := s.svc.AddToBasket(s.ctx, storefront.AddToBasket{
				CartID:        s.cart.CartID(),
				MerchandiseID: args[0],
				Quantity:      selection.ClampQuantity(quantity),
			})
			if err != nil {
				return err
			}
			s.cart.Set(c)
			return s.printCart()
		},
	}

	cmd.Flags().StringVarP(&quantity, "quantity", "q", "1", "quantity to add")

	return cmd
}

func newCartRemoveCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:           "remove <line-id>...",
		Short:         "Remove lines from the cart",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.session(cmd)
			if err != nil {
				return err
			}

			c, err := s.svc.RemoveLines(s.ctx, s.cart.CartID(), args)
			if err != nil {
				return err
			}
			s.cart.Set(c)
			return s.printCart()
		},
	}
}

func newCartClearCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:           "clear",
		Short:         "Forget the stored cart",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := e.session(cmd)
			if err != nil {
				return err
			}
			s.cart.Clear()
			return s.printCart()
		},
	}
}

type cartOutput struct {
	Cart *catalog.Cart `json:"cart"`
}

func (s *session) printCart() error {
	c := s.cart.Cart()
	return s.out.Print(cartOutput{Cart: c}, func(w io.Writer) {
		if c == nil {
			_, _ = fmt.Fprintln(w, "Cart is empty.")
			return
		}
		_, _ = fmt.Fprintf(w, "Cart %s (%d items)\n", c.ID, c.TotalQuantity)
		_, _ = fmt.Fprintln(w, "LINE\tITEM\tQTY\tTOTAL")
		for _, l := range c.Lines {
			item := l.Merchandise.Product.Title
			if l.Merchandise.Title != "" {
				item += " / " + l.Merchandise.Title
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", l.ID, item, l.Quantity, l.Cost.TotalAmount.Format())
		}
		_, _ = fmt.Fprintf(w, "Subtotal:\t%s %s\n", c.Cost.SubtotalAmount.Format(), c.Cost.SubtotalAmount.CurrencyCode)
		if c.CheckoutURL != "" {
			_, _ = fmt.Fprintf(w, "Checkout:\t%s\n", c.CheckoutURL)
		}
	})
}
