package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

type ShippingOption string

const (
	ShippingStandard  ShippingOption = "standard"
	ShippingExpress   ShippingOption = "express"
	ShippingOvernight ShippingOption = "overnight"
)

var shippingPrices = map[ShippingOption]decimal.Decimal{
	ShippingStandard:  MustMoney("9.99"),
	ShippingExpress:   MustMoney("19.99"),
	ShippingOvernight: MustMoney("29.99"),
}

// ShippingPrice looks up the server-side price of a shipping option.
func ShippingPrice(o ShippingOption) (decimal.Decimal, bool) {
	p, ok := shippingPrices[o]
	return p, ok
}

// DiscountCode is the only code the store recognises. It takes a flat
// amount off, never more than the subtotal.
const DiscountCode = "SAVE10"

var discountFlat = MustMoney("10.00")

type CheckoutStep string

const (
	StepCart    CheckoutStep = "cart"
	StepPayment CheckoutStep = "payment"
)

// CartItem is one cart line. Lines are identified by product, size and
// color together.
type CartItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
}

// LineID builds the identity of a cart line.
func LineID(productID, size, color string) string {
	return strings.Join([]string{productID, size, color}, ":")
}

// Cart is the server-side checkout state of one user. Every mutation is a
// value-in, value-out reducer: a rejected mutation returns the error and
// leaves the receiver untouched. Subtotal, DiscountAmount and Total are
// derived and recomputed after each reducer.
type Cart struct {
	UserID          string          `json:"user_id"`
	Items           []CartItem      `json:"items"`
	ShippingOption  ShippingOption  `json:"shipping_option,omitempty"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	DiscountCode    string          `json:"discount_code,omitempty"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Total           decimal.Decimal `json:"total"`
	ShippingAddress *Address        `json:"shipping_address,omitempty"`
	BillingAddress  *Address        `json:"billing_address,omitempty"`
	Step            CheckoutStep    `json:"step"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewCart returns the empty cart for a user.
func NewCart(userID string) Cart {
	return Cart{UserID: userID, Items: []CartItem{}, Step: StepCart}.recalc()
}

func (c Cart) clone() Cart {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	c.Items = items
	if c.ShippingAddress != nil {
		a := *c.ShippingAddress
		c.ShippingAddress = &a
	}
	if c.BillingAddress != nil {
		a := *c.BillingAddress
		c.BillingAddress = &a
	}
	return c
}

func (c Cart) recalc() Cart {
	subtotal := decimal.Zero
	for _, it := range c.Items {
		subtotal = subtotal.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	c.Subtotal = Money(subtotal)

	c.DiscountAmount = decimal.Zero
	if c.DiscountCode != "" {
		c.DiscountAmount = decimal.Min(discountFlat, c.Subtotal)
	}
	c.Total = Money(c.Subtotal.Add(c.ShippingCost).Sub(c.DiscountAmount))
	if c.Step == "" {
		c.Step = StepCart
	}
	return c
}

func (c Cart) indexOf(lineID string) int {
	for i, it := range c.Items {
		if it.ID == lineID {
			return i
		}
	}
	return -1
}

// Item returns the line with the given id.
func (c Cart) Item(lineID string) (CartItem, bool) {
	if i := c.indexOf(lineID); i >= 0 {
		return c.Items[i], true
	}
	return CartItem{}, false
}

// ItemCount returns the total number of units in the cart.
func (c Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// AddItem adds qty units of a product snapshot. Adding a line that already
// exists bumps its quantity.
func (c Cart) AddItem(p Product, qty int, size, color string) (Cart, error) {
	if qty < 1 {
		return c, invalid("quantity must be at least 1")
	}
	if p.ID == "" {
		return c, invalid("product id is required")
	}

	next := c.clone()
	id := LineID(p.ID, size, color)
	inCart := qty
	for _, it := range next.Items {
		if it.ProductID == p.ID {
			inCart += it.Quantity
		}
	}
	if inCart > p.Stock {
		return c, apperrors.Conflict(fmt.Sprintf("only %d of %q in stock", p.Stock, p.Name))
	}

	if i := next.indexOf(id); i >= 0 {
		next.Items[i].Quantity += qty
		next.Items[i].Price = p.Price
	} else {
		next.Items = append(next.Items, CartItem{
			ID:        id,
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  qty,
			Image:     p.Image,
			Size:      size,
			Color:     color,
		})
	}
	return next.recalc(), nil
}

// RemoveItem drops a line.
func (c Cart) RemoveItem(lineID string) (Cart, error) {
	i := c.indexOf(lineID)
	if i < 0 {
		return c, apperrors.NotFound("cart item", lineID)
	}
	next := c.clone()
	next.Items = append(next.Items[:i], next.Items[i+1:]...)
	return next.recalc(), nil
}

// UpdateQuantity sets a line's quantity, checked against the stock of p, the
// line's product. Quantities below 1 are rejected; use RemoveItem to drop a
// line.
func (c Cart) UpdateQuantity(lineID string, qty int, p Product) (Cart, error) {
	if qty < 1 {
		return c, invalid("quantity must be at least 1")
	}
	i := c.indexOf(lineID)
	if i < 0 {
		return c, apperrors.NotFound("cart item", lineID)
	}
	inCart := qty
	for j, it := range c.Items {
		if j != i && it.ProductID == c.Items[i].ProductID {
			inCart += it.Quantity
		}
	}
	if inCart > p.Stock {
		return c, apperrors.Conflict(fmt.Sprintf("only %d of %q in stock", p.Stock, p.Name))
	}
	next := c.clone()
	next.Items[i].Quantity = qty
	return next.recalc(), nil
}

// Clear empties the cart and resets checkout progress.
func (c Cart) Clear() Cart {
	return NewCart(c.UserID)
}

// SetShippingCost is the raw setter behind SetShippingOption.
func (c Cart) SetShippingCost(cost decimal.Decimal) (Cart, error) {
	if cost.IsNegative() {
		return c, invalid("shipping cost must not be negative")
	}
	next := c.clone()
	next.ShippingCost = Money(cost)
	return next.recalc(), nil
}

// SetShippingOption selects a shipping option and prices it.
func (c Cart) SetShippingOption(o ShippingOption) (Cart, error) {
	price, ok := ShippingPrice(o)
	if !ok {
		return c, invalid(fmt.Sprintf("unknown shipping option %q", o))
	}
	next, err := c.SetShippingCost(price)
	if err != nil {
		return c, err
	}
	next.ShippingOption = o
	return next, nil
}

// ApplyDiscount applies a discount code. Unknown codes are rejected.
func (c Cart) ApplyDiscount(code string) (Cart, error) {
	if !strings.EqualFold(strings.TrimSpace(code), DiscountCode) {
		return c, invalid(fmt.Sprintf("discount code %q is not valid", code))
	}
	next := c.clone()
	next.DiscountCode = DiscountCode
	return next.recalc(), nil
}

func (c Cart) RemoveDiscount() Cart {
	next := c.clone()
	next.DiscountCode = ""
	return next.recalc()
}

// SetShippingDetails completes the shipping step of checkout. A nil billing
// address means "same as shipping".
func (c Cart) SetShippingDetails(shipping Address, billing *Address, o ShippingOption) (Cart, error) {
	if len(c.Items) == 0 {
		return c, invalid("cart is empty")
	}
	next, err := c.SetShippingOption(o)
	if err != nil {
		return c, err
	}
	next.ShippingAddress = &shipping
	if billing != nil {
		b := *billing
		next.BillingAddress = &b
	} else {
		next.BillingAddress = nil
	}
	next.Step = StepPayment
	return next, nil
}

// ReadyToSubmit reports why the cart cannot become an order yet, if at all.
func (c Cart) ReadyToSubmit() error {
	if len(c.Items) == 0 {
		return invalid("cart is empty")
	}
	if c.Step != StepPayment || c.ShippingAddress == nil {
		return invalid("shipping details are required before payment")
	}
	return nil
}
