package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, MustMoney(want).Equal(got), "want %s, got %s", want, got)
}

func product(id, price string, stock int) Product {
	return Product{ID: id, Name: "Product " + id, Price: MustMoney(price), Stock: stock}
}

// ============================================================================
// AddItem
// ============================================================================

func TestAddItem_NewLine(t *testing.T) {
	c, err := NewCart("u1").AddItem(product("p1", "19.99", 10), 2, "M", "red")
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, LineID("p1", "M", "red"), c.Items[0].ID)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assertMoney(t, "39.98", c.Subtotal)
}

func TestAddItem_SameLineIsAdditive(t *testing.T) {
	p := product("p1", "5", 10)
	c, err := NewCart("u1").AddItem(p, 2, "", "")
	require.NoError(t, err)
	c, err = c.AddItem(p, 3, "", "")
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
}

func TestAddItem_DifferentVariantIsNewLine(t *testing.T) {
	p := product("p1", "5", 10)
	c, err := NewCart("u1").AddItem(p, 1, "S", "")
	require.NoError(t, err)
	c, err = c.AddItem(p, 1, "L", "")
	require.NoError(t, err)

	assert.Len(t, c.Items, 2)
	assert.Equal(t, 2, c.ItemCount())
}

func TestAddItem_RejectsZeroQuantity(t *testing.T) {
	_, err := NewCart("u1").AddItem(product("p1", "5", 10), 0, "", "")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestAddItem_RejectsMoreThanStock(t *testing.T) {
	p := product("p1", "5", 3)
	c, err := NewCart("u1").AddItem(p, 2, "", "")
	require.NoError(t, err)

	next, err := c.AddItem(p, 2, "", "")
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
	assert.Equal(t, 2, next.Items[0].Quantity)
}

func TestAddItem_DoesNotMutateInput(t *testing.T) {
	c, err := NewCart("u1").AddItem(product("p1", "5", 10), 1, "", "")
	require.NoError(t, err)

	_, err = c.AddItem(product("p1", "5", 10), 4, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Items[0].Quantity)
}

// ============================================================================
// UpdateQuantity / RemoveItem
// ============================================================================

func TestUpdateQuantity_SetsExactQuantity(t *testing.T) {
	for _, q1 := range []int{1, 3, 7} {
		for _, q2 := range []int{1, 2, 9, 50} {
			p := product("p1", "1.50", 100)
			c, err := NewCart("u1").AddItem(p, q1, "", "")
			require.NoError(t, err)

			c, err = c.UpdateQuantity(LineID("p1", "", ""), q2, p)
			require.NoError(t, err)
			assert.Equal(t, q2, c.Items[0].Quantity)
		}
	}
}

func TestUpdateQuantity_RejectsBelowOne(t *testing.T) {
	p := product("p1", "1.50", 100)
	c, err := NewCart("u1").AddItem(p, 4, "", "")
	require.NoError(t, err)

	for _, q := range []int{0, -1, -20} {
		next, err := c.UpdateQuantity(LineID("p1", "", ""), q, p)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
		assert.Equal(t, 4, next.Items[0].Quantity)
	}
}

func TestUpdateQuantity_UnknownLine(t *testing.T) {
	_, err := NewCart("u1").UpdateQuantity("nope", 2, product("p1", "1", 10))
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateQuantity_RejectsMoreThanStock(t *testing.T) {
	p := product("p1", "5", 6)
	c, err := NewCart("u1").AddItem(p, 2, "S", "")
	require.NoError(t, err)
	c, err = c.AddItem(p, 1, "L", "")
	require.NoError(t, err)

	next, err := c.UpdateQuantity(LineID("p1", "S", ""), 6, p)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
	assert.Equal(t, 2, next.Items[0].Quantity)

	next, err = c.UpdateQuantity(LineID("p1", "S", ""), 5, p)
	require.NoError(t, err)
	assert.Equal(t, 6, next.ItemCount())
}

func TestRemoveItem(t *testing.T) {
	c, err := NewCart("u1").AddItem(product("p1", "2", 10), 1, "", "")
	require.NoError(t, err)
	c, err = c.AddItem(product("p2", "3", 10), 1, "", "")
	require.NoError(t, err)

	c, err = c.RemoveItem(LineID("p1", "", ""))
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "p2", c.Items[0].ProductID)
	assertMoney(t, "3", c.Subtotal)
}

// ============================================================================
// Derived totals
// ============================================================================

func TestSubtotal_EmptyCart(t *testing.T) {
	c := NewCart("u1")
	assertMoney(t, "0", c.Subtotal)
	assertMoney(t, "0", c.Total)
}

func TestSubtotal_MatchesSumOfLines(t *testing.T) {
	c := NewCart("u1")
	var err error
	prices := []string{"0.10", "0.20", "1.99", "249.50", "13"}
	want := decimal.Zero
	for i, price := range prices {
		qty := i + 1
		c, err = c.AddItem(product(price, price, 100), qty, "", "")
		require.NoError(t, err)
		want = want.Add(MustMoney(price).Mul(decimal.NewFromInt(int64(qty))))
		assert.True(t, want.Equal(c.Subtotal), "after %d lines", i+1)
	}
}

func TestTotal_Scenario(t *testing.T) {
	c, err := NewCart("u1").AddItem(product("phone", "999", 5), 1, "", "")
	require.NoError(t, err)
	c, err = c.AddItem(product("case", "29.99", 5), 2, "", "")
	require.NoError(t, err)
	c, err = c.SetShippingOption(ShippingStandard)
	require.NoError(t, err)

	assertMoney(t, "1058.98", c.Subtotal)
	assertMoney(t, "9.99", c.ShippingCost)
	assertMoney(t, "1068.97", c.Total)
}

func TestShippingOption_Unknown(t *testing.T) {
	c := NewCart("u1")
	next, err := c.SetShippingOption("teleport")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assertMoney(t, "0", next.ShippingCost)
}

func TestSetShippingCost_RejectsNegative(t *testing.T) {
	_, err := NewCart("u1").SetShippingCost(MustMoney("-1"))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

// ============================================================================
// Discounts
// ============================================================================

func TestApplyDiscount_KnownCode(t *testing.T) {
	c, err := NewCart("u1").AddItem(product("phone", "999", 5), 1, "", "")
	require.NoError(t, err)
	c, err = c.AddItem(product("case", "29.99", 5), 2, "", "")
	require.NoError(t, err)
	c, err = c.SetShippingOption(ShippingStandard)
	require.NoError(t, err)

	c, err = c.ApplyDiscount("save10")
	require.NoError(t, err)
	assert.Equal(t, DiscountCode, c.DiscountCode)
	assertMoney(t, "10", c.DiscountAmount)
	assertMoney(t, "1058.97", c.Total)
}

func TestApplyDiscount_CappedAtSubtotal(t *testing.T) {
	c, err := NewCart("u1").AddItem(product("sticker", "3.50", 5), 1, "", "")
	require.NoError(t, err)

	c, err = c.ApplyDiscount(DiscountCode)
	require.NoError(t, err)
	assertMoney(t, "3.50", c.DiscountAmount)
	assertMoney(t, "0", c.Total)
}

func TestApplyDiscount_UnknownCodeLeavesCartUnchanged(t *testing.T) {
	c, err := NewCart("u1").AddItem(product("p1", "50", 5), 1, "", "")
	require.NoError(t, err)
	before := c

	after, err := c.ApplyDiscount("FREESTUFF")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Equal(t, before, after)
}

func TestRemoveDiscount(t *testing.T) {
	c, err := NewCart("u1").AddItem(product("p1", "50", 5), 1, "", "")
	require.NoError(t, err)
	c, err = c.ApplyDiscount(DiscountCode)
	require.NoError(t, err)

	c = c.RemoveDiscount()
	assert.Empty(t, c.DiscountCode)
	assertMoney(t, "50", c.Total)
}

// ============================================================================
// Checkout steps
// ============================================================================

func testAddress() Address {
	return Address{FullName: "Ada Lovelace", Line1: "1 Main St", City: "London", PostalCode: "N1", Country: "GB"}
}

func TestSetShippingDetails_EmptyCart(t *testing.T) {
	_, err := NewCart("u1").SetShippingDetails(testAddress(), nil, ShippingExpress)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestCheckoutFlow(t *testing.T) {
	c, err := NewCart("u1").AddItem(product("p1", "20", 5), 1, "", "")
	require.NoError(t, err)
	assert.Error(t, c.ReadyToSubmit())

	c, err = c.SetShippingDetails(testAddress(), nil, ShippingExpress)
	require.NoError(t, err)
	assert.Equal(t, StepPayment, c.Step)
	assertMoney(t, "19.99", c.ShippingCost)
	assert.NoError(t, c.ReadyToSubmit())

	c = c.Clear()
	assert.Equal(t, StepCart, c.Step)
	assert.Empty(t, c.Items)
	assert.Equal(t, "u1", c.UserID)
}
