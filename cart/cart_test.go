package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddSameKeyIncrements(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(Item{ProductID: 1, Size: "M", Quantity: 1, UnitPriceCents: 5000}))
	require.NoError(t, c.Add(Item{ProductID: 1, Size: "M", Quantity: 2, UnitPriceCents: 5000}))
	require.NoError(t, c.Add(Item{ProductID: 1, Size: "G", UnitPriceCents: 5000}))

	assert.Equal(t, 2, c.Len())
	it, ok := c.Get(1, "M")
	require.True(t, ok)
	assert.Equal(t, 3, it.Quantity)
	g, _ := c.Get(1, "G")
	assert.Equal(t, 1, g.Quantity)

	assert.EqualValues(t, 20000, c.Total())
	assert.Equal(t, 4, c.Count())
}

func TestCart_AddRejectsNegative(t *testing.T) {
	c := New()
	assert.ErrorIs(t, c.Add(Item{ProductID: 1, Size: "M", Quantity: -1}), ErrInvalidQuantity)
	assert.Zero(t, c.Len())
}

func TestCart_RemoveAndSetQuantity(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(Item{ProductID: 1, Size: "P", Quantity: 1, UnitPriceCents: 100}))
	require.NoError(t, c.Add(Item{ProductID: 2, Size: "P", Quantity: 1, UnitPriceCents: 200}))
	require.NoError(t, c.Add(Item{ProductID: 3, Size: "P", Quantity: 1, UnitPriceCents: 300}))

	assert.True(t, c.Remove(2, "P"))
	assert.False(t, c.Remove(2, "P"))

	items := c.Items()
	require.Len(t, items, 2)
	assert.EqualValues(t, 1, items[0].ProductID)
	assert.EqualValues(t, 3, items[1].ProductID)

	assert.True(t, c.SetQuantity(3, "P", 4))
	assert.EqualValues(t, 1300, c.Total())
	assert.True(t, c.SetQuantity(3, "P", 0))
	assert.False(t, c.SetQuantity(3, "P", 1))
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Zero(t, c.Total())
	assert.Empty(t, c.Items())
}

func TestCart_ItemsIsACopy(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(Item{ProductID: 1, Size: "M", Quantity: 1}))
	items := c.Items()
	items[0].Quantity = 99
	it, _ := c.Get(1, "M")
	assert.Equal(t, 1, it.Quantity)
}
