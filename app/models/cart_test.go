package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/perennia/storefront/app/models"
)

func TestCartRules(t *testing.T) {
	var c models.Cart

	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("a", 2)
	assert.Equal(t, []models.CartLine{{ProductID: "a", Quantity: 3}, {ProductID: "b", Quantity: 2}}, c.Items)
	assert.Equal(t, 5, c.ItemCount())

	assert.True(t, c.UpdateQuantity("b", 4))
	assert.Equal(t, 7, c.ItemCount())
	assert.False(t, c.UpdateQuantity("zzz", 4))

	assert.True(t, c.UpdateQuantity("a", 0), "below one removes the line")
	assert.Equal(t, []string{"b"}, c.ProductIDs())

	assert.False(t, c.Remove("a"))
	assert.True(t, c.Remove("b"))
	assert.Empty(t, c.Items)

	c.Add("c", 0)
	assert.Equal(t, 1, c.ItemCount())
	c.Clear()
	assert.Zero(t, c.ItemCount())
}
