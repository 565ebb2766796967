package models

// CartLine is one product and how many of it the shopper wants.
type CartLine struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"   validate:"required,gte=1"`
}

// Cart is an ordered list of lines with at most one line per product.
type Cart struct {
	Items []CartLine `json:"items"`
}

// Add increments the product's line, appending one if it is new. A
// quantity below 1 is treated as 1.
func (c *Cart) Add(productID string, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			return
		}
	}
	c.Items = append(c.Items, CartLine{ProductID: productID, Quantity: quantity})
}

// UpdateQuantity sets a line's quantity; below 1 removes it. It reports
// whether the product was in the cart.
func (c *Cart) UpdateQuantity(productID string, quantity int) bool {
	if quantity < 1 {
		return c.Remove(productID)
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return true
		}
	}
	return false
}

// Remove drops the product's line and reports whether there was one.
func (c *Cart) Remove(productID string) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Clear() { c.Items = nil }

// ItemCount is the sum of quantities.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Items {
		n += l.Quantity
	}
	return n
}

// ProductIDs lists the distinct products in cart order.
func (c *Cart) ProductIDs() []string {
	ids := make([]string, len(c.Items))
	for i, l := range c.Items {
		ids[i] = l.ProductID
	}
	return ids
}
