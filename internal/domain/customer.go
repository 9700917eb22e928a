package domain

// Customer is the directory record for one distinct buyer email
type Customer struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Orders  []int  `json:"orders"`
}

// NewCustomer creates a customer from the buyer details of their first order
func NewCustomer(id int, buyer BuyerInfo, firstOrderID int) *Customer {
	return &Customer{
		ID:      id,
		Name:    buyer.Name,
		Email:   buyer.Email,
		Phone:   buyer.Phone,
		Address: buyer.Address,
		Orders:  []int{firstOrderID},
	}
}

// Matches reports whether the customer is identified by email, ignoring case
func (c *Customer) Matches(email string) bool {
	return NormalizeEmail(c.Email) == NormalizeEmail(email)
}

// AddOrder records a further order. Contact details are kept from the first order.
func (c *Customer) AddOrder(orderID int) {
	c.Orders = append(c.Orders, orderID)
}
