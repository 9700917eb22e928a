package service

import (
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/notify"
)

const (
	subjectOrderPlaced   = "Your Order Has Been Placed"
	subjectStatusUpdated = "Order Status Updated"
)

func orderPlacedMessage(order *domain.Order, storeName string) notify.Message {
	body := fmt.Sprintf(`Dear %s,

Thank you for your order!
Your order ID is %d.

We will notify you when the status updates.

Regards,
%s
`, order.Buyer.Name, order.ID, storeName)

	return notify.Message{To: order.Buyer.Email, Subject: subjectOrderPlaced, Body: body}
}

func statusUpdatedMessage(order *domain.Order) notify.Message {
	body := fmt.Sprintf("Hello %s,\n\nYour order #%d status has been updated to: %s.\n\nThank you for shopping with us!",
		order.Buyer.Name, order.ID, order.Status)

	return notify.Message{To: order.Buyer.Email, Subject: subjectStatusUpdated, Body: body}
}
