package inbound

import (
	"fmt"

	"github.com/kevin07696/settlement-service/internal/domain"
)

// notificationText returns the title and body shown to the producer for an event.
func notificationText(t domain.EventType, order *domain.Order) (string, string) {
	amount := formatCents(order.AmountCents)
	switch t {
	case domain.EventPurchaseApproved:
		return "Sale approved", fmt.Sprintf("%s paid %s.", order.BuyerName, amount)
	case domain.EventPixGenerated:
		return "Pix generated", fmt.Sprintf("%s generated a pix for %s.", order.BuyerName, amount)
	case domain.EventBoletoGenerated:
		return "Boleto generated", fmt.Sprintf("%s generated a boleto for %s.", order.BuyerName, amount)
	case domain.EventPurchaseDeclined:
		return "Payment declined", fmt.Sprintf("The payment of %s by %s was declined.", amount, order.BuyerName)
	case domain.EventRefund:
		return "Sale refunded", fmt.Sprintf("The sale of %s to %s was refunded.", amount, order.BuyerName)
	case domain.EventChargeback:
		return "Chargeback received", fmt.Sprintf("%s disputed a payment of %s.", order.BuyerName, amount)
	case domain.EventSubscriptionCancelled:
		return "Subscription cancelled", fmt.Sprintf("%s cancelled their subscription.", order.BuyerName)
	case domain.EventSubscriptionOverdue:
		return "Subscription overdue", fmt.Sprintf("A subscription payment from %s is overdue.", order.BuyerName)
	case domain.EventSubscriptionRenewed:
		return "Subscription renewed", fmt.Sprintf("%s renewed their subscription.", order.BuyerName)
	default:
		return string(t), ""
	}
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%sR$ %d,%02d", sign, cents/100, cents%100)
}
