package domain

import (
	"encoding/json"
	"strings"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusUnknown    OrderStatus = "unknown"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusDeclined PaymentStatus = "declined"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusUnknown  PaymentStatus = "unknown"
)

// The backend is not consistent about status spelling: English and Spanish
// variants show up depending on which service wrote the record.
var orderStatusAliases = map[string]OrderStatus{
	"pending":     OrderStatusPending,
	"pendiente":   OrderStatusPending,
	"created":     OrderStatusPending,
	"creado":      OrderStatusPending,
	"paid":        OrderStatusPaid,
	"pagado":      OrderStatusPaid,
	"completed":   OrderStatusPaid,
	"completado":  OrderStatusPaid,
	"processing":  OrderStatusProcessing,
	"procesando":  OrderStatusProcessing,
	"en proceso":  OrderStatusProcessing,
	"preparing":   OrderStatusProcessing,
	"shipped":     OrderStatusShipped,
	"enviado":     OrderStatusShipped,
	"in_transit":  OrderStatusShipped,
	"en camino":   OrderStatusShipped,
	"delivered":   OrderStatusDelivered,
	"entregado":   OrderStatusDelivered,
	"cancelled":   OrderStatusCancelled,
	"canceled":    OrderStatusCancelled,
	"cancelado":   OrderStatusCancelled,
	"anulado":     OrderStatusCancelled,
	"refunded":    OrderStatusRefunded,
	"reembolsado": OrderStatusRefunded,
	"devuelto":    OrderStatusRefunded,
}

var paymentStatusAliases = map[string]PaymentStatus{
	"pending":     PaymentStatusPending,
	"pendiente":   PaymentStatusPending,
	"processing":  PaymentStatusPending,
	"approved":    PaymentStatusApproved,
	"aprobado":    PaymentStatusApproved,
	"paid":        PaymentStatusApproved,
	"pagado":      PaymentStatusApproved,
	"success":     PaymentStatusApproved,
	"succeeded":   PaymentStatusApproved,
	"exitoso":     PaymentStatusApproved,
	"declined":    PaymentStatusDeclined,
	"rechazado":   PaymentStatusDeclined,
	"failed":      PaymentStatusDeclined,
	"fallido":     PaymentStatusDeclined,
	"error":       PaymentStatusDeclined,
	"refunded":    PaymentStatusRefunded,
	"reembolsado": PaymentStatusRefunded,
}

func normalizeKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func NormalizeOrderStatus(raw string) OrderStatus {
	if s, ok := orderStatusAliases[normalizeKey(raw)]; ok {
		return s
	}
	return OrderStatusUnknown
}

func NormalizePaymentStatus(raw string) PaymentStatus {
	if s, ok := paymentStatusAliases[normalizeKey(raw)]; ok {
		return s
	}
	return PaymentStatusUnknown
}

func (s *OrderStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		*s = OrderStatusUnknown
		return nil
	}
	*s = NormalizeOrderStatus(raw)
	return nil
}

func (s *PaymentStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		*s = PaymentStatusUnknown
		return nil
	}
	*s = NormalizePaymentStatus(raw)
	return nil
}

// IsFinal reports whether no further fulfilment changes are expected.
func (s OrderStatus) IsFinal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusRefunded
}

type OrderItem struct {
	ProductID    string `json:"productId"`
	VariantID    string `json:"variantId,omitempty"`
	Name         string `json:"name"`
	VariantLabel string `json:"variantLabel,omitempty"`
	Quantity     Count  `json:"quantity"`
	UnitPrice    Amount `json:"unitPrice"`
}

type Order struct {
	ID            string        `json:"id"`
	Number        string        `json:"number,omitempty"`
	Items         []OrderItem   `json:"items"`
	Subtotal      Amount        `json:"subtotal"`
	Shipping      Amount        `json:"shipping"`
	Tax           Amount        `json:"tax"`
	Discount      Amount        `json:"discount"`
	Total         Amount        `json:"total"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	InvoiceURL    string        `json:"invoiceUrl,omitempty"`
	CreatedAt     Time          `json:"createdAt"`
}

type OrderPage struct {
	Orders     []Order `json:"orders"`
	Page       Count   `json:"page"`
	TotalPages Count   `json:"totalPages"`
	Total      Count   `json:"total"`
}

// Transaction is the payment record attached to an order.
type Transaction struct {
	ID          string        `json:"id"`
	OrderID     string        `json:"orderId"`
	Status      PaymentStatus `json:"status"`
	Amount      Amount        `json:"amount"`
	InvoiceURL  string        `json:"invoiceUrl,omitempty"`
	DeclineCode string        `json:"declineCode,omitempty"`
	Message     string        `json:"message,omitempty"`
	CreatedAt   Time          `json:"createdAt"`
}
