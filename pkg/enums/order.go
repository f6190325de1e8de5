package enums

// OrderStatus tracks fulfilment of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

var orderStatuses = set[OrderStatus]{
	OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
}

func (s OrderStatus) String() string { return string(s) }
func (s OrderStatus) IsValid() bool  { return orderStatuses.has(s) }

func ParseOrderStatus(raw string) (OrderStatus, error) {
	return orderStatuses.parse("order status", raw)
}

// OrderType distinguishes purchases for the buyer from ones shipped to someone else.
type OrderType string

const (
	OrderTypeSelf       OrderType = "SELF"
	OrderTypeGift       OrderType = "GIFT"
	OrderTypeThirdParty OrderType = "THIRD_PARTY"
)

var orderTypes = set[OrderType]{OrderTypeSelf, OrderTypeGift, OrderTypeThirdParty}

func (t OrderType) String() string { return string(t) }
func (t OrderType) IsValid() bool  { return orderTypes.has(t) }

func ParseOrderType(raw string) (OrderType, error) {
	return orderTypes.parse("order type", raw)
}

// PaymentStatus is the payment flag carried on an order.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

var paymentStatuses = set[PaymentStatus]{PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed}

func (p PaymentStatus) String() string { return string(p) }
func (p PaymentStatus) IsValid() bool  { return paymentStatuses.has(p) }

func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	return paymentStatuses.parse("payment status", raw)
}

// PaymentMethod records how the customer paid or will pay.
type PaymentMethod string

const (
	PaymentMethodOnline         PaymentMethod = "ONLINE"
	PaymentMethodCreditCard     PaymentMethod = "CREDIT_CARD"
	PaymentMethodPOSCash        PaymentMethod = "POS_CASH"
	PaymentMethodPOSCard        PaymentMethod = "POS_CARD"
	PaymentMethodManualOverride PaymentMethod = "MANUAL_OVERRIDE"
)

var paymentMethods = set[PaymentMethod]{
	PaymentMethodOnline, PaymentMethodCreditCard, PaymentMethodPOSCash, PaymentMethodPOSCard, PaymentMethodManualOverride,
}

func (m PaymentMethod) String() string { return string(m) }
func (m PaymentMethod) IsValid() bool  { return paymentMethods.has(m) }

func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	return paymentMethods.parse("payment method", raw)
}
