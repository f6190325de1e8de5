package enums

// OutboxAggregateType is the kind of entity an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder     OutboxAggregateType = "order"
	AggregateReturn    OutboxAggregateType = "return"
	AggregateInventory OutboxAggregateType = "inventory"
)

var aggregateTypes = set[OutboxAggregateType]{AggregateOrder, AggregateReturn, AggregateInventory}

func (a OutboxAggregateType) IsValid() bool { return aggregateTypes.has(a) }

func ParseOutboxAggregateType(raw string) (OutboxAggregateType, error) {
	return aggregateTypes.parse("aggregate type", raw)
}

// OutboxEventType names a domain event. Values are lower snake case because
// they double as Pub/Sub message attributes.
type OutboxEventType string

const (
	EventOrderPlaced            OutboxEventType = "order_placed"
	EventOrderStatusChanged     OutboxEventType = "order_status_changed"
	EventOrderPaymentOverridden OutboxEventType = "order_payment_overridden"
	EventReturnRequested        OutboxEventType = "return_requested"
	EventReturnStatusChanged    OutboxEventType = "return_status_changed"
	EventInventoryAdjusted      OutboxEventType = "inventory_adjusted"
)

var eventTypes = set[OutboxEventType]{
	EventOrderPlaced,
	EventOrderStatusChanged,
	EventOrderPaymentOverridden,
	EventReturnRequested,
	EventReturnStatusChanged,
	EventInventoryAdjusted,
}

func (e OutboxEventType) IsValid() bool { return eventTypes.has(e) }

func ParseOutboxEventType(raw string) (OutboxEventType, error) {
	return eventTypes.parse("event type", raw)
}

// OutboxDLQErrorReason explains why the relay stopped retrying an event.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

var dlqReasons = set[OutboxDLQErrorReason]{OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable}

func (r OutboxDLQErrorReason) IsValid() bool { return dlqReasons.has(r) }
