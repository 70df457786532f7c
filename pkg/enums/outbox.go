package enums

import "fmt"

// OutboxEventType identifies the domain event carried by an outbox row.
type OutboxEventType string

const (
	OutboxEventOrderCreated         OutboxEventType = "order.created"
	OutboxEventPaymentConfirmed     OutboxEventType = "payment.confirmed"
	OutboxEventOrderStatusChanged   OutboxEventType = "order.status_changed"
	OutboxEventStockReconciliation  OutboxEventType = "stock.reconciliation_needed"
	OutboxEventCatalogReindexNeeded OutboxEventType = "catalog.reindex_needed"
)

var validOutboxEventTypes = []OutboxEventType{
	OutboxEventOrderCreated,
	OutboxEventPaymentConfirmed,
	OutboxEventOrderStatusChanged,
	OutboxEventStockReconciliation,
	OutboxEventCatalogReindexNeeded,
}

// String implements fmt.Stringer.
func (t OutboxEventType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known OutboxEventType.
func (t OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxDLQErrorReason classifies why an outbox event was parked.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts      OutboxDLQErrorReason = "max_attempts_exceeded"
	OutboxDLQReasonMalformedPayload OutboxDLQErrorReason = "malformed_payload"
	OutboxDLQReasonUnknownTopic     OutboxDLQErrorReason = "unknown_topic"
)

// String implements fmt.Stringer.
func (r OutboxDLQErrorReason) String() string {
	return string(r)
}

// OutboxAggregateType names the aggregate an outbox event refers to.
type OutboxAggregateType string

const (
	OutboxAggregateOrder   OutboxAggregateType = "seller_order"
	OutboxAggregateCatalog OutboxAggregateType = "catalog_item"
)

// String implements fmt.Stringer.
func (t OutboxAggregateType) String() string {
	return string(t)
}
