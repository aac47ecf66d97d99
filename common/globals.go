package common

const (
	// Remote invoice lifecycle states as reported by the processor.
	InvoiceStateCreated    = "created"
	InvoiceStatePending    = "pending"
	InvoiceStateAuthorized = "authorized"
	InvoiceStateSettled    = "settled"
	InvoiceStateCancelled  = "cancelled"
	InvoiceStateFailed     = "failed"

	// Settle-type categories used to decide instant capture eligibility.
	SettleTypePhysical  = "physical"
	SettleTypeVirtual   = "virtual"
	SettleTypeRecurring = "recurring"
	SettleTypeFee       = "fee"

	// Local order line types.
	OrderLineTypeProduct   = "product"
	OrderLineTypeShipping  = "shipping"
	OrderLineTypeFee       = "fee"
	OrderLineTypeSurcharge = "surcharge_fee"

	// Side-effect event topics published on the order pubsub.
	OrderEventAuthorized         = "authorized"
	OrderEventSettled            = "settled"
	OrderEventLineSettled        = "line_settled"
	OrderEventCancelled          = "cancelled"
	OrderEventRefunded           = "refunded"
	OrderEventStockReduced       = "stock_reduced"
	OrderEventRenewalCreated     = "renewal_created"
	OrderEventPaymentMethodAdded = "payment_method_added"
	OrderEventChargeFailed       = "charge_failed"
)
