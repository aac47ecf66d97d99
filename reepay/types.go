package reepay

// Wire types for the subset of the Reepay API this service consumes.
// All monetary amounts are integers in minor currency units.

type Invoice struct {
	ID                     string        `json:"id"`
	Handle                 string        `json:"handle"`
	State                  string        `json:"state"`
	Currency               string        `json:"currency"`
	Amount                 int64         `json:"amount"`
	AuthorizedAmount       int64         `json:"authorized_amount"`
	SettledAmount          int64         `json:"settled_amount"`
	RefundedAmount         int64         `json:"refunded_amount"`
	OrderLines             []OrderLine   `json:"order_lines,omitempty"`
	Transactions           []Transaction `json:"transactions,omitempty"`
	CreditNotes            []CreditNote  `json:"credit_notes,omitempty"`
	Customer               string        `json:"customer,omitempty"`
	Subscription           string        `json:"subscription,omitempty"`
	RecurringPaymentMethod string        `json:"recurring_payment_method,omitempty"`
}

type OrderLine struct {
	ID            string  `json:"id,omitempty"`
	Ordertext     string  `json:"ordertext"`
	Amount        int64   `json:"amount"`
	Quantity      int     `json:"quantity"`
	Vat           float64 `json:"vat"`
	Origin        string  `json:"origin,omitempty"`
	AmountInclVat bool    `json:"amount_incl_vat"`
}

type Transaction struct {
	ID              string           `json:"id"`
	State           string           `json:"state"`
	Type            string           `json:"type"`
	Amount          int64            `json:"amount"`
	PaymentMethod   string           `json:"payment_method,omitempty"`
	CardTransaction *CardTransaction `json:"card_transaction,omitempty"`
}

type CardTransaction struct {
	CardType        string `json:"card_type,omitempty"`
	ErrorCode       string `json:"error,omitempty"`
	ErrorState      string `json:"error_state,omitempty"`
	AcquirerMessage string `json:"acquirer_message,omitempty"`
}

type CreditNote struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Transaction string `json:"transaction,omitempty"`
}

type ChargeRequest struct {
	Handle     string      `json:"handle"`
	Amount     int64       `json:"amount,omitempty"`
	Currency   string      `json:"currency"`
	Source     string      `json:"source"`
	Customer   string      `json:"customer,omitempty"`
	Recurring  bool        `json:"recurring,omitempty"`
	Settle     bool        `json:"settle,omitempty"`
	OrderLines []OrderLine `json:"order_lines,omitempty"`
}

type Charge struct {
	Handle      string `json:"handle"`
	State       string `json:"state"`
	Transaction string `json:"transaction"`
	Amount      int64  `json:"amount"`
	Source      string `json:"source,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SettleRequest carries either a plain amount or explicit order lines,
// never both.
type SettleRequest struct {
	Amount     int64       `json:"amount,omitempty"`
	OrderLines []OrderLine `json:"order_lines,omitempty"`
}

type SettleResult struct {
	State       string `json:"state"`
	Transaction string `json:"transaction"`
	Amount      int64  `json:"amount"`
}

type RefundRequest struct {
	Invoice string `json:"invoice"`
	Amount  int64  `json:"amount,omitempty"`
}

type RefundResult struct {
	ID         string `json:"id"`
	State      string `json:"state"`
	Amount     int64  `json:"amount"`
	CreditNote string `json:"credit_note_id"`
}

type Subscription struct {
	Handle        string `json:"handle"`
	State         string `json:"state"`
	Customer      string `json:"customer"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

type WebhookSettings struct {
	Urls   []string `json:"urls"`
	Secret string   `json:"secret"`
}
