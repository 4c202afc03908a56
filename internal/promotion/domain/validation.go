package domain

// ErrorKind classifies why a promo code cannot be used. These are expected,
// recoverable outcomes returned as data, never as Go errors.
type ErrorKind string

const (
	ErrorCodeNotFound       ErrorKind = "CodeNotFound"
	ErrorPromotionNotActive ErrorKind = "PromotionNotActive"
	ErrorOrderBelowMinimum  ErrorKind = "OrderBelowMinimum"
	ErrorUsageLimitReached  ErrorKind = "UsageLimitReached"
)

// ValidationError carries the error kind plus the numeric detail a caller
// needs to render a precise message.
type ValidationError struct {
	Kind ErrorKind `json:"kind"`

	// Status is set for PromotionNotActive: upcoming, expired, or inactive.
	Status Status `json:"status,omitempty"`

	// MinOrderValue and Shortfall are set for OrderBelowMinimum.
	MinOrderValue int64 `json:"min_order_value,omitempty"`
	Shortfall     int64 `json:"shortfall,omitempty"`

	Detail string `json:"detail,omitempty"`
}

// ValidationResult is the outcome of a validate or redeem call. It is never
// persisted; status and discount are computed fresh per call.
type ValidationResult struct {
	Valid          bool             `json:"is_valid"`
	Promotion      *Response        `json:"promotion,omitempty"`
	DiscountAmount *int64           `json:"discount_amount,omitempty"`
	Error          *ValidationError `json:"error,omitempty"`
}
