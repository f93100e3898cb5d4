package domain

type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCanceled  PaymentStatus = "canceled"
)

// PaymentIntent is returned by the API when a checkout begins.
type PaymentIntent struct {
	ClientSecret string `json:"clientSecret"`
	Price        int64  `json:"price"`
}

// PaymentResult is reported by the external payment collaborator.
type PaymentResult struct {
	IntentID string        `json:"intentId"`
	Status   PaymentStatus `json:"status"`
}
