package models

import "time"

type PaymentType string

const (
	PaymentDeposit    PaymentType = "DEPOSIT"
	PaymentPenalty    PaymentType = "PENALTY"
	PaymentWithdrawal PaymentType = "WITHDRAWAL"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Payment is a single money movement on a user's wallet.
// ExternalID is the provider billing reference and is only set for deposits.
type Payment struct {
	ID         string        `json:"id"`
	UserID     int64         `json:"userId"`
	TaskID     string        `json:"taskId,omitempty"`
	Amount     int64         `json:"amount"`
	Type       PaymentType   `json:"type"`
	Status     PaymentStatus `json:"status"`
	ExternalID string        `json:"externalId,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
}
