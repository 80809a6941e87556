package dto

import (
	"encoding/json"

	"github.com/yuirsilva/deadline-daddy/internal/models"
)

type DepositRequest struct {
	Amount int64 `json:"amount"`
}

type DepositResponse struct {
	URL string `json:"url"`
}

type WalletResponse struct {
	Balance  int64            `json:"balance"`
	Payments []models.Payment `json:"payments"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}

// PushSubscribeRequest carries the browser PushSubscription object verbatim.
type PushSubscribeRequest struct {
	Subscription json.RawMessage `json:"subscription" validate:"required"`
}
