package abacatepay

import (
	"encoding/json"
	"fmt"

	"github.com/yuirsilva/deadline-daddy/internal/payment"
)

type ref struct {
	ID string `json:"id"`
}

type webhookEnvelope struct {
	Event string `json:"event"`
	Data  *struct {
		Billing   *ref `json:"billing"`
		PixQrCode *ref `json:"pixQrCode"`
		Payment   *struct {
			Amount int64 `json:"amount"`
		} `json:"payment"`
	} `json:"data"`
}

// ParseEvent decodes a webhook body. Anything other than billing.paid,
// including a body with no event at all, comes back with just its type so the
// caller can acknowledge and ignore it. A paid event must carry a billing
// reference (billing.id, else pixQrCode.id) and a positive amount.
func ParseEvent(body []byte) (payment.Event, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return payment.Event{}, fmt.Errorf("%w: %v", payment.ErrMalformedEvent, err)
	}
	ev := payment.Event{Type: env.Event}
	if ev.Type != payment.EventPaid {
		return ev, nil
	}

	if env.Data != nil {
		switch {
		case env.Data.Billing != nil && env.Data.Billing.ID != "":
			ev.BillingID = env.Data.Billing.ID
		case env.Data.PixQrCode != nil:
			ev.BillingID = env.Data.PixQrCode.ID
		}
		if env.Data.Payment != nil {
			ev.Amount = env.Data.Payment.Amount
		}
	}
	if ev.BillingID == "" || ev.Amount <= 0 {
		return payment.Event{}, fmt.Errorf("%w: billing id and amount are required", payment.ErrMalformedEvent)
	}
	return ev, nil
}
