package models

import "time"

// User captures the account that owns tasks and the custodial balance.
// Balance is kept in minor currency units (centavos) and may drop below zero
// after a penalty is charged.
type User struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Cellphone        string    `json:"cellphone,omitempty"`
	TaxID            string    `json:"taxId,omitempty"`
	Balance          int64     `json:"balance"`
	CurrentStreak    int       `json:"currentStreak"`
	LongestStreak    int       `json:"longestStreak"`
	PushSubscription string    `json:"-"`
	PasswordHash     string    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
}

// CanDeposit reports whether the identity fields the payment provider needs are filled in.
func (u User) CanDeposit() bool {
	return u.Cellphone != "" && u.TaxID != ""
}

// Stats is the read-only dashboard projection of a user.
type Stats struct {
	Balance       int64 `json:"balance"`
	CurrentStreak int   `json:"currentStreak"`
	LongestStreak int   `json:"longestStreak"`
	Pending       int   `json:"pending"`
	Completed     int   `json:"completed"`
	Failed        int   `json:"failed"`
	TotalLost     int64 `json:"totalLost"`
}
