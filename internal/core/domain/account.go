package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places a balance or transfer amount
// may carry. Amounts are exact decimals end to end; binary floating point
// never enters the engine.
const MoneyScale = 2

// Account is a registered party holding a monetary balance.
// Balance is mutated only through the transfer engine and is never
// negative at any committed point.
type Account struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CanDebit reports whether the account balance covers the given amount.
func (a *Account) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// ExactAmount reports whether d is representable at MoneyScale without
// rounding. "300", "300.5" and "300.00" are exact; "300.005" is not.
func ExactAmount(d decimal.Decimal) bool {
	return d.Exponent() >= -MoneyScale
}
