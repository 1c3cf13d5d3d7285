package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"

	"github.com/chrono-trade/chrono/pkg/errors"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Order is a trading instruction for one instrument. Quantity is signed:
// positive buys, negative sells. Limit is the optional limit price; a market
// order executes at the step's reference price when Limit is None.
type Order struct {
	Symbol   string                   `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Quantity int64                    `yaml:"quantity" json:"quantity" csv:"quantity"`
	Limit    optional.Option[float64] `yaml:"limit,omitempty" json:"limit,omitempty" csv:"limit"`
}

// Side returns the direction implied by the order's signed quantity.
func (o *Order) Side() Side {
	if o.Quantity < 0 {
		return SideSell
	}

	return SideBuy
}

// Validate checks the order's structural validity. A zero quantity is
// rejected here; callers drop zero-quantity orders before applying.
func (o *Order) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeLedgerApplication, "invalid order", err)
	}

	if o.Quantity == 0 {
		return errors.New(errors.ErrCodeLedgerApplication, "order quantity must be non-zero")
	}

	if o.Limit.IsSome() && o.Limit.Unwrap() <= 0 {
		return errors.New(errors.ErrCodeLedgerApplication, "limit price must be positive")
	}

	return nil
}

// Fill records one executed order: realized price after slippage, fee, and
// the strategy it is attributed to. Produced once, never mutated.
type Fill struct {
	ID       string    `yaml:"id" json:"id" csv:"id"`
	Date     time.Time `yaml:"date" json:"date" csv:"date"`
	Symbol   string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Side     Side      `yaml:"side" json:"side" csv:"side"`
	Quantity int64     `yaml:"quantity" json:"quantity" csv:"quantity"`
	Price    float64   `yaml:"price" json:"price" csv:"price"`
	Fee      float64   `yaml:"fee" json:"fee" csv:"fee"`
	Strategy string    `yaml:"strategy" json:"strategy" csv:"strategy"`
}
