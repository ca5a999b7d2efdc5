package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"nipeihu_platform/platform/schema"

	"github.com/shopspring/decimal"
)

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func CodedError(err error, code int) error {
	return &codedError{err: err, code: code}
}

func GetResponseCode(err error) int {
	var cerr *codedError
	if errors.As(err, &cerr) {
		return cerr.code
	}
	slog.Error("non coded error passed to GetResponseCode", "error", err)
	return http.StatusInternalServerError
}

// notFoundErrs maps the schema sentinels that should surface as 404s.
var notFoundErrs = []error{
	schema.ErrUserNotFound,
	schema.ErrFormNotFound,
	schema.ErrProductNotFound,
	schema.ErrGoalNotFound,
	schema.ErrShipmentNotFound,
	schema.ErrSquadNotFound,
	schema.ErrUserSquadNotFound,
	schema.ErrWorkerConfigNotFound,
	schema.ErrToolNotFound,
}

func recordErrorCode(err error) int {
	for _, sentinel := range notFoundErrs {
		if errors.Is(err, sentinel) {
			return http.StatusNotFound
		}
	}
	return http.StatusInternalServerError
}

// parseMoney parses money amounts sent as decimal strings. An empty string
// means zero.
func parseMoney(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount '%v'", value)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount cannot be negative")
	}
	return amount, nil
}
