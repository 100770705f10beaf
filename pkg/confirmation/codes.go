package confirmation

import (
	"slices"

	"github.com/chris/stk-confirmation/pkg/models"
)

// ResultCodes maps provider result codes onto terminal statuses. Codes vary by
// provider and market so they are configuration, not constants.
type ResultCodes struct {
	Success   int
	Cancelled []int
	Timeout   []int
}

// DefaultResultCodes are the M-Pesa STK codes.
var DefaultResultCodes = ResultCodes{
	Success:   0,
	Cancelled: []int{1032},
	Timeout:   []int{1037},
}

// Status returns the terminal status an outcome maps to. Receipt checks happen in the Reconciler.
func (c ResultCodes) Status(o models.Outcome) models.TransactionStatus {
	switch {
	case o.Source == models.SOURCE_SWEEPER:
		return models.TIMED_OUT
	case o.ResultCode == c.Success:
		return models.SUCCESS
	case slices.Contains(c.Cancelled, o.ResultCode):
		return models.CANCELLED
	case slices.Contains(c.Timeout, o.ResultCode):
		return models.TIMED_OUT
	default:
		return models.FAILED
	}
}
