package service

import (
	"time"

	"rateharvester/internal/repository"
)

// RateResult is a stored rate rendered for the wire: decimals as fixed-point
// strings, absent optional rates as nil.
type RateResult struct {
	ID               int64
	Code             string
	Name             string
	BaseRate         string
	CashBuyRate      *string
	CashSellRate     *string
	RemitSendRate    *string
	RemitReceiveRate *string
	Date             string
	FetchedAt        string
}

// RatePage is one page of a listing.
type RatePage struct {
	Count       int
	Page        int
	PageSize    int
	HasNext     bool
	HasPrevious bool
	Results     []RateResult
}

// RefreshResult reports the outcome of one fetch-and-store cycle.
type RefreshResult struct {
	Date    string
	Count   int
	Message string
}

func rateResultFromRepo(r *repository.ExchangeRate) *RateResult {
	return &RateResult{
		ID:               r.ID,
		Code:             r.Code,
		Name:             r.Name,
		BaseRate:         FormatRate(r.BaseRate),
		CashBuyRate:      formatNullRate(r.CashBuyRate),
		CashSellRate:     formatNullRate(r.CashSellRate),
		RemitSendRate:    formatNullRate(r.RemitSendRate),
		RemitReceiveRate: formatNullRate(r.RemitReceiveRate),
		Date:             r.Date.Format(repository.DateLayout),
		FetchedAt:        r.FetchedAt.UTC().Format(time.RFC3339),
	}
}
