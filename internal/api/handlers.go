package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"rateharvester/internal/provider"
	"rateharvester/internal/service"
)

// RateResponse represents one stored exchange rate
type RateResponse struct {
	ID               int64   `json:"id" example:"42"`
	Code             string  `json:"code" example:"USD"`
	Name             string  `json:"name" example:"미국 달러"`
	BaseRate         string  `json:"base_rate" example:"1432.5000"`
	CashBuyRate      *string `json:"cash_buy_rate" example:"1432.0000"`
	CashSellRate     *string `json:"cash_sell_rate" example:"1433.0000"`
	RemitSendRate    *string `json:"remit_send_rate" example:"1446.8200"`
	RemitReceiveRate *string `json:"remit_receive_rate" example:"1418.1800"`
	Date             string  `json:"date" example:"2024-01-15"`
	FetchedAt        string  `json:"fetched_at" example:"2024-01-15T02:00:00Z"`
}

// PageResponse represents one page of exchange rates
type PageResponse struct {
	Count    int            `json:"count" example:"23"`
	Page     int            `json:"page" example:"1"`
	PageSize int            `json:"page_size" example:"100"`
	Next     *string        `json:"next" example:"http://localhost:8080/exchange-rates?page=2"`
	Previous *string        `json:"previous"`
	Results  []RateResponse `json:"results"`
}

// RefreshResponse represents the outcome of a fetch-and-store cycle
type RefreshResponse struct {
	Date    string `json:"date" example:"2024-01-15"`
	Count   int    `json:"count" example:"23"`
	Message string `json:"message" example:"Collected 23 exchange rates for 2024-01-15"`
}

// HandleListRates godoc
// @Summary List exchange rates
// @Description Returns stored rates filtered by code and date, ordered by date descending then code ascending. A page past the end returns an empty result list.
// @Tags exchange-rates
// @Produce json
// @Param code query string false "Currency code (case-insensitive)" example(USD)
// @Param date query string false "Exact quotation date" format(date)
// @Param date_from query string false "Inclusive lower date bound" format(date)
// @Param date_to query string false "Inclusive upper date bound" format(date)
// @Param page query int false "Page number, starting at 1" minimum(1)
// @Param page_size query int false "Page size" minimum(1)
// @Success 200 {object} PageResponse "Page of rates"
// @Failure 400 {object} ErrorResponse "Invalid filter or paging parameter"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /exchange-rates [get]
func HandleListRates(svc service.RateServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := listParamsFromQuery(r.URL.Query())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}

		page, err := svc.ListRates(r.Context(), params)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pageResponse(r, page))
	}
}

// HandleHistory godoc
// @Summary Rate history for one currency
// @Description Returns all stored rates for a currency across dates. Accepts the same date filters and paging as the list endpoint.
// @Tags exchange-rates
// @Produce json
// @Param code path string true "Currency code" example(USD)
// @Param date_from query string false "Inclusive lower date bound" format(date)
// @Param date_to query string false "Inclusive upper date bound" format(date)
// @Param page query int false "Page number, starting at 1" minimum(1)
// @Param page_size query int false "Page size" minimum(1)
// @Success 200 {object} PageResponse "Page of rates"
// @Failure 400 {object} ErrorResponse "Invalid code, filter or paging parameter"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /exchange-rates/{code} [get]
func HandleHistory(svc service.RateServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := listParamsFromQuery(r.URL.Query())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}

		page, err := svc.History(r.Context(), chi.URLParam(r, "code"), params)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pageResponse(r, page))
	}
}

// HandleGetRate godoc
// @Summary Get one rate by code and date
// @Description Returns the single stored rate for a currency on a quotation date.
// @Tags exchange-rates
// @Produce json
// @Param code path string true "Currency code" example(USD)
// @Param date path string true "Quotation date" format(date)
// @Success 200 {object} RateResponse "Rate found"
// @Failure 400 {object} ErrorResponse "Invalid code or date"
// @Failure 404 {object} ErrorResponse "No rate for the given code and date"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /exchange-rates/{code}/dates/{date} [get]
func HandleGetRate(svc service.RateServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rate, err := svc.GetRate(r.Context(), chi.URLParam(r, "code"), chi.URLParam(r, "date"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rateResponse(rate))
	}
}

// HandleFetchToday godoc
// @Summary Fetch today's rates
// @Description Fetches the rates for the current local date from the provider and upserts them. A weekend or holiday yields count 0.
// @Tags refresh
// @Produce json
// @Success 200 {object} RefreshResponse "Rates stored"
// @Failure 429 {object} ErrorResponse "Too many refresh requests"
// @Failure 503 {object} ErrorResponse "Provider or storage unavailable"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /exchange-rates/fetch [post]
func HandleFetchToday(svc service.RateServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.FetchToday(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, RefreshResponse{Date: res.Date, Count: res.Count, Message: res.Message})
	}
}

// HandleFetchByDate godoc
// @Summary Fetch rates for a date
// @Description Fetches the rates for the given quotation date from the provider and upserts them.
// @Tags refresh
// @Produce json
// @Param date path string true "Quotation date" format(date)
// @Success 200 {object} RefreshResponse "Rates stored"
// @Failure 400 {object} ErrorResponse "Invalid date"
// @Failure 429 {object} ErrorResponse "Too many refresh requests"
// @Failure 503 {object} ErrorResponse "Provider or storage unavailable"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /exchange-rates/fetch/dates/{date} [post]
func HandleFetchByDate(svc service.RateServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.FetchByDate(r.Context(), chi.URLParam(r, "date"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, RefreshResponse{Date: res.Date, Count: res.Count, Message: res.Message})
	}
}

// writeServiceError maps a service error onto its HTTP status.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case service.IsValidationError(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Exchange rate not found"})
	case provider.IsConfigurationError(err):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "Exchange rate provider is not configured"})
	case service.IsUnavailable(err):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "Exchange rate provider unavailable"})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
	}
}

func listParamsFromQuery(q url.Values) (service.ListParams, error) {
	params := service.ListParams{
		Code:     q.Get("code"),
		Date:     q.Get("date"),
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
	}

	var err error
	if params.Page, err = intParam(q, "page"); err != nil {
		return params, err
	}
	if params.PageSize, err = intParam(q, "page_size"); err != nil {
		return params, err
	}
	return params, nil
}

func intParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("invalid " + name + ": must be a positive integer")
	}
	return n, nil
}

func rateResponse(r *service.RateResult) RateResponse {
	return RateResponse{
		ID:               r.ID,
		Code:             r.Code,
		Name:             r.Name,
		BaseRate:         r.BaseRate,
		CashBuyRate:      r.CashBuyRate,
		CashSellRate:     r.CashSellRate,
		RemitSendRate:    r.RemitSendRate,
		RemitReceiveRate: r.RemitReceiveRate,
		Date:             r.Date,
		FetchedAt:        r.FetchedAt,
	}
}

func pageResponse(r *http.Request, p *service.RatePage) PageResponse {
	results := make([]RateResponse, 0, len(p.Results))
	for i := range p.Results {
		results = append(results, rateResponse(&p.Results[i]))
	}

	resp := PageResponse{
		Count:    p.Count,
		Page:     p.Page,
		PageSize: p.PageSize,
		Results:  results,
	}
	if p.HasNext {
		resp.Next = pageURL(r, p.Page+1)
	}
	if p.HasPrevious {
		resp.Previous = pageURL(r, p.Page-1)
	}
	return resp
}

// pageURL rebuilds the absolute request URL with page replaced.
func pageURL(r *http.Request, page int) *string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}

	q := r.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}

	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: q.Encode()}
	s := u.String()
	return &s
}
