package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the storage and wire format of a quotation date.
const DateLayout = "2006-01-02"

// ExchangeRate is one quotation for one currency on one calendar date.
type ExchangeRate struct {
	ID               int64
	Code             string
	Name             string
	BaseRate         decimal.Decimal
	CashBuyRate      decimal.NullDecimal
	CashSellRate     decimal.NullDecimal
	RemitSendRate    decimal.NullDecimal
	RemitReceiveRate decimal.NullDecimal
	Date             time.Time
	FetchedAt        time.Time
}

// RateFilter narrows a listing. Zero values mean "no constraint"; all set fields are ANDed.
type RateFilter struct {
	Code     string
	Date     *time.Time
	DateFrom *time.Time
	DateTo   *time.Time
}

// RateRepository defines DB operations for exchange rates.
type RateRepository interface {
	Upsert(ctx context.Context, rate *ExchangeRate) (created bool, err error)
	List(ctx context.Context, filter RateFilter, limit, offset int) ([]ExchangeRate, int, error)
	GetByCodeAndDate(ctx context.Context, code string, date time.Time) (*ExchangeRate, error)
}

// PostgresRateRepository is an implementation of RateRepository using PostgreSQL.
type PostgresRateRepository struct {
	db *sql.DB
}

// NewPostgresRateRepository creates a new PostgresRateRepository.
func NewPostgresRateRepository(db *sql.DB) RateRepository {
	return &PostgresRateRepository{db: db}
}

const rateColumns = `id, code, name, base_rate, cash_buy_rate, cash_sell_rate,
                     remit_send_rate, remit_receive_rate, date, fetched_at`

// Upsert inserts the rate or overwrites every non-key column of the existing (code, date) row.
// fetched_at is only set on insert. ID and FetchedAt of rate are filled from the stored row.
func (r *PostgresRateRepository) Upsert(ctx context.Context, rate *ExchangeRate) (bool, error) {
	query := `INSERT INTO exchange_rates (code, name, base_rate, cash_buy_rate, cash_sell_rate,
                                          remit_send_rate, remit_receive_rate, date, fetched_at)
              VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8::date, NOW())
              ON CONFLICT (code, date) DO UPDATE SET
                  name = EXCLUDED.name,
                  base_rate = EXCLUDED.base_rate,
                  cash_buy_rate = EXCLUDED.cash_buy_rate,
                  cash_sell_rate = EXCLUDED.cash_sell_rate,
                  remit_send_rate = EXCLUDED.remit_send_rate,
                  remit_receive_rate = EXCLUDED.remit_receive_rate
              RETURNING id, fetched_at, (xmax = 0) AS created`

	var created bool
	err := r.db.QueryRowContext(ctx, query,
		rate.Code, rate.Name, rate.BaseRate,
		rate.CashBuyRate, rate.CashSellRate, rate.RemitSendRate, rate.RemitReceiveRate,
		rate.Date.Format(DateLayout),
	).Scan(&rate.ID, &rate.FetchedAt, &created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert rate %s/%s: %w", rate.Code, rate.Date.Format(DateLayout), err)
	}
	return created, nil
}

// List returns one page of rates matching filter ordered by date DESC, code ASC, plus the total match count.
func (r *PostgresRateRepository) List(ctx context.Context, filter RateFilter, limit, offset int) ([]ExchangeRate, int, error) {
	where, args := buildWhere(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM exchange_rates` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count rates: %w", err)
	}
	if total == 0 || offset >= total {
		return []ExchangeRate{}, total, nil
	}

	n := len(args)
	query := `SELECT ` + rateColumns + ` FROM exchange_rates` + where +
		` ORDER BY date DESC, code ASC, id ASC` +
		` LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rates: %w", err)
	}
	defer rows.Close() //nolint:errcheck // best-effort close

	rates := make([]ExchangeRate, 0, limit)
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, 0, err
		}
		rates = append(rates, *rate)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate rates: %w", err)
	}
	return rates, total, nil
}

// GetByCodeAndDate returns the single rate for (code, date), or (nil, nil) when none exists.
func (r *PostgresRateRepository) GetByCodeAndDate(ctx context.Context, code string, date time.Time) (*ExchangeRate, error) {
	query := `SELECT ` + rateColumns + `
              FROM exchange_rates
              WHERE code=$1 AND date=$2::date`

	rate, err := scanRate(r.db.QueryRowContext(ctx, query, code, date.Format(DateLayout)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rate, nil
}

func buildWhere(filter RateFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Code != "" {
		add("code = $%d", filter.Code)
	}
	if filter.Date != nil {
		add("date = $%d::date", filter.Date.Format(DateLayout))
	}
	if filter.DateFrom != nil {
		add("date >= $%d::date", filter.DateFrom.Format(DateLayout))
	}
	if filter.DateTo != nil {
		add("date <= $%d::date", filter.DateTo.Format(DateLayout))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRate maps a single row into an ExchangeRate. sql.ErrNoRows is returned unwrapped.
func scanRate(row rowScanner) (*ExchangeRate, error) {
	var rate ExchangeRate
	err := row.Scan(
		&rate.ID, &rate.Code, &rate.Name, &rate.BaseRate,
		&rate.CashBuyRate, &rate.CashSellRate, &rate.RemitSendRate, &rate.RemitReceiveRate,
		&rate.Date, &rate.FetchedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan rate: %w", err)
	}
	return &rate, nil
}
