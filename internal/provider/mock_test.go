package provider

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) FetchRates(ctx context.Context, date time.Time) ([]RawRate, error) {
	args := m.Called(ctx, date)
	rows, _ := args.Get(0).([]RawRate)
	return rows, args.Error(1)
}
