package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateListParams(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		params  ListParams
		wantErr error
	}{
		{"zero value", ListParams{}, nil},
		{"full", ListParams{Code: "usd", Date: "2024-01-15", DateFrom: "2024-01-01", DateTo: "2024-01-31", Page: 2, PageSize: 50}, nil},
		{"bad date", ListParams{Date: "2024-13-40"}, ErrInvalidDate},
		{"bad date_from", ListParams{DateFrom: "yesterday"}, ErrInvalidDate},
		{"bad date_to", ListParams{DateTo: "2024/01/31"}, ErrInvalidDate},
		{"negative page", ListParams{Page: -1}, ErrInvalidPage},
		{"negative page_size", ListParams{PageSize: -5}, ErrInvalidPage},
		{"code too long", ListParams{Code: "ABCDEFGHIJKLMNOPQ"}, ErrInvalidCode},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateListParams(tc.params)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}
}
