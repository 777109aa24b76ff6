package http

import (
	"net/http/httptest"
	"testing"

	apperrors "bikerent/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLimitOffset(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int64
		wantErr    bool
	}{
		{name: "defaults", query: "", wantLimit: DefaultPaginationLimit, wantOffset: 0},
		{name: "explicit values", query: "?limit=25&offset=50", wantLimit: 25, wantOffset: 50},
		{name: "limit clamped", query: "?limit=5000", wantLimit: MaxPaginationLimit, wantOffset: 0},
		{name: "negative offset", query: "?offset=-3", wantLimit: DefaultPaginationLimit, wantOffset: 0},
		{name: "zero limit", query: "?limit=0", wantLimit: DefaultPaginationLimit, wantOffset: 0},
		{name: "bad limit", query: "?limit=abc", wantErr: true},
		{name: "bad offset", query: "?offset=1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/rentals"+tt.query, nil)
			limit, offset, err := ExtractLimitOffset(req)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestOptionalQuery(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/rentals?serial=123&tax_id=", nil)

	serial := OptionalQuery(req, "serial")
	require.NotNil(t, serial)
	assert.Equal(t, "123", *serial)
	assert.Nil(t, OptionalQuery(req, "tax_id"))
	assert.Nil(t, OptionalQuery(req, "missing"))
}

func TestWriteError_HidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteError(rec, apperrors.Internal("db exploded", assert.AnError)))

	assert.Equal(t, 500, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
	assert.NotContains(t, rec.Body.String(), "db exploded")
}

func TestWriteError_Conflict(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteError(rec, apperrors.Conflict("ASSET_UNAVAILABLE", "Bike already rented")))

	assert.Equal(t, 409, rec.Code)
	assert.JSONEq(t, `{"error":"Bike already rented","code":"ASSET_UNAVAILABLE"}`, rec.Body.String())
}
