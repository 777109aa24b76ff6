package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	rentalserrors "bikerent/internal/rentals/errors"
	apperrors "bikerent/pkg/errors"
	"bikerent/pkg/logger"
	"bikerent/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRentalService struct {
	createFunc       func(ctx context.Context, req *model.RentalRequest) (*model.Rental, error)
	returnFunc       func(ctx context.Context, id string, req *model.ReturnRequest) (*model.Rental, error)
	getByIDFunc      func(ctx context.Context, id string) (*model.Rental, error)
	searchFunc       func(ctx context.Context, filter model.RentalFilter, limit int, offset int64) ([]*model.Rental, int64, error)
	listByRenterFunc func(ctx context.Context, renterID string, limit int, offset int64) ([]*model.Rental, int64, error)
}

func (m *mockRentalService) Create(ctx context.Context, req *model.RentalRequest) (*model.Rental, error) {
	return m.createFunc(ctx, req)
}

func (m *mockRentalService) Return(ctx context.Context, id string, req *model.ReturnRequest) (*model.Rental, error) {
	return m.returnFunc(ctx, id, req)
}

func (m *mockRentalService) GetByID(ctx context.Context, id string) (*model.Rental, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockRentalService) Search(ctx context.Context, filter model.RentalFilter, limit int, offset int64) ([]*model.Rental, int64, error) {
	return m.searchFunc(ctx, filter, limit, offset)
}

func (m *mockRentalService) ListByRenter(ctx context.Context, renterID string, limit int, offset int64) ([]*model.Rental, int64, error) {
	return m.listByRenterFunc(ctx, renterID, limit, offset)
}

func newRouter(svc *mockRentalService) *httprouter.Router {
	router := httprouter.New()
	NewRentalHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreate(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("created", func(t *testing.T) {
		svc := &mockRentalService{
			createFunc: func(_ context.Context, req *model.RentalRequest) (*model.Rental, error) {
				assert.Equal(t, "123456", req.Serial)
				assert.Equal(t, 2, req.DurationHours)
				return &model.Rental{ID: "r1", AssetSerial: req.Serial, StartedAt: start, ExpectedReturnAt: start.Add(3 * time.Hour)}, nil
			},
		}

		rec := serve(newRouter(svc), http.MethodPost, "/api/v1/rentals",
			`{"serial":"123456","tax_id":"047.835.850-40","contact_email":"ana@example.com","duration_hours":2}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		var body struct {
			Data model.Rental `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "r1", body.Data.ID)
		assert.Equal(t, start.Add(3*time.Hour), body.Data.ExpectedReturnAt)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := serve(newRouter(&mockRentalService{}), http.MethodPost, "/api/v1/rentals", `{"serial":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apperrors.CodeInvalidInput, decodeError(t, rec)["code"])
	})

	t.Run("conflict", func(t *testing.T) {
		svc := &mockRentalService{
			createFunc: func(context.Context, *model.RentalRequest) (*model.Rental, error) {
				return nil, apperrors.Conflict(rentalserrors.CodeAssetUnavailable, "Asset already has an open rental")
			},
		}
		rec := serve(newRouter(svc), http.MethodPost, "/api/v1/rentals", `{"serial":"123456"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, rentalserrors.CodeAssetUnavailable, decodeError(t, rec)["code"])
	})

	t.Run("internal errors are not leaked", func(t *testing.T) {
		svc := &mockRentalService{
			createFunc: func(context.Context, *model.RentalRequest) (*model.Rental, error) {
				return nil, errors.New("dial tcp 10.0.0.1:27017: refused")
			},
		}
		rec := serve(newRouter(svc), http.MethodPost, "/api/v1/rentals", `{"serial":"123456"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "10.0.0.1")
	})
}

func TestReturn(t *testing.T) {
	svc := &mockRentalService{
		returnFunc: func(_ context.Context, id string, req *model.ReturnRequest) (*model.Rental, error) {
			assert.Equal(t, "r1", id)
			if !req.Returned {
				return &model.Rental{ID: id}, nil
			}
			return nil, apperrors.Conflict(rentalserrors.CodeRenterMismatch, "Tax ID does not match")
		},
	}
	router := newRouter(svc)

	rec := serve(router, http.MethodPatch, "/api/v1/rentals/id/r1/return", `{"tax_id":"047.835.850-40","returned":false}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodPatch, "/api/v1/rentals/id/r1/return", `{"tax_id":"111.444.777-35","returned":true}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, rentalserrors.CodeRenterMismatch, decodeError(t, rec)["code"])

	rec = serve(router, http.MethodPatch, "/api/v1/rentals/id/r1/return", `nope`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetByID(t *testing.T) {
	svc := &mockRentalService{
		getByIDFunc: func(_ context.Context, id string) (*model.Rental, error) {
			if id == "missing" {
				return nil, apperrors.NotFoundWithID("Rental", id)
			}
			return &model.Rental{ID: id}, nil
		},
	}
	router := newRouter(svc)

	rec := serve(router, http.MethodGet, "/api/v1/rentals/id/r1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"r1"`)

	rec = serve(router, http.MethodGet, "/api/v1/rentals/id/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch(t *testing.T) {
	var gotFilter model.RentalFilter
	var gotLimit int
	var gotOffset int64
	svc := &mockRentalService{
		searchFunc: func(_ context.Context, filter model.RentalFilter, limit int, offset int64) ([]*model.Rental, int64, error) {
			gotFilter, gotLimit, gotOffset = filter, limit, offset
			return []*model.Rental{{ID: "r1"}}, 7, nil
		},
	}
	router := newRouter(svc)

	rec := serve(router, http.MethodGet, "/api/v1/rentals?serial=abc&limit=5&offset=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotFilter.Serial)
	assert.Equal(t, "abc", *gotFilter.Serial)
	assert.Nil(t, gotFilter.TaxID)
	assert.Equal(t, 5, gotLimit)
	assert.Equal(t, int64(2), gotOffset)

	var body struct {
		Data       []model.Rental `json:"data"`
		TotalCount int64          `json:"total_count"`
		Limit      int            `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, int64(7), body.TotalCount)
	assert.Equal(t, 5, body.Limit)

	rec = serve(router, http.MethodGet, "/api/v1/rentals?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListByRenter(t *testing.T) {
	svc := &mockRentalService{
		listByRenterFunc: func(_ context.Context, renterID string, limit int, offset int64) ([]*model.Rental, int64, error) {
			if renterID == "nobody" {
				return nil, 0, apperrors.NotFoundWithID("Renter", renterID)
			}
			return []*model.Rental{}, 0, nil
		},
	}
	router := newRouter(svc)

	rec := serve(router, http.MethodGet, "/api/v1/renters/r1/rentals", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodGet, "/api/v1/renters/nobody/rentals", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
