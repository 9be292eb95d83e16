package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sweetlab/sweetshop/internal/auth"
	sweeterrors "github.com/sweetlab/sweetshop/internal/errors"
	"github.com/sweetlab/sweetshop/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockInventoryService is a mock implementation of the InventoryService interface.
// Admin-gated methods honor the grant so authorization mapping can be tested.
type mockInventoryService struct {
	sweet    *service.SweetDto
	purchase *service.PurchaseDto
	error    error
}

func (m *mockInventoryService) Create(_ context.Context, grant auth.AdminGrant, _ service.SweetCreateDto) (*service.SweetDto, error) {
	if !grant.Valid() {
		return nil, sweeterrors.ErrAdminRequired
	}
	if m.error != nil {
		return nil, m.error
	}
	return m.sweet, nil
}

func (m *mockInventoryService) Update(_ context.Context, grant auth.AdminGrant, _ uuid.UUID, _ service.SweetUpdateDto) (*service.SweetDto, error) {
	if !grant.Valid() {
		return nil, sweeterrors.ErrAdminRequired
	}
	if m.error != nil {
		return nil, m.error
	}
	return m.sweet, nil
}

func (m *mockInventoryService) Delete(_ context.Context, grant auth.AdminGrant, _ uuid.UUID) error {
	if !grant.Valid() {
		return sweeterrors.ErrAdminRequired
	}
	return m.error
}

func (m *mockInventoryService) Purchase(_ context.Context, _ uuid.UUID, _ int32) (*service.PurchaseDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.purchase, nil
}

func (m *mockInventoryService) Restock(_ context.Context, grant auth.AdminGrant, _ uuid.UUID, _ int32) (*service.SweetDto, error) {
	if !grant.Valid() {
		return nil, sweeterrors.ErrAdminRequired
	}
	if m.error != nil {
		return nil, m.error
	}
	return m.sweet, nil
}

// mockCatalogService is a mock implementation of the CatalogService interface.
type mockCatalogService struct {
	sweet  *service.SweetDto
	sweets []service.SweetDto
	total  float64
	error  error
}

func (m *mockCatalogService) FindByID(_ context.Context, _ uuid.UUID) (*service.SweetDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.sweet, nil
}

func (m *mockCatalogService) FindAll(_ context.Context) ([]service.SweetDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.sweets, nil
}

func (m *mockCatalogService) Search(_ context.Context, _ service.SearchCriteria) ([]service.SweetDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.sweets, nil
}

func (m *mockCatalogService) TotalPriceByID(_ context.Context, _ uuid.UUID) (float64, error) {
	if m.error != nil {
		return 0, m.error
	}
	return m.total, nil
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func newTestRouter(inventory service.InventoryService, catalog service.CatalogService) *chi.Mux {
	logger := slog.New(slog.DiscardHandler)
	handler := NewHandler(inventory, catalog, logger)
	mux := chi.NewRouter()
	handler.RegisterRoutes(mux)
	return mux
}

func doRequest(t *testing.T, mux *chi.Mux, method, target, body, role string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("X-User-Id", uuid.NewString())
	if role != "" {
		req.Header.Set("X-User-Role", role)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func Test_Handler_FindAll(t *testing.T) {
	// given
	catalog := &mockCatalogService{
		sweets: []service.SweetDto{{ID: uuid.NewString(), Name: "Ladoo", Category: "Traditional", Price: 5, Stock: 10}},
	}
	mux := newTestRouter(&mockInventoryService{}, catalog)
	// when
	rec := doRequest(t, mux, http.MethodGet, "/api/v1/sweets", "", "user")
	// then
	assert.Equal(t, http.StatusOK, rec.Code)
	var list []service.SweetDto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
	assert.Equal(t, "Ladoo", list[0].Name)
}

func Test_Handler_FindAll_Unauthorized(t *testing.T) {
	mux := newTestRouter(&mockInventoryService{}, &mockCatalogService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sweets", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_Handler_FindByID(t *testing.T) {
	mockID := uuid.New()
	testCases := []struct {
		name           string
		catalog        *mockCatalogService
		target         string
		expectedStatus int
	}{
		{
			name: "Success - sweet found",
			catalog: &mockCatalogService{
				sweet: &service.SweetDto{ID: mockID.String(), Name: "Ladoo", Category: "Traditional", Price: 5, Stock: 10},
			},
			target:         "/api/v1/sweets/" + mockID.String(),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Error - sweet not found",
			catalog:        &mockCatalogService{error: sweeterrors.ErrSweetNotFound},
			target:         "/api/v1/sweets/" + mockID.String(),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Error - invalid ID",
			catalog:        &mockCatalogService{},
			target:         "/api/v1/sweets/not-a-uuid",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mux := newTestRouter(&mockInventoryService{}, tc.catalog)
			rec := doRequest(t, mux, http.MethodGet, tc.target, "", "user")
			assert.Equal(t, tc.expectedStatus, rec.Code)
		})
	}
}

func Test_Handler_Create(t *testing.T) {
	mockID := uuid.NewString()
	validBody := `{"name":"Ladoo","category":"Traditional","price":5,"stock":10}`
	testCases := []struct {
		name           string
		inventory      *mockInventoryService
		body           string
		role           string
		expectedStatus int
	}{
		{
			name: "Success - sweet created by admin",
			inventory: &mockInventoryService{
				sweet: &service.SweetDto{ID: mockID, Name: "Ladoo", Category: "Traditional", Price: 5, Stock: 10},
			},
			body:           validBody,
			role:           "admin",
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Error - non-admin role is forbidden",
			inventory:      &mockInventoryService{},
			body:           validBody,
			role:           "user",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "Error - missing required fields",
			inventory:      &mockInventoryService{},
			body:           `{"price":5}`,
			role:           "admin",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Error - malformed body",
			inventory:      &mockInventoryService{},
			body:           `{not json`,
			role:           "admin",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mux := newTestRouter(tc.inventory, &mockCatalogService{})
			rec := doRequest(t, mux, http.MethodPost, "/api/v1/sweets", tc.body, tc.role)
			assert.Equal(t, tc.expectedStatus, rec.Code)
		})
	}
}

func Test_Handler_Purchase(t *testing.T) {
	mockID := uuid.New()
	testCases := []struct {
		name           string
		inventory      *mockInventoryService
		body           string
		expectedStatus int
		expectedError  string
	}{
		{
			name: "Success - purchase returns total price",
			inventory: &mockInventoryService{
				purchase: &service.PurchaseDto{
					SweetDto:   service.SweetDto{ID: mockID.String(), Name: "Ladoo", Price: 5, Stock: 8},
					TotalPrice: 10,
				},
			},
			body:           `{"quantity":2}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Error - insufficient stock",
			inventory:      &mockInventoryService{error: sweeterrors.ErrInsufficientStock},
			body:           `{"quantity":100}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Insufficient stock",
		},
		{
			name:           "Error - sweet not found",
			inventory:      &mockInventoryService{error: sweeterrors.ErrSweetNotFound},
			body:           `{"quantity":1}`,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Error - zero quantity",
			inventory:      &mockInventoryService{},
			body:           `{"quantity":0}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mux := newTestRouter(tc.inventory, &mockCatalogService{})
			rec := doRequest(t, mux, http.MethodPost, "/api/v1/sweets/"+mockID.String()+"/purchase", tc.body, "user")
			assert.Equal(t, tc.expectedStatus, rec.Code)
			if tc.expectedError != "" {
				var errResp ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
				assert.Equal(t, tc.expectedError, errResp.Error)
			}
			if tc.expectedStatus == http.StatusOK {
				var purchase service.PurchaseDto
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &purchase))
				assert.Equal(t, 10.0, purchase.TotalPrice)
				assert.Equal(t, int32(8), purchase.Stock)
			}
		})
	}
}

func Test_Handler_Restock(t *testing.T) {
	mockID := uuid.New()
	testCases := []struct {
		name           string
		inventory      *mockInventoryService
		role           string
		expectedStatus int
	}{
		{
			name: "Success - restocked by admin",
			inventory: &mockInventoryService{
				sweet: &service.SweetDto{ID: mockID.String(), Name: "Ladoo", Stock: 12},
			},
			role:           "admin",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Error - non-admin role is forbidden",
			inventory:      &mockInventoryService{},
			role:           "user",
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mux := newTestRouter(tc.inventory, &mockCatalogService{})
			rec := doRequest(t, mux, http.MethodPost, "/api/v1/sweets/"+mockID.String()+"/restock", `{"quantity":4}`, tc.role)
			assert.Equal(t, tc.expectedStatus, rec.Code)
		})
	}
}

func Test_Handler_Update(t *testing.T) {
	mockID := uuid.New()
	testCases := []struct {
		name           string
		inventory      *mockInventoryService
		body           string
		expectedStatus int
	}{
		{
			name: "Success - partial update",
			inventory: &mockInventoryService{
				sweet: &service.SweetDto{ID: mockID.String(), Name: "Kaju Katli", Stock: 10},
			},
			body:           `{"name":"Kaju Katli"}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Error - empty patch",
			inventory:      &mockInventoryService{},
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Error - sweet not found",
			inventory:      &mockInventoryService{error: sweeterrors.ErrSweetNotFound},
			body:           `{"name":"Kaju Katli"}`,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mux := newTestRouter(tc.inventory, &mockCatalogService{})
			rec := doRequest(t, mux, http.MethodPut, "/api/v1/sweets/"+mockID.String(), tc.body, "admin")
			assert.Equal(t, tc.expectedStatus, rec.Code)
		})
	}
}

func Test_Handler_DeleteByID(t *testing.T) {
	mockID := uuid.New()
	testCases := []struct {
		name           string
		inventory      *mockInventoryService
		role           string
		expectedStatus int
	}{
		{
			name:           "Success - deleted by admin",
			inventory:      &mockInventoryService{},
			role:           "admin",
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "Error - sweet not found",
			inventory:      &mockInventoryService{error: sweeterrors.ErrSweetNotFound},
			role:           "admin",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Error - non-admin role is forbidden",
			inventory:      &mockInventoryService{},
			role:           "user",
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mux := newTestRouter(tc.inventory, &mockCatalogService{})
			rec := doRequest(t, mux, http.MethodDelete, "/api/v1/sweets/"+mockID.String(), "", tc.role)
			assert.Equal(t, tc.expectedStatus, rec.Code)
		})
	}
}

func Test_Handler_Search(t *testing.T) {
	testCases := []struct {
		name           string
		target         string
		expectedStatus int
	}{
		{
			name:           "Success - search by category",
			target:         "/api/v1/sweets/search?category=Traditional",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Success - search with price bounds",
			target:         "/api/v1/sweets/search?minPrice=1&maxPrice=10",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Error - minPrice exceeds maxPrice",
			target:         "/api/v1/sweets/search?minPrice=10&maxPrice=1",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Error - malformed price bound",
			target:         "/api/v1/sweets/search?minPrice=abc",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mux := newTestRouter(&mockInventoryService{}, &mockCatalogService{sweets: []service.SweetDto{}})
			rec := doRequest(t, mux, http.MethodGet, tc.target, "", "user")
			assert.Equal(t, tc.expectedStatus, rec.Code)
		})
	}
}

func Test_Handler_TotalPrice(t *testing.T) {
	// given
	mockID := uuid.New()
	mux := newTestRouter(&mockInventoryService{}, &mockCatalogService{total: 50})
	// when
	rec := doRequest(t, mux, http.MethodGet, "/api/v1/sweets/"+mockID.String()+"/total-price", "", "user")
	// then
	assert.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 50.0, payload["total_price"])
}

func Test_Handler_HealthCheck(t *testing.T) {
	mux := newTestRouter(&mockInventoryService{}, &mockCatalogService{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
