package read

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// MockService реализует интерфейс read.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Plan(ctx context.Context, planID int64) (*models.Plan, error) {
	args := m.Called(ctx, planID)
	if res := args.Get(0); res != nil {
		return res.(*models.Plan), args.Error(1)
	}
	return nil, args.Error(1)
}

func servePlan(t *testing.T, service *MockService, id string) *httptest.ResponseRecorder {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := chi.NewRouter()
	router.Get("/api/v1/plans/{id}", New(logger, service).ServeHTTP)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans/"+id, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPlanHandler(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "план найден",
			id:   "5",
			setupMock: func(m *MockService) {
				m.On("Plan", mock.Anything, int64(5)).
					Return(&models.Plan{ID: 5, Name: "Monthly", Price: 19900, DurationDays: 30, IsActive: true}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"name":"Monthly"`,
		},
		{
			name: "план не найден",
			id:   "9",
			setupMock: func(m *MockService) {
				m.On("Plan", mock.Anything, int64(9)).Return(nil, models.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"kind":"not_found"`,
		},
		{
			name:           "нечисловой id",
			id:             "abc",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"kind":"validation"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			tt.setupMock(service)

			rec := servePlan(t, service, tt.id)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			service.AssertExpectations(t)
		})
	}
}
