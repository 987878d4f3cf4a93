package create

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/vpn-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// MockService реализует интерфейс create.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, telegramID, planID int64) (*models.Order, error) {
	args := m.Called(ctx, telegramID, planID)
	if res := args.Get(0); res != nil {
		return res.(*models.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		body           string
		authenticated  bool
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:          "успешное создание заказа",
			body:          `{"plan_id":5}`,
			authenticated: true,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, int64(100300), int64(5)).
					Return(&models.Order{ID: 42, PlanID: 5, Amount: 19900, Status: models.OrderStatusPending}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"pending"`,
		},
		{
			name:           "нет аутентификации",
			body:           `{"plan_id":5}`,
			authenticated:  false,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"kind":"verification"`,
		},
		{
			name:           "некорректный JSON",
			body:           `{`,
			authenticated:  true,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"kind":"validation"`,
		},
		{
			name:           "отсутствует plan_id",
			body:           `{}`,
			authenticated:  true,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"kind":"validation"`,
		},
		{
			name:          "уже есть незавершённый заказ",
			body:          `{"plan_id":5}`,
			authenticated: true,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, int64(100300), int64(5)).
					Return(nil, models.ErrOrderConflict)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"kind":"conflict"`,
		},
		{
			name:          "план не найден",
			body:          `{"plan_id":5}`,
			authenticated: true,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, int64(100300), int64(5)).
					Return(nil, models.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"kind":"not_found"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			tt.setupMock(service)

			handler := New(logger, service)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(tt.body))
			if tt.authenticated {
				ctx := context.WithValue(req.Context(), middlewarectx.TelegramID, int64(100300))
				req = req.WithContext(ctx)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			service.AssertExpectations(t)
		})
	}
}
