package list

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/vpn-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// MockService реализует интерфейс list.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Accounts(ctx context.Context, telegramID int64) ([]*models.ProvisionedAccount, error) {
	args := m.Called(ctx, telegramID)
	if res := args.Get(0); res != nil {
		return res.([]*models.ProvisionedAccount), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestAccountsHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		authenticated  bool
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:          "аккаунты пользователя",
			authenticated: true,
			setupMock: func(m *MockService) {
				m.On("Accounts", mock.Anything, int64(100300)).
					Return([]*models.ProvisionedAccount{
						{ID: 7, Username: "tg100300-42", ServerAddress: "vpn.example.com:443", IsActive: true},
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"username":"tg100300-42"`,
		},
		{
			name:          "нет аккаунтов",
			authenticated: true,
			setupMock: func(m *MockService) {
				m.On("Accounts", mock.Anything, int64(100300)).
					Return([]*models.ProvisionedAccount{}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"accounts":[]`,
		},
		{
			name:           "без аутентификации",
			authenticated:  false,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"kind":"verification"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			tt.setupMock(service)

			handler := New(logger, service)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
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
