package middlewarectx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/vpn-storefront/internal/lib/jwt"
)

type MockMaker struct {
	mock.Mock
}

func (m *MockMaker) GenerateToken(telegramID int64, username string) (string, error) {
	args := m.Called(telegramID, username)
	return args.String(0), args.Error(1)
}

func (m *MockMaker) ParseToken(tokenStr string) (*jwt.SessionClaims, error) {
	args := m.Called(tokenStr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jwt.SessionClaims), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestJWTMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
		mockSetup  func(m *MockMaker)
		wantStatus int
		wantNext   bool
	}{
		{
			name:       "valid token puts identity into context",
			authHeader: "Bearer good-token",
			mockSetup: func(m *MockMaker) {
				m.On("ParseToken", "good-token").
					Return(&jwt.SessionClaims{TelegramID: 100300, Username: "buyer"}, nil)
			},
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:       "missing header",
			authHeader: "",
			mockSetup:  func(_ *MockMaker) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			authHeader: "Basic abc",
			mockSetup:  func(_ *MockMaker) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			authHeader: "Bearer bad-token",
			mockSetup: func(m *MockMaker) {
				m.On("ParseToken", "bad-token").Return(nil, assert.AnError)
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maker := new(MockMaker)
			tt.mockSetup(maker)

			nextCalled := false
			next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				nextCalled = true
				id, ok := TelegramIDFromContext(r.Context())
				assert.True(t, ok)
				assert.Equal(t, int64(100300), id)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			JWTMiddleware(maker, testLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantNext, nextCalled)
			maker.AssertExpectations(t)
		})
	}
}
