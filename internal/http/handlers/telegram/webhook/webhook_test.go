package webhook

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// MockService реализует интерфейс webhook.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Approve(ctx context.Context, orderID int64) (*models.OrderInfo, error) {
	args := m.Called(ctx, orderID)
	if res := args.Get(0); res != nil {
		return res.(*models.OrderInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) Reject(ctx context.Context, orderID int64, note string) (*models.OrderInfo, error) {
	args := m.Called(ctx, orderID, note)
	if res := args.Get(0); res != nil {
		return res.(*models.OrderInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) Details(ctx context.Context, orderID int64) (*models.OrderInfo, error) {
	args := m.Called(ctx, orderID)
	if res := args.Get(0); res != nil {
		return res.(*models.OrderInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockNotifier реализует интерфейс webhook.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) AnswerCallback(callbackID, text string) error {
	return m.Called(callbackID, text).Error(0)
}

func (m *MockNotifier) EditOrderStatus(chatID int64, messageID int, text string) error {
	return m.Called(chatID, messageID, text).Error(0)
}

func (m *MockNotifier) SendOperatorReply(text string) error {
	return m.Called(text).Error(0)
}

const operatorID = int64(777)

func callbackUpdate(data string) string {
	return callbackUpdateFrom(operatorID, data)
}

func callbackUpdateFrom(fromID int64, data string) string {
	return fmt.Sprintf(`{"update_id":1,"callback_query":{"id":"cb-1","data":"%s","from":{"id":%d},"message":{"message_id":10,"chat":{"id":777}}}}`, data, fromID)
}

func serveWebhook(t *testing.T, service *MockService, notifier *MockNotifier, secret, body string) *httptest.ResponseRecorder {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := New(logger, service, notifier, "hook-secret", operatorID)

	router := chi.NewRouter()
	router.Post("/telegram/webhook/{secret}", handler.ServeHTTP)

	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook/"+secret, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_WrongSecret(t *testing.T) {
	service := new(MockService)
	notifier := new(MockNotifier)

	rec := serveWebhook(t, service, notifier, "wrong", callbackUpdate("approve:42"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	service.AssertNotCalled(t, "Approve")
	notifier.AssertNotCalled(t, "AnswerCallback")
}

func TestWebhook_NonOperatorCaller(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "чужое подтверждение", data: "approve:42"},
		{name: "чужое отклонение", data: "reject:42"},
		{name: "чужие детали", data: "details:42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			notifier := new(MockNotifier)
			notifier.On("AnswerCallback", "cb-1", "Действие недоступно").Return(nil)

			rec := serveWebhook(t, service, notifier, "hook-secret", callbackUpdateFrom(999999, tt.data))

			// Telegram получает 200, но решение не выполняется.
			assert.Equal(t, http.StatusOK, rec.Code)
			service.AssertNotCalled(t, "Approve")
			service.AssertNotCalled(t, "Reject")
			service.AssertNotCalled(t, "Details")
			notifier.AssertNotCalled(t, "EditOrderStatus")
			notifier.AssertExpectations(t)
		})
	}
}

func TestWebhook_Approve(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(service *MockService, notifier *MockNotifier)
	}{
		{
			name: "успешное подтверждение",
			setupMock: func(service *MockService, notifier *MockNotifier) {
				service.On("Approve", mock.Anything, int64(42)).
					Return(&models.OrderInfo{Order: models.Order{ID: 42, Status: models.OrderStatusApproved}}, nil)
				notifier.On("AnswerCallback", "cb-1", "Заказ #42 подтверждён, аккаунт выдан").Return(nil)
				notifier.On("EditOrderStatus", int64(777), 10, "Заказ #42 — подтверждён, аккаунт выдан").Return(nil)
			},
		},
		{
			name: "повторное нажатие",
			setupMock: func(service *MockService, notifier *MockNotifier) {
				service.On("Approve", mock.Anything, int64(42)).Return(nil, models.ErrInvalidState)
				notifier.On("AnswerCallback", "cb-1", "Заказ уже обработан").Return(nil)
			},
		},
		{
			name: "заказ не найден",
			setupMock: func(service *MockService, notifier *MockNotifier) {
				service.On("Approve", mock.Anything, int64(42)).Return(nil, models.ErrNotFound)
				notifier.On("AnswerCallback", "cb-1", "Заказ не найден").Return(nil)
			},
		},
		{
			name: "панель недоступна",
			setupMock: func(service *MockService, notifier *MockNotifier) {
				service.On("Approve", mock.Anything, int64(42)).Return(nil, models.ErrUpstream)
				notifier.On("AnswerCallback", "cb-1", "Панель недоступна, попробуйте позже").Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			notifier := new(MockNotifier)
			tt.setupMock(service, notifier)

			rec := serveWebhook(t, service, notifier, "hook-secret", callbackUpdate("approve:42"))

			// Telegram всегда получает 200, иначе он будет слать повтор.
			assert.Equal(t, http.StatusOK, rec.Code)
			service.AssertExpectations(t)
			notifier.AssertExpectations(t)
		})
	}
}

func TestWebhook_Reject(t *testing.T) {
	service := new(MockService)
	notifier := new(MockNotifier)

	service.On("Reject", mock.Anything, int64(42), "").
		Return(&models.OrderInfo{Order: models.Order{ID: 42, Status: models.OrderStatusRejected}}, nil)
	notifier.On("AnswerCallback", "cb-1", "Заказ #42 отклонён").Return(nil)
	notifier.On("EditOrderStatus", int64(777), 10, "Заказ #42 — отклонён").Return(nil)

	rec := serveWebhook(t, service, notifier, "hook-secret", callbackUpdate("reject:42"))

	assert.Equal(t, http.StatusOK, rec.Code)
	service.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestWebhook_Details(t *testing.T) {
	service := new(MockService)
	notifier := new(MockNotifier)

	service.On("Details", mock.Anything, int64(42)).
		Return(&models.OrderInfo{
			Order:      models.Order{ID: 42, Status: models.OrderStatusSubmitted, Amount: 19900},
			PlanName:   "Monthly",
			TelegramID: 100300,
			UserName:   "buyer",
		}, nil)
	notifier.On("AnswerCallback", "cb-1", "").Return(nil)
	notifier.On("SendOperatorReply", mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "Заказ #42") &&
			strings.Contains(text, "Monthly") &&
			strings.Contains(text, "199.00 ₽")
	})).Return(nil)

	rec := serveWebhook(t, service, notifier, "hook-secret", callbackUpdate("details:42"))

	assert.Equal(t, http.StatusOK, rec.Code)
	service.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestWebhook_UnknownCallbackData(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "нет разделителя", data: "approve42"},
		{name: "нечисловой id", data: "approve:abc"},
		{name: "неизвестное действие", data: "ban:42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			notifier := new(MockNotifier)
			notifier.On("AnswerCallback", "cb-1", "Неизвестная кнопка").Return(nil)

			rec := serveWebhook(t, service, notifier, "hook-secret", callbackUpdate(tt.data))

			assert.Equal(t, http.StatusOK, rec.Code)
			service.AssertNotCalled(t, "Approve")
			service.AssertNotCalled(t, "Reject")
			notifier.AssertExpectations(t)
		})
	}
}

func TestWebhook_NonCallbackUpdate(t *testing.T) {
	service := new(MockService)
	notifier := new(MockNotifier)

	body := `{"update_id":1,"message":{"message_id":5,"text":"hello"}}`
	rec := serveWebhook(t, service, notifier, "hook-secret", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	notifier.AssertNotCalled(t, "AnswerCallback")
}

func TestWebhook_MalformedBody(t *testing.T) {
	service := new(MockService)
	notifier := new(MockNotifier)

	rec := serveWebhook(t, service, notifier, "hook-secret", "not-json")

	assert.Equal(t, http.StatusOK, rec.Code)
	notifier.AssertNotCalled(t, "AnswerCallback")
}
