package notify

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
	"github.com/magabrotheeeer/vpn-storefront/internal/rabbitmq"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendOrderAlert(order *models.OrderInfo, receiptPath string) error {
	args := m.Called(order, receiptPath)
	return args.Error(0)
}

func (m *MockNotifier) SendCredentials(chatID int64, planName string, account *models.ProvisionedAccount) error {
	args := m.Called(chatID, planName, account)
	return args.Error(0)
}

func (m *MockNotifier) SendRejection(chatID int64, planName, note string) error {
	args := m.Called(chatID, planName, note)
	return args.Error(0)
}

func (m *MockNotifier) SendExpiryWarning(chatID int64, username string, expiresAt time.Time) error {
	args := m.Called(chatID, username, expiresAt)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendOrderAlert(t *testing.T) {
	notifier := new(MockNotifier)
	service := NewSenderService(discardLogger(), notifier)

	notifier.On("SendOrderAlert", mock.MatchedBy(func(o *models.OrderInfo) bool {
		return o.ID == 42 && o.PlanName == "Monthly" && o.TelegramID == 100300
	}), "uploads/r.png").Return(nil)

	body, err := json.Marshal(OrderAlertMessage{
		OrderID:     42,
		PlanName:    "Monthly",
		Amount:      19900,
		TelegramID:  100300,
		Username:    "buyer",
		ReceiptPath: "uploads/r.png",
	})
	require.NoError(t, err)

	assert.NoError(t, service.SendOrderAlert(body))
	notifier.AssertExpectations(t)
}

func TestSendOrderAlert_InvalidJSON(t *testing.T) {
	notifier := new(MockNotifier)
	service := NewSenderService(discardLogger(), notifier)

	err := service.SendOrderAlert([]byte("not-json"))
	assert.ErrorIs(t, err, rabbitmq.ErrUnprocessable)
	notifier.AssertNotCalled(t, "SendOrderAlert")
}

func TestSendCredentials(t *testing.T) {
	notifier := new(MockNotifier)
	service := NewSenderService(discardLogger(), notifier)

	notifier.On("SendCredentials", int64(100300), "Monthly",
		mock.MatchedBy(func(a *models.ProvisionedAccount) bool {
			return a.Username == "vpn-user-1"
		})).Return(nil)

	body, err := json.Marshal(CredentialsMessage{
		TelegramID: 100300,
		PlanName:   "Monthly",
		Account:    models.ProvisionedAccount{Username: "vpn-user-1", Password: "secret"},
	})
	require.NoError(t, err)

	assert.NoError(t, service.SendCredentials(body))
	notifier.AssertExpectations(t)
}

func TestSendRejection_NotifierError(t *testing.T) {
	notifier := new(MockNotifier)
	service := NewSenderService(discardLogger(), notifier)

	sendErr := errors.New("telegram unavailable")
	notifier.On("SendRejection", int64(100300), "Monthly", "bad receipt").Return(sendErr)

	body, err := json.Marshal(RejectionMessage{TelegramID: 100300, PlanName: "Monthly", Note: "bad receipt"})
	require.NoError(t, err)

	assert.ErrorIs(t, service.SendRejection(body), sendErr)
}

func TestSendExpiryWarning(t *testing.T) {
	notifier := new(MockNotifier)
	service := NewSenderService(discardLogger(), notifier)

	expiresAt := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	notifier.On("SendExpiryWarning", int64(100300), "vpn-user-1", expiresAt).Return(nil)

	body, err := json.Marshal(ExpiryMessage{
		AccountID:  7,
		TelegramID: 100300,
		Username:   "vpn-user-1",
		ExpiresAt:  expiresAt,
	})
	require.NoError(t, err)

	assert.NoError(t, service.SendExpiryWarning(body))
	notifier.AssertExpectations(t)
}
