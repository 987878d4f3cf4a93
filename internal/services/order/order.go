// Package order содержит бизнес-логику жизненного цикла заказа: создание,
// прикрепление чека, решения оператора и выдачу VPN-аккаунта.
package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/vpn-storefront/internal/cache"
	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-storefront/internal/metrics"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
	"github.com/magabrotheeeer/vpn-storefront/internal/provisioner"
	"github.com/magabrotheeeer/vpn-storefront/internal/storage/repository"
)

// MaxReceiptSize — предел размера файла чека.
const MaxReceiptSize = 10 << 20

// planCacheTTL — время жизни каталога планов в кэше.
const planCacheTTL = 5 * time.Minute

// ErrReceiptInvalid — чек не прошёл проверку типа или размера.
var ErrReceiptInvalid = errors.New("receipt file is not acceptable")

var allowedReceiptExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

// Repository описывает контракт хранилища для жизненного цикла заказа.
type Repository interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	ListActivePlans(ctx context.Context) ([]*models.Plan, error)
	GetActivePlan(ctx context.Context, id int64) (*models.Plan, error)
	ListUserAccounts(ctx context.Context, userID int64) ([]*models.ProvisionedAccount, error)
	CreateOrder(ctx context.Context, userID, planID int64) (*models.Order, error)
	SubmitOrder(ctx context.Context, userID, orderID int64, receiptPath, receiptName string) (*models.Order, error)
	ApproveOrder(ctx context.Context, orderID int64, provision repository.ProvisionFunc) (*models.OrderInfo, error)
	RejectOrder(ctx context.Context, orderID int64, note string) (*models.OrderInfo, error)
	GetUserOrder(ctx context.Context, userID, orderID int64) (*models.OrderInfo, error)
	GetOrderByToken(ctx context.Context, token string) (*models.OrderInfo, error)
	GetOrderDetails(ctx context.Context, orderID int64) (*models.OrderInfo, error)
	ListUserOrders(ctx context.Context, userID int64, limit, offset int) ([]*models.OrderInfo, error)
}

// PanelClient описывает контракт панели, выдающей VPN-аккаунты.
type PanelClient interface {
	CreateUser(ctx context.Context, req provisioner.CreateUserRequest) (*provisioner.CreateUserResponse, error)
}

// Publisher описывает контракт публикации уведомлений.
type Publisher interface {
	PublishOrderAlert(order *models.OrderInfo) error
	PublishCredentials(order *models.OrderInfo) error
	PublishRejection(order *models.OrderInfo) error
}

// PlanCache описывает контракт кэша каталога планов.
type PlanCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Service реализует операции над заказами.
type Service struct {
	log       *slog.Logger
	repo      Repository
	panel     PanelClient
	publisher Publisher
	cache     PlanCache
	metrics   *metrics.Metrics

	uploadDir     string
	serverAddress string
}

// New создает новый экземпляр Service.
func New(log *slog.Logger, repo Repository, panel PanelClient, publisher Publisher,
	planCache PlanCache, m *metrics.Metrics, uploadDir, serverAddress string) *Service {
	return &Service{
		log:           log,
		repo:          repo,
		panel:         panel,
		publisher:     publisher,
		cache:         planCache,
		metrics:       m,
		uploadDir:     uploadDir,
		serverAddress: serverAddress,
	}
}

// ListPlans возвращает каталог активных планов, по возможности из кэша.
func (s *Service) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	const op = "services.order.ListPlans"

	var plans []*models.Plan
	if s.cache != nil {
		found, err := s.cache.Get(ctx, cache.PlansKey, &plans)
		if err != nil {
			s.log.Warn("plan cache read failed", sl.Err(err))
		}
		if found {
			return plans, nil
		}
	}

	plans, err := s.repo.ListActivePlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.PlansKey, plans, planCacheTTL); err != nil {
			s.log.Warn("plan cache write failed", sl.Err(err))
		}
	}
	return plans, nil
}

// Plan возвращает активный план по ID, например, для ссылки на конкретный
// тариф. Выключенный план неотличим от несуществующего.
func (s *Service) Plan(ctx context.Context, planID int64) (*models.Plan, error) {
	const op = "services.order.Plan"

	plan, err := s.repo.GetActivePlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plan, nil
}

// Accounts возвращает выданные аккаунты пользователя, активные первыми.
func (s *Service) Accounts(ctx context.Context, telegramID int64) ([]*models.ProvisionedAccount, error) {
	const op = "services.order.Accounts"

	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	accounts, err := s.repo.ListUserAccounts(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return accounts, nil
}

// Create создаёт заказ для пользователя с данным telegram_id.
func (s *Service) Create(ctx context.Context, telegramID, planID int64) (*models.Order, error) {
	const op = "services.order.Create"

	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result, err := s.repo.CreateOrder(ctx, user.ID, planID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.OrdersCreated.Inc()
	return result, nil
}

// AttachReceipt сохраняет файл чека, переводит заказ в submitted и
// отправляет оператору сводку. Ошибка публикации не откатывает переход:
// заказ уже ждёт решения, сводку оператор получит при следующем событии.
func (s *Service) AttachReceipt(ctx context.Context, telegramID, orderID int64,
	file io.Reader, filename string, size int64) (*models.Order, error) {
	const op = "services.order.AttachReceipt"

	if err := validateReceipt(filename, size); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	storedPath, err := s.saveReceipt(file, filename)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result, err := s.repo.SubmitOrder(ctx, user.ID, orderID, storedPath, filename)
	if err != nil {
		_ = os.Remove(storedPath)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.OrdersSubmitted.Inc()

	info, err := s.repo.GetUserOrder(ctx, user.ID, orderID)
	if err != nil {
		s.log.Error("failed to load order for alert", sl.Err(err))
		return result, nil
	}
	if err := s.publisher.PublishOrderAlert(info); err != nil {
		s.log.Error("failed to publish order alert", sl.Err(err), slog.Int64("order_id", orderID))
	}
	return result, nil
}

// Approve подтверждает заказ, выдаёт аккаунт через панель и отправляет
// покупателю реквизиты.
func (s *Service) Approve(ctx context.Context, orderID int64) (*models.OrderInfo, error) {
	const op = "services.order.Approve"

	info, err := s.repo.ApproveOrder(ctx, orderID, s.provision)
	if err != nil {
		if errors.Is(err, models.ErrUpstream) {
			s.metrics.ProvisionFailures.Inc()
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.RecordDecision("approved")

	if err := s.publisher.PublishCredentials(info); err != nil {
		s.log.Error("failed to publish credentials", sl.Err(err), slog.Int64("order_id", orderID))
	}
	return info, nil
}

// provision создаёт пользователя в панели и превращает ответ в аккаунт.
// Вызывается хранилищем внутри транзакции подтверждения.
func (s *Service) provision(ctx context.Context, order *models.OrderInfo, plan *models.Plan) (*models.ProvisionedAccount, error) {
	username := fmt.Sprintf("tg%d-%d", order.TelegramID, order.ID)

	resp, err := s.panel.CreateUser(ctx, provisioner.CreateUserRequest{
		Name:         username,
		PackageDays:  plan.DurationDays,
		UsageLimitGB: plan.DataLimitGB,
		TelegramID:   order.TelegramID,
		Comment:      "Plan: " + plan.Name,
		Mode:         "no_reset",
	})
	if err != nil {
		return nil, err
	}

	return &models.ProvisionedAccount{
		Username:      username,
		Password:      resp.UUID,
		ServerAddress: s.serverAddress,
		ExpiresAt:     time.Now().UTC().AddDate(0, 0, plan.DurationDays),
	}, nil
}

// Reject отклоняет заказ и уведомляет покупателя.
func (s *Service) Reject(ctx context.Context, orderID int64, note string) (*models.OrderInfo, error) {
	const op = "services.order.Reject"

	info, err := s.repo.RejectOrder(ctx, orderID, note)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.RecordDecision("rejected")

	if err := s.publisher.PublishRejection(info); err != nil {
		s.log.Error("failed to publish rejection", sl.Err(err), slog.Int64("order_id", orderID))
	}
	return info, nil
}

// Get возвращает заказ пользователя с данными аккаунта, если он выдан.
func (s *Service) Get(ctx context.Context, telegramID, orderID int64) (*models.OrderInfo, error) {
	const op = "services.order.Get"

	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	info, err := s.repo.GetUserOrder(ctx, user.ID, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return info, nil
}

// Track возвращает заказ по публичному токену, без сессии. Токен выдаётся
// при создании заказа и служит безопасной ссылкой на его статус.
func (s *Service) Track(ctx context.Context, token string) (*models.OrderInfo, error) {
	const op = "services.order.Track"

	info, err := s.repo.GetOrderByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return info, nil
}

// Details возвращает заказ без фильтра по владельцу. Используется оператором.
func (s *Service) Details(ctx context.Context, orderID int64) (*models.OrderInfo, error) {
	const op = "services.order.Details"

	info, err := s.repo.GetOrderDetails(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return info, nil
}

// List возвращает историю заказов пользователя.
func (s *Service) List(ctx context.Context, telegramID int64, limit, offset int) ([]*models.OrderInfo, error) {
	const op = "services.order.List"

	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	list, err := s.repo.ListUserOrders(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// ReceiptFile возвращает путь и исходное имя файла чека заказа пользователя.
func (s *Service) ReceiptFile(ctx context.Context, telegramID, orderID int64) (path, name string, err error) {
	const op = "services.order.ReceiptFile"

	info, err := s.Get(ctx, telegramID, orderID)
	if err != nil {
		return "", "", err
	}
	if info.ReceiptPath == "" {
		return "", "", fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return info.ReceiptPath, info.ReceiptName, nil
}

func validateReceipt(filename string, size int64) error {
	if size <= 0 || size > MaxReceiptSize {
		return fmt.Errorf("%w: size %d", ErrReceiptInvalid, size)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedReceiptExt[ext] {
		return fmt.Errorf("%w: extension %q", ErrReceiptInvalid, ext)
	}
	return nil
}

// saveReceipt кладёт файл под случайным именем, оригинальное имя хранится
// отдельно в заказе.
func (s *Service) saveReceipt(file io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	storedPath := filepath.Join(s.uploadDir, uuid.NewString()+ext)

	dst, err := os.Create(storedPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, MaxReceiptSize+1)); err != nil {
		_ = os.Remove(storedPath)
		return "", err
	}
	return storedPath, nil
}
