// Package tgauth реализует проверку подписанных данных аутентификации Telegram:
// виджета входа (Login Widget) и initData встроенного мини-приложения (Web App).
//
// Оба потока используют один алгоритм: из полей убирается hash, оставшиеся пары
// key=value сортируются по ключу и соединяются переводом строки, затем строка
// подписывается HMAC-SHA256 и сравнивается с присланным hash за константное время.
// Потоки различаются только ключом подписи: SHA256(botToken) для виджета и
// HMAC-SHA256("WebAppData", botToken) для мини-приложения — ключи не взаимозаменяемы.
package tgauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Ошибки проверки. Обработчики различают их, но наружу отдают одинаковый
// kind "verification", чтобы не подсказывать причину отказа.
var (
	// ErrHashMissing — в данных отсутствует поле hash.
	ErrHashMissing = errors.New("tgauth: hash is missing")
	// ErrHashMismatch — подпись не совпала с вычисленной.
	ErrHashMismatch = errors.New("tgauth: hash mismatch")
	// ErrStaleAuth — подпись верна, но auth_date вне допустимого окна.
	ErrStaleAuth = errors.New("tgauth: auth_date is outside freshness window")
	// ErrMalformed — данные имеют неверную структуру.
	ErrMalformed = errors.New("tgauth: malformed payload")
)

// Identity — проверенная личность пользователя Telegram.
type Identity struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	PhotoURL     string
	LanguageCode string
	AuthDate     time.Time
	// Raw содержит все поля исходных данных, кроме hash.
	Raw map[string]string
}

// VerifyLoginWidget проверяет плоский набор полей, пришедший от виджета входа
// Telegram. Ключ подписи — SHA256 от токена бота. Окно свежести задаёт
// вызывающая сторона: для виджета допустимо до суток.
func VerifyLoginWidget(fields map[string]string, botToken string, maxAge time.Duration) (*Identity, error) {
	if botToken == "" {
		return nil, fmt.Errorf("%w: bot token is not configured", ErrMalformed)
	}
	hash, rest, err := splitHash(fields)
	if err != nil {
		return nil, err
	}

	key := sha256.Sum256([]byte(botToken))
	if !validHash(rest, key[:], hash) {
		return nil, ErrHashMismatch
	}

	authDate, err := checkAuthDate(rest["auth_date"], maxAge)
	if err != nil {
		return nil, err
	}

	id, err := strconv.ParseInt(rest["id"], 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: invalid id", ErrMalformed)
	}

	return &Identity{
		ID:        id,
		Username:  rest["username"],
		FirstName: rest["first_name"],
		LastName:  rest["last_name"],
		PhotoURL:  rest["photo_url"],
		AuthDate:  authDate,
		Raw:       rest,
	}, nil
}

// initDataUser — JSON-поле user внутри initData мини-приложения.
type initDataUser struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PhotoURL     string `json:"photo_url"`
	LanguageCode string `json:"language_code"`
}

// VerifyInitData проверяет percent-encoded строку initData, которую встроенное
// мини-приложение получает от клиента Telegram. Ключ подписи —
// HMAC-SHA256(key="WebAppData", message=botToken). Окно свежести для этого
// потока короткое, рекомендуется 120 секунд.
func VerifyInitData(initData string, botToken string, maxAge time.Duration) (*Identity, error) {
	if botToken == "" {
		return nil, fmt.Errorf("%w: bot token is not configured", ErrMalformed)
	}
	pairs, err := parseInitData(initData)
	if err != nil {
		return nil, err
	}
	hash, rest, err := splitHash(pairs)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(botToken))
	key := mac.Sum(nil)
	if !validHash(rest, key, hash) {
		return nil, ErrHashMismatch
	}

	authDate, err := checkAuthDate(rest["auth_date"], maxAge)
	if err != nil {
		return nil, err
	}

	userJSON, ok := rest["user"]
	if !ok || userJSON == "" {
		return nil, fmt.Errorf("%w: user field is missing", ErrMalformed)
	}
	var user initDataUser
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, fmt.Errorf("%w: invalid user json", ErrMalformed)
	}
	if user.ID <= 0 {
		return nil, fmt.Errorf("%w: invalid user id", ErrMalformed)
	}

	return &Identity{
		ID:           user.ID,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		PhotoURL:     user.PhotoURL,
		LanguageCode: user.LanguageCode,
		AuthDate:     authDate,
		Raw:          rest,
	}, nil
}

// parseInitData разбирает percent-encoded строку в набор пар. Повторяющиеся
// ключи делают строку проверки неоднозначной, такие данные отклоняются.
func parseInitData(initData string) (map[string]string, error) {
	if strings.TrimSpace(initData) == "" {
		return nil, fmt.Errorf("%w: empty init data", ErrMalformed)
	}
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	pairs := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) != 1 {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrMalformed, k)
		}
		pairs[k] = v[0]
	}
	return pairs, nil
}

func splitHash(fields map[string]string) (string, map[string]string, error) {
	hash, ok := fields["hash"]
	if !ok || hash == "" {
		return "", nil, ErrHashMissing
	}
	rest := make(map[string]string, len(fields)-1)
	for k, v := range fields {
		if k == "hash" {
			continue
		}
		rest[k] = v
	}
	return hash, rest, nil
}

// checkString строит строку проверки: пары key=value, ключи отсортированы
// по байтам, разделитель — перевод строки. Значения берутся как есть,
// даже если содержат '=' или перевод строки.
func checkString(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
	}
	return b.String()
}

func validHash(fields map[string]string, key []byte, gotHash string) bool {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(checkString(fields)))
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(gotHash))
}

func checkAuthDate(raw string, maxAge time.Duration) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: auth_date is missing", ErrMalformed)
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid auth_date", ErrMalformed)
	}
	authDate := time.Unix(unix, 0)
	age := time.Since(authDate)
	if age < 0 {
		age = -age
	}
	if age > maxAge {
		return time.Time{}, ErrStaleAuth
	}
	return authDate, nil
}
