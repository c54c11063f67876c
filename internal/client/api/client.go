// Package api содержит HTTP клиент удаленного sync-сервера и таксономию
// ошибок, по которой оркестратор классифицирует результаты отправки.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iudanet/fieldkeeper/pkg/api"
)

//go:generate moq -out clientapi_mock.go . ClientAPI

// DefaultAttemptTimeout - таймаут одной попытки запроса.
// Срабатывание таймаута считается временным сбоем.
const DefaultAttemptTimeout = 10 * time.Second

// ClientAPI определяет контракт удаленного сервера для оркестратора
type ClientAPI interface {
	// Register регистрирует новое устройство
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)

	// Login выполняет аутентификацию устройства
	Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error)

	// BatchSync отправляет партию исходящих мутаций и возвращает
	// по-элементные результаты
	BatchSync(ctx context.Context, token string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error)

	// Health проверяет достижимость сервера
	Health(ctx context.Context) error
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
}

var _ ClientAPI = (*Client)(nil)

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultAttemptTimeout,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// Register регистрирует новое устройство
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	err := c.doRequest(ctx, "POST", "/api/v1/auth/register", "", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию устройства
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.doRequest(ctx, "POST", "/api/v1/auth/login", "", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// BatchSync отправляет партию мутаций на сервер
func (c *Client) BatchSync(ctx context.Context, token string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
	var resp api.BatchSyncResponse
	err := c.doRequest(ctx, "POST", "/api/v1/sync", token, req, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health проверяет достижимость сервера.
// Используется как проба reachability при переходе online.
func (c *Client) Health(ctx context.Context) error {
	return c.doRequest(ctx, "GET", "/api/v1/health", "", nil, nil)
}

// doRequest выполняет HTTP запрос и классифицирует исход:
// сетевые сбои, таймауты, 408/429/5xx - TransientError;
// 400/422 - ValidationError; 401 - ErrUnauthorized.
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Сетевой сбой или таймаут попытки
		return &TransientError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransientError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if err := classifyStatus(resp.StatusCode, respBody); err != nil {
		return err
	}

	// Декодируем успешный ответ
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func classifyStatus(status int, respBody []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	message := string(respBody)
	var errResp api.ErrorResponse
	if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
		message = errResp.Error
		if errResp.Message != "" {
			message = errResp.Error + ": " + errResp.Message
		}
	}

	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500:
		return &TransientError{Err: fmt.Errorf("server error (%d): %s", status, message)}
	default:
		return &ValidationError{Status: status, Message: message}
	}
}
