package accounts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client клиент сервиса аккаунтов: профили и удаление учетной записи
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetProfile получает профиль пользователя
func (c *Client) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	url := fmt.Sprintf("%s/internal/accounts/%s", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrAccountNotFound
	default:
		return nil, unexpectedStatus(resp)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return &profile, nil
}

// GetProfileWithGracefulDegradation получает профиль; при недоступности сервиса возвращает ErrServiceDegraded
// ErrAccountNotFound пробрасывается как есть
func (c *Client) GetProfileWithGracefulDegradation(ctx context.Context, id uuid.UUID) (*Profile, error) {
	profile, err := c.GetProfile(ctx, id)
	if err != nil {
		if err == ErrAccountNotFound {
			c.log.Warn("Accounts: profile id=%s not found", id)
			return nil, err
		}

		c.log.Error("Accounts: service unavailable, applying graceful degradation for id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: id=%s, error=%v", ErrServiceDegraded, id, err)
	}

	return profile, nil
}

// DeleteAccount удаляет профиль и учетную запись пользователя
func (c *Client) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	url := fmt.Sprintf("%s/internal/accounts/%s", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		c.log.Info("Accounts: deleted account id=%s", id)
		return nil
	case http.StatusNotFound:
		return ErrAccountNotFound
	default:
		return unexpectedStatus(resp)
	}
}

func unexpectedStatus(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var errResp ErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, errResp.Message)
	}
	return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
}
