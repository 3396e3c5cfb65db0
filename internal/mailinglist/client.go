// Package mailinglist клиент провайдера рассылок: добавление подписчика в список.
package mailinglist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/magabrotheeeer/paid-signup/internal/lib/httpretry"
)

// ErrMemberExists адрес уже подписан на список
var ErrMemberExists = errors.New("member exists")

// StatusSubscribed статус подписчика при добавлении
const StatusSubscribed = "subscribed"

// APIError ошибка, возвращенная API провайдера
type APIError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mailing list api %d %s: %s", e.Status, e.Title, e.Detail)
}

// Member подписчик списка
type Member struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
	Status       string `json:"status"`
}

type addMemberRequest struct {
	EmailAddress string `json:"email_address"`
	Status       string `json:"status"`
}

// Client клиент API рассылок
type Client struct {
	apiKey  string
	baseURL string
	doer    httpretry.HTTPDoer
}

// NewClient создает клиент. При пустом apiURL адрес строится по датацентру из суффикса ключа.
func NewClient(apiURL, apiKey string, doer httpretry.HTTPDoer) (*Client, error) {
	const op = "mailinglist.NewClient"
	if apiURL == "" {
		dc, err := datacenter(apiKey)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		apiURL = "https://" + dc + ".api.mailchimp.com/3.0"
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(apiURL, "/"),
		doer:    doer,
	}, nil
}

func datacenter(apiKey string) (string, error) {
	i := strings.LastIndex(apiKey, "-")
	if i < 0 || i == len(apiKey)-1 {
		return "", errors.New("api key has no datacenter suffix")
	}
	return apiKey[i+1:], nil
}

// AddMember подписывает email на список listID
func (c *Client) AddMember(ctx context.Context, listID, email string) (*Member, error) {
	const op = "mailinglist.AddMember"

	payload, err := json.Marshal(addMemberRequest{EmailAddress: email, Status: StatusSubscribed})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	endpoint := c.baseURL + "/lists/" + url.PathEscape(listID) + "/members"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.SetBasicAuth("anystring", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(body, apiErr)
		if apiErr.Status == 0 {
			apiErr.Status = resp.StatusCode
		}
		if resp.StatusCode == http.StatusBadRequest && apiErr.Title == "Member Exists" {
			return nil, fmt.Errorf("%s: %w", op, ErrMemberExists)
		}
		return nil, fmt.Errorf("%s: %w", op, apiErr)
	}

	var member Member
	if err := json.Unmarshal(body, &member); err != nil {
		return nil, fmt.Errorf("%s: decode member: %w", op, err)
	}
	return &member, nil
}
