package relay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CoinCast/internal/domain/models"
	domsvc "CoinCast/internal/domain/service"
	xhttp "CoinCast/pkg/http"
)

// Client posts notifications to the relay's /send_message endpoint.
type Client struct {
	baseURL string
	http    *xhttp.Client
}

// New builds a relay client. timeout bounds every call; there are no retries.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

func (c *Client) Notify(ctx context.Context, n models.Notification) error {
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     c.baseURL + "/send_message",
		Headers: map[string]string{"Content-Type": xhttp.ContentTypeForm},
		Body: map[string]string{
			"userId":  n.UserID,
			"message": n.Message,
			"lang":    n.Lang,
		},
	}, nil)
	if err != nil {
		return fmt.Errorf("relay send_message for %s: %w", n.UserID, err)
	}
	return nil
}

var _ domsvc.Notifier = (*Client)(nil)
