package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	domsvc "CoinCast/internal/domain/service"
	xhttp "CoinCast/pkg/http"
)

const defaultBaseURL = "https://api.telegram.org"

// Sender delivers text through the Bot API sendMessage method.
type Sender struct {
	baseURL string
	token   string
	http    *xhttp.Client
}

type Option func(*Sender)

func WithBaseURL(u string) Option {
	return func(s *Sender) {
		if u != "" {
			s.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Sender) { s.http = xhttp.NewClient(xhttp.WithTimeout(d)) }
}

func New(token string, opts ...Option) *Sender {
	s := &Sender{baseURL: defaultBaseURL, token: token}
	for _, opt := range opts {
		opt(s)
	}
	if s.http == nil {
		s.http = xhttp.NewClient(xhttp.WithTimeout(10 * time.Second))
	}
	return s
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (s *Sender) SendMessage(ctx context.Context, chatID, text string) error {
	if s.token == "" {
		return errors.New("telegram bot token is not configured")
	}
	var resp apiResponse
	err := s.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.token),
		Body:   sendMessageRequest{ChatID: chatID, Text: text},
	}, &resp)
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %w", s.redact(err))
	}
	if !resp.OK {
		return fmt.Errorf("telegram sendMessage rejected: %s", resp.Description)
	}
	return nil
}

// redact strips the bot token from URLs carried by transport errors.
func (s *Sender) redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = strings.ReplaceAll(ue.URL, s.token, "<redacted>")
	}
	return err
}

var _ domsvc.MessageSender = (*Sender)(nil)
