// Package mailapi delivers notifications through an HTTP mail provider.
package mailapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/r3-fresh/tickets-management-sub000/internal/config"
	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
	"github.com/r3-fresh/tickets-management-sub000/internal/notification"
)

type sendRequest struct {
	From      string   `json:"from"`
	To        []string `json:"to"`
	CC        []string `json:"cc,omitempty"`
	Subject   string   `json:"subject"`
	HTML      string   `json:"html"`
	Text      string   `json:"text"`
	ThreadID  string   `json:"thread_id,omitempty"`
	InReplyTo string   `json:"in_reply_to,omitempty"`
}

type sendResponse struct {
	ThreadID  string `json:"thread_id"`
	MessageID string `json:"message_id"`
}

// Client implements notification.Port against the mail API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	from       string
	baseURL    string
	renderer   *Renderer
	logger     *zap.Logger
}

var _ notification.Port = (*Client)(nil)

// New builds a client from configuration.
func New(cfg config.NotificationConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		endpoint:   strings.TrimRight(cfg.MailAPIURL, "/") + "/messages",
		token:      cfg.MailAPIToken,
		from:       cfg.EmailFrom,
		baseURL:    cfg.PublicBaseURL,
		renderer:   NewRenderer(),
		logger:     logger,
	}
}

func (c *Client) NotifyCreated(ctx context.Context, snap domain.TicketSnapshot) (notification.Result, error) {
	return c.send(ctx, notification.Compose(notification.KindCreated, snap, "", c.baseURL))
}

func (c *Client) NotifyAssigned(ctx context.Context, snap domain.TicketSnapshot) (notification.Result, error) {
	return c.send(ctx, notification.Compose(notification.KindAssigned, snap, "", c.baseURL))
}

func (c *Client) NotifyValidationRequested(ctx context.Context, snap domain.TicketSnapshot, message string) (notification.Result, error) {
	return c.send(ctx, notification.Compose(notification.KindValidationRequested, snap, message, c.baseURL))
}

func (c *Client) NotifyResolved(ctx context.Context, snap domain.TicketSnapshot) (notification.Result, error) {
	return c.send(ctx, notification.Compose(notification.KindResolved, snap, "", c.baseURL))
}

func (c *Client) NotifyRejected(ctx context.Context, snap domain.TicketSnapshot) (notification.Result, error) {
	return c.send(ctx, notification.Compose(notification.KindRejected, snap, "", c.baseURL))
}

func (c *Client) send(ctx context.Context, msg notification.Message) (notification.Result, error) {
	if msg.Recipients.Empty() {
		c.logger.Debug("notification has no recipients; skipping",
			zap.String("kind", string(msg.Kind)),
			zap.String("ticket_code", msg.Snapshot.Ticket.Code))
		return notification.Result{}, nil
	}
	// Providers reject messages without a direct recipient.
	if len(msg.Recipients.To) == 0 {
		msg.Recipients.To, msg.Recipients.CC = msg.Recipients.CC, nil
	}

	htmlBody, err := c.renderer.HTML(msg)
	if err != nil {
		return notification.Result{}, err
	}

	payload, err := json.Marshal(sendRequest{
		From:      c.from,
		To:        msg.Recipients.To,
		CC:        msg.Recipients.CC,
		Subject:   msg.Subject,
		HTML:      htmlBody,
		Text:      c.renderer.Text(msg),
		ThreadID:  msg.ThreadID,
		InReplyTo: msg.InReplyTo,
	})
	if err != nil {
		return notification.Result{}, fmt.Errorf("encode mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return notification.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return notification.Result{}, fmt.Errorf("mail api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return notification.Result{}, fmt.Errorf("mail api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && err != io.EOF {
		return notification.Result{}, fmt.Errorf("decode mail response: %w", err)
	}

	c.logger.Debug("notification sent",
		zap.String("kind", string(msg.Kind)),
		zap.String("ticket_code", msg.Snapshot.Ticket.Code),
		zap.String("message_id", out.MessageID))
	return notification.Result{ThreadID: out.ThreadID, MessageID: out.MessageID}, nil
}
