package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultAuthScheme prefixes the session token in the Authorization header.
const DefaultAuthScheme = "twa"

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	AuthScheme string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client issues authenticated requests against the chat service REST API.
type Client struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a client for the service rooted at opts.BaseURL.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		return nil, errors.New("api: base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}

	scheme := opts.AuthScheme
	if scheme == "" {
		scheme = DefaultAuthScheme
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    base,
		authHeader: scheme + " " + opts.Token,
		httpClient: httpClient,
		logger:     logger.Named("api"),
	}, nil
}

type listChatsResponse struct {
	Chats []ChatSummary `json:"chats"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	Message Message `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ListChats returns the chat summaries in service order.
func (c *Client) ListChats(ctx context.Context) ([]ChatSummary, error) {
	var resp listChatsResponse
	if err := c.do(ctx, http.MethodGet, "/chats", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Chats == nil {
		return []ChatSummary{}, nil
	}
	return resp.Chats, nil
}

// FetchMessages returns the partner and the most recent limit messages,
// oldest first. A non-positive limit uses DefaultMessageLimit.
func (c *Client) FetchMessages(ctx context.Context, partnerID PartnerID, limit int) (*Conversation, error) {
	if partnerID == "" {
		return nil, ErrMissingPartner
	}
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	path := chatPath(partnerID, "messages") + "?limit=" + strconv.Itoa(limit)

	var conv Conversation
	if err := c.do(ctx, http.MethodGet, path, nil, &conv); err != nil {
		return nil, err
	}
	conv.Messages = c.dropInvalid(partnerID, conv.Messages)
	return &conv, nil
}

// dropInvalid filters out messages that carry more than one content kind.
func (c *Client) dropInvalid(partnerID PartnerID, msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if err := m.Validate(); err != nil {
			c.logger.Warn("dropping malformed message",
				zap.String("partner_id", partnerID.String()),
				zap.Int64("message_id", m.ID),
				zap.Error(err))
			continue
		}
		out = append(out, m)
	}
	return out
}

// SendMessage appends text to the conversation and returns the stored
// message as the service recorded it.
func (c *Client) SendMessage(ctx context.Context, partnerID PartnerID, text string) (*Message, error) {
	if partnerID == "" {
		return nil, ErrMissingPartner
	}
	text, err := NormalizeText(text)
	if err != nil {
		return nil, err
	}

	var resp sendMessageResponse
	if err := c.do(ctx, http.MethodPost, chatPath(partnerID, "messages"), sendMessageRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	return &resp.Message, nil
}

// BlockPartner blocks the partner. Blocked partners disappear from ListChats.
func (c *Client) BlockPartner(ctx context.Context, partnerID PartnerID) error {
	if partnerID == "" {
		return ErrMissingPartner
	}
	return c.do(ctx, http.MethodPost, chatPath(partnerID, "block"), nil, nil)
}

func chatPath(partnerID PartnerID, action string) string {
	return "/chats/" + url.PathEscape(string(partnerID)) + "/" + action
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path
	requestID := uuid.New().String()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("op", op), zap.String("request_id", requestID), zap.Error(err))
		return &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("request completed",
		zap.String("op", op),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeServiceError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func decodeServiceError(resp *http.Response) error {
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return &ServiceError{Code: resp.StatusCode, Message: defaultErrorMessage}
	}
	if body.Error == "" {
		return &ServiceError{Code: resp.StatusCode, Message: "HTTP " + strconv.Itoa(resp.StatusCode)}
	}
	return &ServiceError{Code: resp.StatusCode, Message: body.Error}
}
