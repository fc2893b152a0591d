// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package dingtalk sends messages to DingTalk group robots through their
// webhook API.
//
// A [Client] is created once with the robot's access token and, if the robot
// has signing enabled, its secret:
//
//	c, err := dingtalk.New(dingtalk.Config{Token: token, Secret: secret})
//	if err != nil {
//		return err
//	}
//	_, err = c.SendText(ctx, dingtalk.Text{Content: "Build passed.", At: dingtalk.At{All: true}})
//
// Every message is validated before anything is sent. Validation failures
// match [ErrMissingField] or [ErrInvalidArgument], delivery failures are
// reported as [*TransportError] and errors returned by the API as
// [*RemoteError].
//
// A Client holds no mutable state and is safe for concurrent use.
package dingtalk

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.astrophena.name/dingtalk/internal/request"
)

const (
	// DefaultEndpoint is the robot webhook URL, without query parameters.
	DefaultEndpoint = "https://oapi.dingtalk.com/robot/send"
	// TokenLength is the length of a robot access token.
	TokenLength = 64

	contentType = "application/json; charset=utf-8"
)

// Config configures a Client.
type Config struct {
	// Token is the access_token parameter of the robot webhook URL.
	Token string
	// Secret enables request signing. Leave it empty for robots that use
	// keywords or an IP allowlist instead.
	Secret string
	// Endpoint overrides DefaultEndpoint.
	Endpoint string
	// HTTPClient is used to make requests. If nil, a client with a
	// 10 second timeout is used.
	HTTPClient *http.Client
	// Logger receives debug logs. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client sends messages to a single robot.
type Client struct {
	token    string
	secret   string
	endpoint string
	httpc    *http.Client
	slog     *slog.Logger
	scrubber *strings.Replacer
	// now acts as time.Now, but can be mocked for testing.
	now func() time.Time
}

// Response is the body returned by the robot API. ErrCode is zero on success.
type Response struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// New returns a Client for the robot identified by cfg.Token. It fails with
// ErrInvalidToken if the token is not TokenLength characters long.
func New(cfg Config) (*Client, error) {
	if len(cfg.Token) != TokenLength {
		return nil, fmt.Errorf("%w: want %d characters, got %d", ErrInvalidToken, TokenLength, len(cfg.Token))
	}

	scrub := []string{cfg.Token, "[EXPUNGED]"}
	if cfg.Secret != "" {
		scrub = append(scrub, cfg.Secret, "[EXPUNGED]")
	}

	c := &Client{
		token:    cfg.Token,
		secret:   cfg.Secret,
		endpoint: cmp.Or(cfg.Endpoint, DefaultEndpoint),
		httpc:    cfg.HTTPClient,
		slog:     cfg.Logger,
		scrubber: strings.NewReplacer(scrub...),
		now:      time.Now,
	}
	if c.httpc == nil {
		c.httpc = request.DefaultClient
	}
	if c.slog == nil {
		c.slog = slog.Default()
	}
	return c, nil
}

// Signed reports whether requests are signed.
func (c *Client) Signed() bool { return c.secret != "" }

// Send validates msg and posts it to the robot.
//
// If the API answers with a non-zero errcode, Send returns the response
// together with a *RemoteError.
func (c *Client) Send(ctx context.Context, msg Message) (*Response, error) {
	payload, err := build(msg)
	if err != nil {
		return nil, err
	}

	c.slog.Debug("sending message", slog.String("msgtype", msg.Type()), slog.Bool("signed", c.Signed()))

	resp, err := request.MakeJSON[Response](ctx, request.Params{
		Method: http.MethodPost,
		URL:    c.webhookURL(c.now()),
		Body:   payload,
		Headers: map[string]string{
			"Content-Type": contentType,
		},
		HTTPClient: c.httpc,
		Scrubber:   c.scrubber,
	})
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if resp.ErrCode != 0 {
		c.slog.Debug("robot API error", slog.Int("errcode", resp.ErrCode), slog.String("errmsg", resp.ErrMsg))
		return &resp, &RemoteError{Code: resp.ErrCode, Message: resp.ErrMsg}
	}
	return &resp, nil
}

// webhookURL returns the webhook URL. With a secret, the timestamp and signature
// are derived from now, so they must be computed for every request.
func (c *Client) webhookURL(now time.Time) string {
	u := c.endpoint + "?access_token=" + url.QueryEscape(c.token)
	ts, sign := c.Signature(now)
	if sign == "" {
		return u
	}
	return u + "&timestamp=" + strconv.FormatInt(ts, 10) + "&sign=" + sign
}

// Signature returns the timestamp and signature that authenticate a request
// made at t. The signature is empty if the client has no secret.
func (c *Client) Signature(t time.Time) (timestamp int64, sign string) {
	timestamp = t.UnixMilli()
	if c.secret == "" {
		return timestamp, ""
	}
	return timestamp, Sign(c.secret, timestamp)
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, m Text) (*Response, error) { return c.Send(ctx, m) }

// SendLink sends a hyperlink card.
func (c *Client) SendLink(ctx context.Context, m Link) (*Response, error) { return c.Send(ctx, m) }

// SendMarkdown sends a Markdown message.
func (c *Client) SendMarkdown(ctx context.Context, m Markdown) (*Response, error) {
	return c.Send(ctx, m)
}

// SendSingleActionCard sends an action card with a single button.
func (c *Client) SendSingleActionCard(ctx context.Context, m SingleActionCard) (*Response, error) {
	return c.Send(ctx, m)
}

// SendActionCard sends an action card with independent buttons.
func (c *Client) SendActionCard(ctx context.Context, m ActionCard) (*Response, error) {
	return c.Send(ctx, m)
}

// SendFeedCard sends a feed card.
func (c *Client) SendFeedCard(ctx context.Context, m FeedCard) (*Response, error) {
	return c.Send(ctx, m)
}
