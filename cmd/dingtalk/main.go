// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"cmp"
	"context"
	"crypto/x509"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.astrophena.name/dingtalk"
	"go.astrophena.name/dingtalk/internal/cli"
	"go.astrophena.name/dingtalk/internal/cli/restrict"
	"go.astrophena.name/dingtalk/internal/feedcard"
	"go.astrophena.name/dingtalk/internal/httplogger"
	"go.astrophena.name/dingtalk/internal/logger"
	"go.astrophena.name/dingtalk/internal/request"
	"go.astrophena.name/dingtalk/internal/starlark/interpreter"
	dingtalklib "go.astrophena.name/dingtalk/internal/starlark/lib/dingtalk"

	starlarkjson "go.starlark.net/lib/json"
	starlarktime "go.starlark.net/lib/time"
	"go.starlark.net/starlark"
)

var errNoToken = errors.New("access token is required, pass -token or set DINGTALK_TOKEN")

func main() { cli.Main(new(app)) }

type app struct {
	// configuration
	token    string
	secret   string
	endpoint string
	logLevel string

	// message
	title       string
	url         string
	picture     string
	at          string
	atAll       bool
	buttonTitle string
	hideAvatar  bool
	horizontal  bool
	limit       int
	dry         bool

	// initialized by Run
	log   *slog.Logger
	httpc *http.Client

	now func() time.Time // used in tests
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.StringVar(&a.token, "token", "", "Robot access token. Defaults to DINGTALK_TOKEN.")
	fs.StringVar(&a.secret, "secret", "", "Robot signing secret. Defaults to DINGTALK_SECRET.")
	fs.StringVar(&a.endpoint, "endpoint", "", "Webhook endpoint. Defaults to DINGTALK_ENDPOINT or "+dingtalk.DefaultEndpoint+".")
	fs.StringVar(&a.logLevel, "log-level", "", "Log level: trace, debug, info, warn or error. Defaults to DINGTALK_LOG_LEVEL or info.")

	fs.StringVar(&a.title, "title", "", "Message `title`.")
	fs.StringVar(&a.url, "url", "", "URL opened by a link card or a single button card.")
	fs.StringVar(&a.picture, "picture", "", "Picture URL of a link card, or the fallback picture of feed items.")
	fs.StringVar(&a.at, "at", "", "Comma-separated `mobiles` to mention.")
	fs.BoolVar(&a.atAll, "at-all", false, "Mention everyone in the group.")
	fs.StringVar(&a.buttonTitle, "button-title", "Read more", "Button label of a single button card.")
	fs.BoolVar(&a.hideAvatar, "hide-avatar", false, "Hide the robot avatar on action cards.")
	fs.BoolVar(&a.horizontal, "horizontal", false, "Lay out action card buttons horizontally.")
	fs.IntVar(&a.limit, "limit", feedcard.DefaultLimit, "Maximum number of feed items to send.")
	fs.BoolVar(&a.dry, "dry", false, "Print the request body instead of sending it.")
}

func (a *app) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)

	// Load configuration from environment variables.
	a.token = cmp.Or(a.token, env.Getenv("DINGTALK_TOKEN"))
	a.secret = cmp.Or(a.secret, env.Getenv("DINGTALK_SECRET"))
	a.endpoint = cmp.Or(a.endpoint, env.Getenv("DINGTALK_ENDPOINT"))
	a.logLevel = cmp.Or(a.logLevel, env.Getenv("DINGTALK_LOG_LEVEL"))
	if a.now == nil {
		a.now = time.Now
	}

	level, err := logger.ParseLevel(a.logLevel)
	if err != nil {
		return fmt.Errorf("%w: %v", cli.ErrInvalidArgs, err)
	}
	a.log = slog.New(logger.NewHandler(env.Stderr, logger.Options{
		Level:  level,
		Redact: []string{"token", "secret"},
	}))
	a.httpc = &http.Client{
		Timeout:   request.DefaultClient.Timeout,
		Transport: httplogger.New(http.DefaultTransport, a.log, "access_token", "sign"),
	}

	if len(env.Args) == 0 {
		return fmt.Errorf("%w: command is required, see -help for usage", cli.ErrInvalidArgs)
	}
	command, args := env.Args[0], env.Args[1:]

	switch command {
	case "script-help":
		fmt.Fprint(env.Stdout, dingtalklib.Documentation())
		return nil
	case "sign":
		return a.sign(env)
	case "script":
		if len(args) != 1 {
			return fmt.Errorf("%w: script command expects a file name", cli.ErrInvalidArgs)
		}
		return a.script(ctx, args[0])
	}

	msg, err := a.message(ctx, env, command, args)
	if err != nil {
		return err
	}

	if a.dry {
		payload, err := dingtalk.Payload(msg)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(env.Stdout, "%s\n", payload)
		return err
	}

	c, err := a.client()
	if err != nil {
		return err
	}
	resp, err := c.Send(ctx, msg)
	if resp != nil {
		if err := json.NewEncoder(env.Stdout).Encode(resp); err != nil {
			return err
		}
	}
	return err
}

func (a *app) client() (*dingtalk.Client, error) {
	if a.token == "" {
		return nil, errNoToken
	}
	return dingtalk.New(dingtalk.Config{
		Token:      a.token,
		Secret:     a.secret,
		Endpoint:   a.endpoint,
		HTTPClient: a.httpc,
		Logger:     a.log,
	})
}

func (a *app) message(ctx context.Context, env *cli.Env, command string, args []string) (dingtalk.Message, error) {
	orientation := dingtalk.Vertical
	if a.horizontal {
		orientation = dingtalk.Horizontal
	}

	switch command {
	case "text":
		content, err := textArg(env, command, args)
		if err != nil {
			return nil, err
		}
		at, err := a.mentions()
		if err != nil {
			return nil, err
		}
		return dingtalk.Text{Content: content, At: at}, nil
	case "markdown":
		text, err := textArg(env, command, args)
		if err != nil {
			return nil, err
		}
		at, err := a.mentions()
		if err != nil {
			return nil, err
		}
		return dingtalk.Markdown{Title: a.title, Text: text, At: at}, nil
	case "link":
		text, err := textArg(env, command, args)
		if err != nil {
			return nil, err
		}
		return dingtalk.Link{Title: a.title, Text: text, MessageURL: a.url, PictureURL: a.picture}, nil
	case "single-card":
		text, err := textArg(env, command, args)
		if err != nil {
			return nil, err
		}
		return dingtalk.SingleActionCard{
			Title:             a.title,
			Text:              text,
			SingleTitle:       a.buttonTitle,
			SingleURL:         a.url,
			HideAvatar:        a.hideAvatar,
			ButtonOrientation: orientation,
		}, nil
	case "card":
		if len(args) < 2 {
			return nil, fmt.Errorf("%w: card command expects text and at least one title=url button", cli.ErrInvalidArgs)
		}
		text, err := textArg(env, command, args[:1])
		if err != nil {
			return nil, err
		}
		buttons, err := parseButtons(args[1:])
		if err != nil {
			return nil, err
		}
		return dingtalk.ActionCard{
			Title:             a.title,
			Text:              text,
			Buttons:           buttons,
			HideAvatar:        a.hideAvatar,
			ButtonOrientation: orientation,
		}, nil
	case "feed-card":
		if len(args) != 0 {
			return nil, fmt.Errorf("%w: feed-card command reads links from standard input and takes no arguments", cli.ErrInvalidArgs)
		}
		return readFeedCard(env.Stdin)
	case "feed":
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: feed command expects a feed URL", cli.ErrInvalidArgs)
		}
		feed, err := feedcard.Fetch(ctx, a.httpc, args[0])
		if err != nil {
			return nil, err
		}
		a.log.Debug("fetched feed", "url", args[0], "title", feed.Title, "items", len(feed.Items))
		return feedcard.FromFeed(feed, a.limit, a.picture), nil
	default:
		return nil, fmt.Errorf("%w: no such command %q", cli.ErrInvalidArgs, command)
	}
}

func (a *app) mentions() (dingtalk.At, error) {
	mobiles, err := dingtalk.ParseMobiles(a.at)
	if err != nil {
		return dingtalk.At{}, err
	}
	return dingtalk.At{Mobiles: mobiles, All: a.atAll}, nil
}

// textArg returns the only argument, or standard input if it is "-".
func textArg(env *cli.Env, command string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: %s command expects exactly one argument", cli.ErrInvalidArgs, command)
	}
	if args[0] != "-" {
		return args[0], nil
	}
	b, err := io.ReadAll(env.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\n"), nil
}

func parseButtons(args []string) ([]dingtalk.Button, error) {
	buttons := make([]dingtalk.Button, 0, len(args))
	for _, arg := range args {
		title, url, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("%w: button %q must look like title=url", cli.ErrInvalidArgs, arg)
		}
		buttons = append(buttons, dingtalk.Button{Title: title, ActionURL: url})
	}
	return buttons, nil
}

type feedLink struct {
	Title      string `json:"title"`
	MessageURL string `json:"message_url"`
	PictureURL string `json:"picture_url"`
}

func readFeedCard(r io.Reader) (dingtalk.FeedCard, error) {
	var links []feedLink
	if err := json.NewDecoder(r).Decode(&links); err != nil {
		return dingtalk.FeedCard{}, fmt.Errorf("%w: reading feed card links: %v", cli.ErrInvalidArgs, err)
	}
	card := dingtalk.FeedCard{Links: make([]dingtalk.FeedLink, 0, len(links))}
	for _, l := range links {
		card.Links = append(card.Links, dingtalk.FeedLink{Title: l.Title, MessageURL: l.MessageURL, PictureURL: l.PictureURL})
	}
	return card, nil
}

func (a *app) sign(env *cli.Env) error {
	if a.secret == "" {
		return errors.New("secret is required, pass -secret or set DINGTALK_SECRET")
	}
	ts := a.now().UnixMilli()
	return json.NewEncoder(env.Stdout).Encode(struct {
		Timestamp int64  `json:"timestamp"`
		Sign      string `json:"sign"`
	}{
		Timestamp: ts,
		Sign:      dingtalk.Sign(a.secret, ts),
	})
}

func (a *app) script(ctx context.Context, path string) error {
	c, err := a.client()
	if err != nil {
		return err
	}

	path, err = filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)

	// Load root certificates before the file system is locked down.
	if _, err := x509.SystemCertPool(); err != nil {
		a.log.Warn("loading system root certificates", "err", err)
	}
	restrict.ReadOnlyUnlessTesting(ctx, dir, "/etc")

	intr := &interpreter.Interpreter{
		Predeclared: starlark.StringDict{
			"dingtalk": dingtalklib.Module(c),
			"json":     starlarkjson.Module,
			"time":     starlarktime.Module,
		},
		Loader: interpreter.FileSystemLoader(dir),
		Logger: func(file string, line int, message string) {
			a.log.Info(message, "script", file, "line", line)
		},
	}
	_, err = intr.Exec(ctx, filepath.Base(path))
	return err
}
