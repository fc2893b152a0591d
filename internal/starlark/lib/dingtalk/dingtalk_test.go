// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package dingtalk

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.astrophena.name/dingtalk"
	"go.astrophena.name/dingtalk/internal/starlark/interpreter"
	"go.astrophena.name/dingtalk/internal/testutil"

	"go.starlark.net/starlark"
)

var testToken = strings.Repeat("t", dingtalk.TokenLength)

// robot starts a fake robot API that answers every request with resp and
// returns the decoded request bodies.
func robot(t *testing.T, resp string) (*httptest.Server, func() []map[string]any) {
	t.Helper()
	var (
		mu     sync.Mutex
		bodies []map[string]any
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		bodies = append(bodies, body)
		mu.Unlock()
		io.WriteString(w, resp)
	}))
	t.Cleanup(ts.Close)
	return ts, func() []map[string]any {
		mu.Lock()
		defer mu.Unlock()
		return append([]map[string]any(nil), bodies...)
	}
}

func run(t *testing.T, c *dingtalk.Client, script string) (starlark.StringDict, error) {
	t.Helper()
	intr := &interpreter.Interpreter{
		Predeclared: starlark.StringDict{"dingtalk": Module(c)},
		Loader:      interpreter.MemoryLoader(map[string]string{"main.star": script}),
	}
	return intr.Exec(context.Background(), "main.star")
}

func newClient(t *testing.T, endpoint, secret string) *dingtalk.Client {
	t.Helper()
	c, err := dingtalk.New(dingtalk.Config{Token: testToken, Secret: secret, Endpoint: endpoint})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSend(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		script string
		want   map[string]any
	}{
		"text": {
			script: `resp = dingtalk.text(content="hi @138", at_mobiles="138, 139")`,
			want: map[string]any{
				"msgtype": "text",
				"text":    map[string]any{"content": "hi @138"},
				"at":      map[string]any{"atMobiles": []any{"138", "139"}, "isAtAll": false},
			},
		},
		"text with list of mobiles": {
			script: `resp = dingtalk.text(content="hi", at_mobiles=["138"], at_all=True)`,
			want: map[string]any{
				"msgtype": "text",
				"text":    map[string]any{"content": "hi"},
				"at":      map[string]any{"atMobiles": []any{"138"}, "isAtAll": true},
			},
		},
		"link": {
			script: `resp = dingtalk.link(title="T", text="body", message_url="https://example.com")`,
			want: map[string]any{
				"msgtype": "link",
				"link": map[string]any{
					"title":      "T",
					"text":       "body",
					"messageUrl": "https://example.com",
					"picUrl":     "",
				},
			},
		},
		"markdown": {
			script: `resp = dingtalk.markdown(title="T", text="# hi")`,
			want: map[string]any{
				"msgtype":  "markdown",
				"markdown": map[string]any{"title": "T", "text": "# hi"},
				"at":       map[string]any{"atMobiles": []any{}, "isAtAll": false},
			},
		},
		"single action card": {
			script: `resp = dingtalk.single_action_card(title="T", text="body", single_title="Open", single_url="https://example.com", hide_avatar=True)`,
			want: map[string]any{
				"msgtype": "actionCard",
				"actionCard": map[string]any{
					"title":          "T",
					"text":           "body",
					"hideAvatar":     float64(1),
					"btnOrientation": float64(0),
					"singleTitle":    "Open",
					"singleURL":      "https://example.com",
				},
			},
		},
		"action card": {
			script: `resp = dingtalk.action_card(
    title = "T",
    text = "body",
    buttons = [
        {"title": "Yes", "action_url": "https://example.com/yes"},
        {"title": "No", "action_url": "https://example.com/no"},
    ],
    btn_orientation = 1,
)`,
			want: map[string]any{
				"msgtype": "actionCard",
				"actionCard": map[string]any{
					"title":          "T",
					"text":           "body",
					"hideAvatar":     float64(0),
					"btnOrientation": float64(1),
					"btns": []any{
						map[string]any{"title": "Yes", "actionURL": "https://example.com/yes"},
						map[string]any{"title": "No", "actionURL": "https://example.com/no"},
					},
				},
			},
		},
		"feed card": {
			script: `resp = dingtalk.feed_card(links = [
    {"title": "A", "message_url": "https://example.com/a", "picture_url": "https://example.com/a.png"},
])`,
			want: map[string]any{
				"msgtype": "feedCard",
				"feedCard": map[string]any{
					"links": []any{
						map[string]any{"title": "A", "messageURL": "https://example.com/a", "picURL": "https://example.com/a.png"},
					},
				},
			},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ts, bodies := robot(t, `{"errcode":0,"errmsg":"ok"}`)
			globals, err := run(t, newClient(t, ts.URL, ""), tc.script)
			if err != nil {
				t.Fatal(err)
			}

			got := bodies()
			if len(got) != 1 {
				t.Fatalf("got %d requests, want 1", len(got))
			}
			testutil.AssertEqual(t, got[0], tc.want)

			resp := globals["resp"]
			errcode, err := resp.(starlark.HasAttrs).Attr("errcode")
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, errcode.String(), "0")
		})
	}
}

func TestRemoteErrorIsReturned(t *testing.T) {
	t.Parallel()

	ts, _ := robot(t, `{"errcode":310000,"errmsg":"keywords not in content"}`)
	globals, err := run(t, newClient(t, ts.URL, ""), `
resp = dingtalk.text(content="hi")
code = resp.errcode
msg = resp.errmsg
`)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, globals["code"].String(), "310000")
	testutil.AssertEqual(t, string(globals["msg"].(starlark.String)), "keywords not in content")
}

func TestInvalidArguments(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		script  string
		wantErr error
	}{
		"empty text": {
			script:  `dingtalk.text(content="")`,
			wantErr: dingtalk.ErrMissingField,
		},
		"button without url": {
			script:  `dingtalk.action_card(title="T", text="x", buttons=[{"title": "Yes"}])`,
			wantErr: dingtalk.ErrMissingField,
		},
		"no buttons": {
			script:  `dingtalk.action_card(title="T", text="x", buttons=[])`,
			wantErr: dingtalk.ErrMissingField,
		},
		"link without picture": {
			script:  `dingtalk.feed_card(links=[{"title": "A", "message_url": "https://example.com"}])`,
			wantErr: dingtalk.ErrMissingField,
		},
		"button is not a dict": {
			script:  `dingtalk.action_card(title="T", text="x", buttons=["Yes"])`,
			wantErr: dingtalk.ErrInvalidArgument,
		},
		"bad orientation": {
			script:  `dingtalk.single_action_card(title="T", text="x", single_title="a", single_url="b", btn_orientation=2)`,
			wantErr: dingtalk.ErrInvalidArgument,
		},
		"bad mobiles": {
			script:  `dingtalk.text(content="hi", at_mobiles=[138])`,
			wantErr: dingtalk.ErrInvalidArgument,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ts, bodies := robot(t, `{"errcode":0,"errmsg":"ok"}`)
			_, err := run(t, newClient(t, ts.URL, ""), tc.script)
			if err == nil {
				t.Fatal("want error, got none")
			}
			// The interpreter flattens errors into a backtrace, so match
			// the sentinel message.
			if !strings.Contains(err.Error(), tc.wantErr.Error()) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
			if n := len(bodies()); n != 0 {
				t.Fatalf("got %d requests, want none", n)
			}
		})
	}
}

func TestSign(t *testing.T) {
	t.Parallel()

	c := newClient(t, "", "SEC0123456789")
	m := &module{c: c, now: func() time.Time { return time.UnixMilli(1700000000000) }}
	thread := &starlark.Thread{Name: "test"}

	v, err := starlark.Call(thread, starlark.NewBuiltin("dingtalk.sign", m.sign), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	s := v.(starlark.HasAttrs)
	ts, _ := s.Attr("timestamp")
	sign, _ := s.Attr("sign")
	testutil.AssertEqual(t, ts.String(), "1700000000000")
	testutil.AssertEqual(t, string(sign.(starlark.String)), "VloEIlTtJU6a%2FAGf2pud1WypXdicIlyQAOpspu6OP6s%3D")
}

func TestSignWithoutSecret(t *testing.T) {
	t.Parallel()

	_, err := run(t, newClient(t, "", ""), `dingtalk.sign()`)
	if err == nil || !strings.Contains(err.Error(), "no secret configured") {
		t.Fatalf("want no secret error, got %v", err)
	}
}

func TestTransportErrorStopsScript(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.NotFoundHandler())
	endpoint := ts.URL
	ts.Close()

	_, err := run(t, newClient(t, endpoint, ""), `dingtalk.text(content="hi")`)
	if err == nil {
		t.Fatal("want error, got none")
	}
	if errors.Is(err, dingtalk.ErrMissingField) {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestDocumentation(t *testing.T) {
	t.Parallel()

	doc := Documentation()
	for _, fn := range []string{"# text", "# link", "# markdown", "# single_action_card", "# action_card", "# feed_card", "# sign"} {
		if !strings.Contains(doc, fn) {
			t.Errorf("documentation has no %q section", fn)
		}
	}
	if strings.HasPrefix(doc, "Package") {
		t.Errorf("documentation starts with the package clause")
	}
}
