// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package dingtalk

import (
	"errors"
	"flag"
	"strings"
	"testing"

	"go.astrophena.name/dingtalk/internal/testutil"
)

var update = flag.Bool("update", false, "update golden files in testdata")

// TestPayloadGolden reads testdata/payload/*.txtar archives. Each holds the
// message type in a "type" file and the message fields in "message.json";
// the expected request body is in the matching .golden file.
func TestPayloadGolden(t *testing.T) {
	testutil.RunGolden(t, "testdata/payload/*.txtar", func(t *testing.T, match string) []byte {
		files := testutil.ReadTxtar(t, match)
		msg := decodeMessage(t, strings.TrimSpace(string(files["type"])), files["message.json"])
		b, err := Payload(msg)
		if err != nil {
			t.Fatal(err)
		}
		return append(b, '\n')
	}, *update)
}

func decodeMessage(t *testing.T, typ string, data []byte) Message {
	switch typ {
	case "text":
		return testutil.UnmarshalJSON[Text](t, data)
	case "link":
		return testutil.UnmarshalJSON[Link](t, data)
	case "markdown":
		return testutil.UnmarshalJSON[Markdown](t, data)
	case "single_action_card":
		return testutil.UnmarshalJSON[SingleActionCard](t, data)
	case "action_card":
		return testutil.UnmarshalJSON[ActionCard](t, data)
	case "feed_card":
		return testutil.UnmarshalJSON[FeedCard](t, data)
	}
	t.Fatalf("unknown message type %q", typ)
	return nil
}

func TestPayloadTextAtAll(t *testing.T) {
	t.Parallel()

	b, err := Payload(Text{Content: "hello", At: At{All: true}})
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, string(b), `{"msgtype":"text","text":{"content":"hello"},"at":{"atMobiles":[],"isAtAll":true}}`)
}

func TestPayloadActionCardButtons(t *testing.T) {
	t.Parallel()

	b, err := Payload(ActionCard{
		Title:   "t",
		Text:    "x",
		Buttons: []Button{{Title: "a", ActionURL: "http://x"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, string(b), `{"msgtype":"actionCard","actionCard":{"title":"t","text":"x","hideAvatar":0,"btnOrientation":0,"btns":[{"title":"a","actionURL":"http://x"}]}}`)
}

func TestPayloadDoesNotShareMobiles(t *testing.T) {
	t.Parallel()

	mobiles := []string{"138"}
	e, err := build(Text{Content: "hi", At: At{Mobiles: mobiles}})
	if err != nil {
		t.Fatal(err)
	}
	e.At.AtMobiles[0] = "changed"
	testutil.AssertEqual(t, mobiles[0], "138")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		msg     Message
		wantErr error
	}{
		"nil message": {
			msg:     nil,
			wantErr: ErrInvalidArgument,
		},
		"text without content": {
			msg:     Text{},
			wantErr: ErrMissingField,
		},
		"text": {
			msg: Text{Content: "hi"},
		},
		"link without url": {
			msg:     Link{Title: "t", Text: "x"},
			wantErr: ErrMissingField,
		},
		"link without picture": {
			msg: Link{Title: "t", Text: "x", MessageURL: "https://example.com"},
		},
		"markdown without title": {
			msg:     Markdown{Text: "# hi"},
			wantErr: ErrMissingField,
		},
		"single card without url": {
			msg:     SingleActionCard{Title: "t", Text: "x", SingleTitle: "Read"},
			wantErr: ErrMissingField,
		},
		"single card with bad orientation": {
			msg:     SingleActionCard{Title: "t", Text: "x", SingleTitle: "Read", SingleURL: "https://example.com", ButtonOrientation: 2},
			wantErr: ErrInvalidArgument,
		},
		"action card without buttons": {
			msg:     ActionCard{Title: "t", Text: "x"},
			wantErr: ErrMissingField,
		},
		"action card with empty button list": {
			msg:     ActionCard{Title: "t", Text: "x", Buttons: []Button{}},
			wantErr: ErrMissingField,
		},
		"action card button without url": {
			msg:     ActionCard{Title: "t", Text: "x", Buttons: []Button{{Title: "a"}}},
			wantErr: ErrMissingField,
		},
		"action card button without title": {
			msg:     ActionCard{Title: "t", Text: "x", Buttons: []Button{{ActionURL: "http://x"}}},
			wantErr: ErrMissingField,
		},
		"action card with bad orientation": {
			msg:     ActionCard{Title: "t", Text: "x", Buttons: []Button{{Title: "a", ActionURL: "http://x"}}, ButtonOrientation: -1},
			wantErr: ErrInvalidArgument,
		},
		"action card": {
			msg: ActionCard{Title: "t", Text: "x", Buttons: []Button{{Title: "a", ActionURL: "http://x"}}},
		},
		"feed card without links": {
			msg:     FeedCard{},
			wantErr: ErrMissingField,
		},
		"feed card link without picture": {
			msg:     FeedCard{Links: []FeedLink{{Title: "t", MessageURL: "https://example.com"}}},
			wantErr: ErrMissingField,
		},
		"feed card link without message url": {
			msg:     FeedCard{Links: []FeedLink{{Title: "t", PictureURL: "https://example.com/a.png"}}},
			wantErr: ErrMissingField,
		},
		"feed card": {
			msg: FeedCard{Links: []FeedLink{{Title: "t", MessageURL: "https://example.com", PictureURL: "https://example.com/a.png"}}},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Payload(tc.msg)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("Payload() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Payload() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}
