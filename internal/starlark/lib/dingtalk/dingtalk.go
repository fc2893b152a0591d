// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package dingtalk

import (
	"errors"
	"fmt"
	"time"

	"go.astrophena.name/dingtalk"
	"go.astrophena.name/dingtalk/internal/starlark/interpreter"
	"go.astrophena.name/dingtalk/internal/starlark/starconv"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// Module returns a Starlark module that sends messages through c.
func Module(c *dingtalk.Client) *starlarkstruct.Module {
	m := &module{c: c, now: time.Now}
	return &starlarkstruct.Module{
		Name: "dingtalk",
		Members: starlark.StringDict{
			"text":               starlark.NewBuiltin("dingtalk.text", m.text),
			"link":               starlark.NewBuiltin("dingtalk.link", m.link),
			"markdown":           starlark.NewBuiltin("dingtalk.markdown", m.markdown),
			"single_action_card": starlark.NewBuiltin("dingtalk.single_action_card", m.singleActionCard),
			"action_card":        starlark.NewBuiltin("dingtalk.action_card", m.actionCard),
			"feed_card":          starlark.NewBuiltin("dingtalk.feed_card", m.feedCard),
			"sign":               starlark.NewBuiltin("dingtalk.sign", m.sign),
		},
	}
}

type module struct {
	c *dingtalk.Client
	// now acts as time.Now, but can be mocked for testing.
	now func() time.Time
}

func (m *module) send(thread *starlark.Thread, b *starlark.Builtin, msg dingtalk.Message) (starlark.Value, error) {
	resp, err := m.c.Send(interpreter.Context(thread), msg)
	var remoteErr *dingtalk.RemoteError
	if err != nil && !errors.As(err, &remoteErr) {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
		"errcode": starlark.MakeInt(resp.ErrCode),
		"errmsg":  starlark.String(resp.ErrMsg),
	}), nil
}

func (m *module) text(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		content   string
		atMobiles starlark.Value = starlark.None
		atAll     bool
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"content", &content,
		"at_mobiles?", &atMobiles,
		"at_all?", &atAll,
	); err != nil {
		return nil, err
	}
	at, err := parseAt(b, atMobiles, atAll)
	if err != nil {
		return nil, err
	}
	return m.send(thread, b, dingtalk.Text{Content: content, At: at})
}

func (m *module) link(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var msg dingtalk.Link
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"title", &msg.Title,
		"text", &msg.Text,
		"message_url", &msg.MessageURL,
		"picture_url?", &msg.PictureURL,
	); err != nil {
		return nil, err
	}
	return m.send(thread, b, msg)
}

func (m *module) markdown(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		msg       dingtalk.Markdown
		atMobiles starlark.Value = starlark.None
		atAll     bool
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"title", &msg.Title,
		"text", &msg.Text,
		"at_mobiles?", &atMobiles,
		"at_all?", &atAll,
	); err != nil {
		return nil, err
	}
	at, err := parseAt(b, atMobiles, atAll)
	if err != nil {
		return nil, err
	}
	msg.At = at
	return m.send(thread, b, msg)
}

func (m *module) singleActionCard(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		msg         dingtalk.SingleActionCard
		orientation int
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"title", &msg.Title,
		"text", &msg.Text,
		"single_title", &msg.SingleTitle,
		"single_url", &msg.SingleURL,
		"hide_avatar?", &msg.HideAvatar,
		"btn_orientation?", &orientation,
	); err != nil {
		return nil, err
	}
	msg.ButtonOrientation = dingtalk.Orientation(orientation)
	return m.send(thread, b, msg)
}

func (m *module) actionCard(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		msg         dingtalk.ActionCard
		buttons     *starlark.List
		orientation int
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"title", &msg.Title,
		"text", &msg.Text,
		"buttons", &buttons,
		"hide_avatar?", &msg.HideAvatar,
		"btn_orientation?", &orientation,
	); err != nil {
		return nil, err
	}
	items, err := dicts(buttons, "buttons", "title", "action_url")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	for _, item := range items {
		msg.Buttons = append(msg.Buttons, dingtalk.Button{Title: item["title"], ActionURL: item["action_url"]})
	}
	msg.ButtonOrientation = dingtalk.Orientation(orientation)
	return m.send(thread, b, msg)
}

func (m *module) feedCard(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var links *starlark.List
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "links", &links); err != nil {
		return nil, err
	}
	items, err := dicts(links, "links", "title", "message_url", "picture_url")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	var msg dingtalk.FeedCard
	for _, item := range items {
		msg.Links = append(msg.Links, dingtalk.FeedLink{
			Title:      item["title"],
			MessageURL: item["message_url"],
			PictureURL: item["picture_url"],
		})
	}
	return m.send(thread, b, msg)
}

func (m *module) sign(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	if !m.c.Signed() {
		return nil, fmt.Errorf("%s: no secret configured", b.Name())
	}
	ts, sign := m.c.Signature(m.now())
	return starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
		"timestamp": starlark.MakeInt64(ts),
		"sign":      starlark.String(sign),
	}), nil
}

func parseAt(b *starlark.Builtin, mobiles starlark.Value, all bool) (dingtalk.At, error) {
	v, err := starconv.FromValue(mobiles)
	if err != nil {
		return dingtalk.At{}, fmt.Errorf("%s: at_mobiles: %w", b.Name(), err)
	}
	parsed, err := dingtalk.ParseMobiles(v)
	if err != nil {
		return dingtalk.At{}, fmt.Errorf("%s: at_mobiles: %w", b.Name(), err)
	}
	return dingtalk.At{Mobiles: parsed, All: all}, nil
}

// dicts converts a list of dicts into string maps that hold every key in keys.
func dicts(list *starlark.List, what string, keys ...string) ([]map[string]string, error) {
	v, err := starconv.FromValue(list)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	items := v.([]any)
	out := make([]map[string]string, 0, len(items))
	for i, item := range items {
		d, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is %T, want dict", dingtalk.ErrInvalidArgument, what, i, item)
		}
		m := make(map[string]string, len(keys))
		for _, key := range keys {
			val, ok := d[key]
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d].%s", dingtalk.ErrMissingField, what, i, key)
			}
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d].%s is %T, want string", dingtalk.ErrInvalidArgument, what, i, key, val)
			}
			m[key] = s
		}
		out = append(out, m)
	}
	return out, nil
}
