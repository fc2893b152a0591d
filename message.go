// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package dingtalk

import (
	"encoding/json"
	"fmt"
)

// Message is a message that can be sent to a robot: one of [Text], [Link],
// [Markdown], [SingleActionCard], [ActionCard] or [FeedCard].
type Message interface {
	// Type returns the value of the msgtype field.
	Type() string

	validate() error
	fill(*envelope)
}

// At selects the group members mentioned by a text or markdown message.
// To render the mention, the message content must also contain "@" followed
// by each mobile number.
type At struct {
	Mobiles []string
	All     bool
}

// Text is a plain text message.
type Text struct {
	Content string
	At      At
}

// Link is a hyperlink card. PictureURL is optional.
type Link struct {
	Title      string
	Text       string
	MessageURL string
	PictureURL string
}

// Markdown is a message with a subset of Markdown in Text. Title is shown in
// the conversation list.
type Markdown struct {
	Title string
	Text  string
	At    At
}

// Orientation is the layout of action card buttons.
type Orientation int

const (
	Vertical   Orientation = 0
	Horizontal Orientation = 1
)

func (o Orientation) valid() bool { return o == Vertical || o == Horizontal }

// SingleActionCard is an action card that jumps to SingleURL as a whole, with
// one button labeled SingleTitle.
type SingleActionCard struct {
	Title             string
	Text              string
	SingleTitle       string
	SingleURL         string
	HideAvatar        bool
	ButtonOrientation Orientation
}

// Button is a button of an [ActionCard].
type Button struct {
	Title     string
	ActionURL string
}

// ActionCard is an action card with one or more independent buttons.
type ActionCard struct {
	Title             string
	Text              string
	Buttons           []Button
	HideAvatar        bool
	ButtonOrientation Orientation
}

// FeedLink is an item of a [FeedCard].
type FeedLink struct {
	Title      string
	MessageURL string
	PictureURL string
}

// FeedCard is a list of linked items, each with a thumbnail.
type FeedCard struct {
	Links []FeedLink
}

// Wire format. Field names are fixed by the robot API.

type envelope struct {
	MsgType    string          `json:"msgtype"`
	Text       *textBody       `json:"text,omitempty"`
	Link       *linkBody       `json:"link,omitempty"`
	Markdown   *markdownBody   `json:"markdown,omitempty"`
	ActionCard *actionCardBody `json:"actionCard,omitempty"`
	FeedCard   *feedCardBody   `json:"feedCard,omitempty"`
	At         *atBody         `json:"at,omitempty"`
}

type textBody struct {
	Content string `json:"content"`
}

type linkBody struct {
	Text       string `json:"text"`
	Title      string `json:"title"`
	PicURL     string `json:"picUrl"`
	MessageURL string `json:"messageUrl"`
}

type markdownBody struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type actionCardBody struct {
	Title          string       `json:"title"`
	Text           string       `json:"text"`
	HideAvatar     int          `json:"hideAvatar"`
	BtnOrientation int          `json:"btnOrientation"`
	SingleTitle    string       `json:"singleTitle,omitempty"`
	SingleURL      string       `json:"singleURL,omitempty"`
	Btns           []buttonBody `json:"btns,omitempty"`
}

type buttonBody struct {
	Title     string `json:"title"`
	ActionURL string `json:"actionURL"`
}

type feedCardBody struct {
	Links []feedLinkBody `json:"links"`
}

type feedLinkBody struct {
	Title      string `json:"title"`
	MessageURL string `json:"messageURL"`
	PicURL     string `json:"picURL"`
}

type atBody struct {
	AtMobiles []string `json:"atMobiles"`
	IsAtAll   bool     `json:"isAtAll"`
}

func (a At) body() *atBody {
	// A fresh slice per message, so atMobiles is encoded as [] and never null.
	mobiles := make([]string, len(a.Mobiles))
	copy(mobiles, a.Mobiles)
	return &atBody{AtMobiles: mobiles, IsAtAll: a.All}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (Text) Type() string { return "text" }

func (m Text) validate() error {
	if m.Content == "" {
		return missing("content")
	}
	return nil
}

func (m Text) fill(e *envelope) {
	e.Text = &textBody{Content: m.Content}
	e.At = m.At.body()
}

func (Link) Type() string { return "link" }

func (m Link) validate() error {
	switch {
	case m.Title == "":
		return missing("title")
	case m.Text == "":
		return missing("text")
	case m.MessageURL == "":
		return missing("message_url")
	}
	return nil
}

func (m Link) fill(e *envelope) {
	e.Link = &linkBody{
		Text:       m.Text,
		Title:      m.Title,
		PicURL:     m.PictureURL,
		MessageURL: m.MessageURL,
	}
}

func (Markdown) Type() string { return "markdown" }

func (m Markdown) validate() error {
	switch {
	case m.Title == "":
		return missing("title")
	case m.Text == "":
		return missing("text")
	}
	return nil
}

func (m Markdown) fill(e *envelope) {
	e.Markdown = &markdownBody{Title: m.Title, Text: m.Text}
	e.At = m.At.body()
}

func (SingleActionCard) Type() string { return "actionCard" }

func (m SingleActionCard) validate() error {
	switch {
	case m.Title == "":
		return missing("title")
	case m.Text == "":
		return missing("text")
	case m.SingleTitle == "":
		return missing("single_title")
	case m.SingleURL == "":
		return missing("single_url")
	case !m.ButtonOrientation.valid():
		return fmt.Errorf("%w: button orientation must be 0 or 1, got %d", ErrInvalidArgument, m.ButtonOrientation)
	}
	return nil
}

func (m SingleActionCard) fill(e *envelope) {
	e.ActionCard = &actionCardBody{
		Title:          m.Title,
		Text:           m.Text,
		HideAvatar:     boolInt(m.HideAvatar),
		BtnOrientation: int(m.ButtonOrientation),
		SingleTitle:    m.SingleTitle,
		SingleURL:      m.SingleURL,
	}
}

func (ActionCard) Type() string { return "actionCard" }

func (m ActionCard) validate() error {
	switch {
	case m.Title == "":
		return missing("title")
	case m.Text == "":
		return missing("text")
	case len(m.Buttons) == 0:
		return missing("buttons")
	case !m.ButtonOrientation.valid():
		return fmt.Errorf("%w: button orientation must be 0 or 1, got %d", ErrInvalidArgument, m.ButtonOrientation)
	}
	for i, b := range m.Buttons {
		if b.Title == "" {
			return missing(fmt.Sprintf("title of button %d", i))
		}
		if b.ActionURL == "" {
			return missing(fmt.Sprintf("action_url of button %d", i))
		}
	}
	return nil
}

func (m ActionCard) fill(e *envelope) {
	btns := make([]buttonBody, 0, len(m.Buttons))
	for _, b := range m.Buttons {
		btns = append(btns, buttonBody{Title: b.Title, ActionURL: b.ActionURL})
	}
	e.ActionCard = &actionCardBody{
		Title:          m.Title,
		Text:           m.Text,
		HideAvatar:     boolInt(m.HideAvatar),
		BtnOrientation: int(m.ButtonOrientation),
		Btns:           btns,
	}
}

func (FeedCard) Type() string { return "feedCard" }

func (m FeedCard) validate() error {
	if len(m.Links) == 0 {
		return missing("links")
	}
	for i, l := range m.Links {
		switch {
		case l.Title == "":
			return missing(fmt.Sprintf("title of link %d", i))
		case l.MessageURL == "":
			return missing(fmt.Sprintf("message_url of link %d", i))
		case l.PictureURL == "":
			return missing(fmt.Sprintf("picture_url of link %d", i))
		}
	}
	return nil
}

func (m FeedCard) fill(e *envelope) {
	links := make([]feedLinkBody, 0, len(m.Links))
	for _, l := range m.Links {
		links = append(links, feedLinkBody{Title: l.Title, MessageURL: l.MessageURL, PicURL: l.PictureURL})
	}
	e.FeedCard = &feedCardBody{Links: links}
}

func build(msg Message) (*envelope, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", ErrInvalidArgument)
	}
	if err := msg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", msg.Type(), err)
	}
	e := &envelope{MsgType: msg.Type()}
	msg.fill(e)
	return e, nil
}

// Payload validates msg and returns the JSON request body that Send would
// post for it.
func Payload(msg Message) ([]byte, error) {
	e, err := build(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

var (
	_ Message = Text{}
	_ Message = Link{}
	_ Message = Markdown{}
	_ Message = SingleActionCard{}
	_ Message = ActionCard{}
	_ Message = FeedCard{}
)
