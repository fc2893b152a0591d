// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Package dingtalk contains a Starlark module that sends messages to a DingTalk group robot.

The module provides one function per message type (text, link, markdown,
single_action_card, action_card and feed_card) and the sign function.

Every send function returns a struct with two fields, errcode and errmsg, as
answered by the robot API. A non-zero errcode is returned, not raised, so
scripts can react to it:

	resp = dingtalk.text(content="Deploy finished.")
	if resp.errcode != 0:
	    print("robot said: " + resp.errmsg)

Invalid arguments and network failures stop the script.

# text

  - content (string): The message text.
  - at_mobiles (list or string, optional): Mobile numbers to mention. A
    string is split on commas.
  - at_all (bool, optional): Mention everyone in the group.

For example:

	dingtalk.text(content="@13800000000 please review", at_mobiles=["13800000000"])

# link

  - title (string): The card title.
  - text (string): The card text.
  - message_url (string): The URL opened on click.
  - picture_url (string, optional): The thumbnail URL.

# markdown

  - title (string): Shown in the conversation list.
  - text (string): The Markdown text.
  - at_mobiles, at_all: As in text.

# single_action_card

  - title (string): The card title.
  - text (string): The Markdown text of the card.
  - single_title (string): The label of the button.
  - single_url (string): The URL opened by the button.
  - hide_avatar (bool, optional): Hide the robot avatar.
  - btn_orientation (int, optional): 0 for vertical buttons, 1 for horizontal.

# action_card

  - title, text, hide_avatar, btn_orientation: As in single_action_card.
  - buttons (list): Dicts with the title and action_url keys.

For example:

	dingtalk.action_card(
	    title="Release",
	    text="### v1.2.0 is ready",
	    buttons=[
	        {"title": "Approve", "action_url": "https://ci.example.com/approve"},
	        {"title": "Reject", "action_url": "https://ci.example.com/reject"},
	    ],
	    btn_orientation=1,
	)

# feed_card

  - links (list): Dicts with the title, message_url and picture_url keys.

# sign

The sign function takes no arguments and returns a struct with the timestamp
(int, milliseconds) and sign (string) query parameters that authenticate a
request made now. It fails if no secret is configured.
*/
package dingtalk

import (
	_ "embed"
	"sync"

	"go.astrophena.name/dingtalk/internal/cli"
)

//go:embed doc.go
var doc []byte

// Documentation returns the documentation of the module.
var Documentation = sync.OnceValue(func() string {
	return cli.ParseDocComment(doc, true)
})
