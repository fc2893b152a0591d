// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Dingtalk sends messages to a DingTalk group robot.

# Usage

	$ dingtalk [flags...] <command> [args...]

The robot is identified by the access_token parameter of its webhook URL,
passed with -token or the DINGTALK_TOKEN environment variable. Robots with
signing enabled also need -secret or DINGTALK_SECRET. Values given as flags
take precedence over the environment.

After a message is sent, the response of the robot API is printed as JSON. A
non-zero errcode makes dingtalk exit with status 1.

# Commands

	text <content>

Sends a plain text message. Mention group members with -at and -at-all.

	markdown <text>

Sends a Markdown message titled -title. Accepts -at and -at-all.

	link <text>

Sends a link card titled -title that opens -url, with optional -picture.

	single-card <text>

Sends an action card titled -title with one button labeled -button-title
that opens -url.

	card <text> <title=url>...

Sends an action card titled -title with one button per title=url argument.

	feed-card

Reads a JSON array of {"title", "message_url", "picture_url"} objects from
standard input and sends them as a feed card.

	feed <url>

Fetches an RSS, Atom or JSON feed and sends its first -limit items as a feed
card. Items without an image use -picture.

	script <file.star>

Runs a Starlark script. The script can use the dingtalk module, described by
the script-help command, and the json and time modules of Starlark. Scripts
may load other files from the directory of the script. On Linux the program
can only read files from that directory and /etc once the script starts.

	script-help

Prints the documentation of the dingtalk Starlark module.

	sign

Prints the timestamp and signature that authenticate a request made now.

A <content> or <text> argument of "-" is read from standard input.

Pass -dry to print the request body instead of sending it. A token is not
required in this mode.

# Examples

	$ export DINGTALK_TOKEN=... DINGTALK_SECRET=...
	$ dingtalk -at 13800000000 text "@13800000000 the build is broken"
	$ git log -1 --format=%B | dingtalk -title "New commit" markdown -
	$ dingtalk -title "Release v1.2.0" -horizontal card "Ship it?" Yes=https://ci.example.com/yes No=https://ci.example.com/no
	$ dingtalk -limit 3 -picture https://example.com/logo.png feed https://example.com/feed.xml
*/
package main

import (
	_ "embed"

	"go.astrophena.name/dingtalk/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
