// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package feedcard turns RSS, Atom and JSON feeds into DingTalk feed cards.
package feedcard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.astrophena.name/dingtalk"
	"go.astrophena.name/dingtalk/internal/request"
	"go.astrophena.name/dingtalk/internal/version"

	"github.com/mmcdole/gofeed"
)

// DefaultLimit is the number of items put on a card when no limit is given.
const DefaultLimit = 5

// Fetch downloads and parses the feed at url. If httpc is nil, a client with
// a 10 second timeout is used.
func Fetch(ctx context.Context, httpc *http.Client, url string) (*gofeed.Feed, error) {
	if httpc == nil {
		httpc = request.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", version.UserAgent())

	res, err := httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		const readLimit = 16384 // enough for an error page
		body, _ := io.ReadAll(io.LimitReader(res.Body, readLimit))
		return nil, fmt.Errorf("GET %q: want 200, got %d: %s", url, res.StatusCode, body)
	}

	return gofeed.NewParser().Parse(res.Body)
}

// FromFeed builds a feed card from the first limit items of feed that have a
// link, in feed order. A limit of zero or less means DefaultLimit.
//
// The thumbnail of each item is its own image, then its first image
// enclosure, then the image of the feed, then fallbackPicture. The card is
// not validated here; an item left without a thumbnail makes Send fail with
// dingtalk.ErrMissingField.
func FromFeed(feed *gofeed.Feed, limit int, fallbackPicture string) dingtalk.FeedCard {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var feedPicture string
	if feed.Image != nil {
		feedPicture = feed.Image.URL
	}

	card := dingtalk.FeedCard{Links: []dingtalk.FeedLink{}}
	for _, item := range feed.Items {
		if len(card.Links) == limit {
			break
		}
		if item.Link == "" {
			continue
		}
		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = item.Link
		}
		card.Links = append(card.Links, dingtalk.FeedLink{
			Title:      title,
			MessageURL: item.Link,
			PictureURL: firstNonEmpty(itemPicture(item), feedPicture, fallbackPicture),
		})
	}
	return card
}

func itemPicture(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
