// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package dingtalk

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"strconv"
)

// Sign computes the request signature for a robot with signing enabled.
//
// The signature is the HMAC-SHA256 of "{timestamp}\n{secret}" keyed by secret,
// encoded as standard base64 and then query-escaped, ready to be appended to
// the URL as the sign parameter. timestamp is in milliseconds since the Unix
// epoch and must be the same value sent as the timestamp parameter; the API
// rejects timestamps more than an hour away from its clock.
func Sign(secret string, timestamp int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10) + "\n" + secret))
	return url.QueryEscape(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}
