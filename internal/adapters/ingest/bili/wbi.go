package bili

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	perr "danmood/internal/platform/errors"
)

const mixinTTL = time.Hour

// mixinOrder permutes img_key+sub_key into the signing key
var mixinOrder = [...]int{
	46, 47, 18, 2, 53, 8, 23, 32, 15, 50, 10, 31, 58, 3, 45, 35,
	27, 43, 5, 49, 33, 9, 42, 19, 29, 28, 14, 39, 12, 38, 41, 13,
	37, 48, 7, 16, 24, 55, 40, 61, 26, 17, 0, 1, 60, 51, 30, 4,
	22, 25, 54, 21, 56, 59, 6, 63, 57, 62, 11, 36, 20, 34, 44, 52,
}

// keyOf is the file stem of a wbi image URL
func keyOf(u string) string {
	stem, _, _ := strings.Cut(path.Base(u), ".")
	if stem == "." || stem == "/" {
		return ""
	}
	return stem
}

// mixinKey derives the 32-char signing key from the two wbi keys
func mixinKey(imgKey, subKey string) string {
	raw := imgKey + subKey
	var b strings.Builder
	for _, i := range mixinOrder {
		if i < len(raw) {
			b.WriteByte(raw[i])
		}
		if b.Len() >= 32 {
			break
		}
	}
	return b.String()
}

// signWBI adds wts and returns the key-sorted query string followed by w_rid
func signWBI(params url.Values, mixin string, now time.Time) string {
	p := make(url.Values, len(params)+1)
	for k, v := range params {
		p[k] = slices.Clone(v)
	}
	p.Set("wts", strconv.FormatInt(now.Unix(), 10))
	q := p.Encode()
	sum := md5.Sum([]byte(q + mixin))
	return q + "&w_rid=" + hex.EncodeToString(sum[:])
}

// mixin returns the cached signing key, refreshing it from nav after an hour.
// nav answers with a non-zero code for anonymous callers but still carries the keys
func (c *Client) mixin(ctx context.Context) (string, error) {
	c.mixMu.Lock()
	defer c.mixMu.Unlock()
	if c.mix != "" && c.now().Sub(c.mixAt) < mixinTTL {
		return c.mix, nil
	}
	b, err := c.getBytes(ctx, c.opts.BaseURL+"/x/web-interface/nav", "", maxJSONBody)
	if err != nil {
		return "", perr.WithOp(err, "bili.nav")
	}
	var nav struct {
		Data struct {
			WbiImg struct {
				ImgURL string `json:"img_url"`
				SubURL string `json:"sub_url"`
			} `json:"wbi_img"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &nav); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeMalformed, "bili nav")
	}
	key := mixinKey(keyOf(nav.Data.WbiImg.ImgURL), keyOf(nav.Data.WbiImg.SubURL))
	if key == "" {
		return "", perr.Malformedf("bili nav carries no wbi keys")
	}
	c.mix, c.mixAt = key, c.now()
	return key, nil
}

// getWBI performs a signed GET of an enveloped endpoint
func (c *Client) getWBI(ctx context.Context, base string, params url.Values, out any) error {
	key, err := c.mixin(ctx)
	if err != nil {
		return err
	}
	return c.getJSON(ctx, base+"?"+signWBI(params, key, c.now()), out)
}
