package bili

import (
	"compress/flate"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"danmood/internal/core/dmseg"
	perr "danmood/internal/platform/errors"
)

// PageList returns the parts of a video in order
func (c *Client) PageList(ctx context.Context, bvid string) ([]Page, error) {
	u := fmt.Sprintf("%s/x/player/pagelist?bvid=%s&jsonp=jsonp", c.opts.BaseURL, url.QueryEscape(bvid))
	var pages []Page
	if err := c.getJSON(ctx, u, &pages); err != nil {
		return nil, perr.WithOp(err, "bili.PageList")
	}
	out := pages[:0]
	for _, p := range pages {
		if p.CID != 0 {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, perr.NotFoundf("no parts found for %s", bvid)
	}
	return out, nil
}

// SegmentTotal returns the number of comment segments of a part, at least 1
func (c *Client) SegmentTotal(ctx context.Context, cid int64) (int, error) {
	u := fmt.Sprintf("%s/x/v2/dm/web/view?type=1&oid=%d", c.opts.BaseURL, cid)
	var v struct {
		DmSge struct {
			Total int `json:"total"`
		} `json:"dmSge"`
	}
	if err := c.getJSON(ctx, u, &v); err != nil {
		return 0, perr.WithOp(err, "bili.SegmentTotal")
	}
	return max(1, v.DmSge.Total), nil
}

// Segment fetches one raw comment segment (1-based index). The returned
// status is the HTTP status, or -1 when no response was received
func (c *Client) Segment(ctx context.Context, cid int64, index int, referrer string) ([]byte, int, error) {
	u := fmt.Sprintf("%s/x/v2/dm/web/seg.so?type=1&oid=%d&segment_index=%d", c.opts.BaseURL, cid, index)
	resp, err := c.do(ctx, u, referrer)
	if err != nil {
		return nil, perr.StatusOf(err), err
	}
	status := resp.StatusCode
	b, err := c.readAll(resp, maxSegBody)
	if err != nil {
		return nil, status, err
	}
	return b, status, nil
}

// ListXML fetches the XML comment list of a part, the fallback when the
// segment path is unavailable. It holds at most a few thousand recent comments
func (c *Client) ListXML(ctx context.Context, cid int64) ([]dmseg.Comment, error) {
	u := fmt.Sprintf("%s/x/v1/dm/list.so?oid=%d", c.opts.BaseURL, cid)
	resp, err := c.do(ctx, u, "")
	if err != nil {
		return nil, perr.WithOp(err, "bili.ListXML")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Msg("bili close body failed")
		}
	}()
	var r io.Reader = io.LimitReader(resp.Body, maxSegBody)
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "deflate") {
		fr := flate.NewReader(r)
		defer fr.Close()
		r = fr
	}
	return ParseXML(r)
}

// HistoryIndex lists the dates (YYYY-MM-DD) of month (YYYY-MM) that have
// history snapshots. It needs a logged-in cookie
func (c *Client) HistoryIndex(ctx context.Context, cid int64, month string) ([]string, error) {
	u := fmt.Sprintf("%s/x/v2/dm/history/index?type=1&oid=%d&month=%s", c.opts.BaseURL, cid, url.QueryEscape(month))
	data, err := c.getEnvelope(ctx, u)
	if err != nil {
		return nil, perr.WithOp(err, "bili.HistoryIndex")
	}
	if isNull(data) {
		return nil, nil
	}
	var dates []string
	if json.Unmarshal(data, &dates) == nil {
		return dates, nil
	}
	var wrapped struct {
		Dates []string `json:"dates"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeMalformed, "bili history index")
	}
	return wrapped.Dates, nil
}

// HistorySegment fetches and decodes the history snapshot of one date
func (c *Client) HistorySegment(ctx context.Context, cid int64, date string) ([]dmseg.Comment, error) {
	u := fmt.Sprintf("%s/x/v2/dm/web/history/seg.so?type=1&oid=%d&date=%s", c.opts.BaseURL, cid, url.QueryEscape(date))
	b, err := c.getBytes(ctx, u, "", maxSegBody)
	if err != nil {
		return nil, perr.WithOp(err, "bili.HistorySegment")
	}
	return dmseg.Decode(b), nil
}

// View fetches the video document
func (c *Client) View(ctx context.Context, bvid string) (View, error) {
	u := fmt.Sprintf("%s/x/web-interface/view?bvid=%s", c.opts.BaseURL, url.QueryEscape(bvid))
	var v View
	if err := c.getJSON(ctx, u, &v); err != nil {
		return View{}, perr.WithOp(err, "bili.View")
	}
	return v, nil
}

// SubtitleTracks lists the subtitle tracks of a video that have a body URL
func (c *Client) SubtitleTracks(ctx context.Context, bvid string) ([]SubtitleTrack, error) {
	v, err := c.View(ctx, bvid)
	if err != nil {
		return nil, err
	}
	var out []SubtitleTrack
	for _, t := range v.Subtitle.List {
		if strings.HasPrefix(t.URL, "//") {
			t.URL = "https:" + t.URL
		}
		if t.URL != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// SubtitleTrack fetches a track body and keeps cues with content and a
// positive duration
func (c *Client) SubtitleTrack(ctx context.Context, trackURL string) ([]SubtitleLine, error) {
	b, err := c.getBytes(ctx, trackURL, "", maxJSONBody)
	if err != nil {
		return nil, perr.WithOp(err, "bili.SubtitleTrack")
	}
	var doc struct {
		Body []SubtitleLine `json:"body"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeMalformed, "bili subtitle body")
	}
	out := doc.Body[:0]
	for _, l := range doc.Body {
		if l.To > l.From && l.Content != "" {
			out = append(out, l)
		}
	}
	return out, nil
}

// Summary fetches the AI summary and outline of a video. It returns a
// NotFound error when the platform has none
func (c *Client) Summary(ctx context.Context, bvid string) (ModelResult, error) {
	v, err := c.View(ctx, bvid)
	if err != nil {
		return ModelResult{}, err
	}
	params := url.Values{}
	params.Set("bvid", bvid)
	params.Set("cid", strconv.FormatInt(v.CID, 10))
	params.Set("up_mid", strconv.FormatInt(v.Owner.Mid, 10))

	var data struct {
		ModelResult *ModelResult `json:"model_result"`
	}
	if err := c.getWBI(ctx, c.opts.BaseURL+"/x/web-interface/view/conclusion/get", params, &data); err != nil {
		return ModelResult{}, perr.WithOp(err, "bili.Summary")
	}
	if data.ModelResult == nil {
		return ModelResult{}, perr.NotFoundf("no summary for %s", bvid)
	}
	return *data.ModelResult, nil
}
