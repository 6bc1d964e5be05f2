package bili

import (
	"bytes"
	"compress/flate"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"danmood/internal/core/dmseg"
	perr "danmood/internal/platform/errors"
	kit "danmood/internal/platform/testkit"
)

func newTestClient(t *testing.T, r chi.Router, mut ...func(*Options)) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	o := Options{BaseURL: srv.URL, SiteURL: "https://site.test", RetryBase: time.Millisecond, Timeout: 2 * time.Second}
	for _, m := range mut {
		m(&o)
	}
	return NewClient(o), srv
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func appendVarint(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}

// segBytes encodes comments the way seg.so does
func segBytes(cs ...dmseg.Comment) []byte {
	var out []byte
	for _, c := range cs {
		var elem []byte
		elem = appendVarint(elem, 2<<3|0)
		elem = appendVarint(elem, uint64(c.Time*1000))
		elem = appendVarint(elem, 7<<3|2)
		elem = appendVarint(elem, uint64(len(c.Text)))
		elem = append(elem, c.Text...)
		out = appendVarint(out, 1<<3|2)
		out = appendVarint(out, uint64(len(elem)))
		out = append(out, elem...)
	}
	return out
}

func TestPageList(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/x/player/pagelist", func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Query().Get("bvid") {
		case "BV1":
			writeJSON(w, `{"code":0,"data":[{"cid":11,"page":1,"part":"a"},{"cid":0},{"cid":12,"page":2}]}`)
		default:
			writeJSON(w, `{"code":0,"data":[]}`)
		}
	})
	c, _ := newTestClient(t, r)

	pages, err := c.PageList(context.Background(), "BV1")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 || pages[0].CID != 11 || pages[1].CID != 12 {
		t.Fatalf("pages = %+v", pages)
	}
	if _, err := c.PageList(context.Background(), "BV2"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("empty list err = %v", err)
	}
}

func TestSegmentTotalDefaultsToOne(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/x/v2/dm/web/view", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("oid") == "5" {
			writeJSON(w, `{"code":0,"data":{"dmSge":{"total":7}}}`)
			return
		}
		writeJSON(w, `{"code":0,"data":{}}`)
	})
	c, _ := newTestClient(t, r)

	if n, err := c.SegmentTotal(context.Background(), 5); err != nil || n != 7 {
		t.Fatalf("total = %d, %v", n, err)
	}
	if n, err := c.SegmentTotal(context.Background(), 6); err != nil || n != 1 {
		t.Fatalf("missing total = %d, %v", n, err)
	}
}

func TestSegment(t *testing.T) {
	var gotRef, gotCookie atomic.Value
	r := chi.NewRouter()
	r.Get("/x/v2/dm/web/seg.so", func(w http.ResponseWriter, req *http.Request) {
		gotRef.Store(req.Header.Get("Referer"))
		gotCookie.Store(req.Header.Get("Cookie"))
		if req.URL.Query().Get("segment_index") == "2" {
			w.WriteHeader(http.StatusPreconditionFailed)
			return
		}
		_, _ = w.Write(segBytes(dmseg.Comment{Time: 1.5, Text: "hi"}))
	})
	c, _ := newTestClient(t, r, func(o *Options) { o.Cookie = "SESSDATA=x" })

	ref := c.Referrer("BV1", 2)
	b, st, err := c.Segment(context.Background(), 9, 1, ref)
	if err != nil || st != http.StatusOK {
		t.Fatalf("segment 1: %d %v", st, err)
	}
	if cs := dmseg.Decode(b); len(cs) != 1 || cs[0].Text != "hi" {
		t.Fatalf("decoded = %+v", cs)
	}
	if gotRef.Load() != "https://site.test/video/BV1/?p=2" || gotCookie.Load() != "SESSDATA=x" {
		t.Fatalf("headers ref=%v cookie=%v", gotRef.Load(), gotCookie.Load())
	}

	_, st, err = c.Segment(context.Background(), 9, 2, "")
	if st != http.StatusPreconditionFailed || !perr.IsCode(err, perr.ErrorCodeTooManyRequests) {
		t.Fatalf("segment 2: %d %v", st, err)
	}
	if gotRef.Load() != "https://site.test/" {
		t.Fatalf("default referrer = %v", gotRef.Load())
	}
}

func TestSegmentTransportError(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	_, st, err := c.Segment(context.Background(), 1, 1, "")
	if err == nil || st != -1 {
		t.Fatalf("status = %d err = %v", st, err)
	}
	if !perr.Retryable(err) {
		t.Fatalf("transport error should be retryable: %v", err)
	}
}

func TestGetJSONRetriesTransient(t *testing.T) {
	var hits atomic.Int32
	r := chi.NewRouter()
	r.Get("/x/web-interface/view", func(w http.ResponseWriter, req *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, `{"code":0,"data":{"bvid":"BV1","cid":42,"owner":{"mid":7}}}`)
	})
	c, _ := newTestClient(t, r)

	v, err := c.View(context.Background(), "BV1")
	if err != nil {
		t.Fatal(err)
	}
	if v.CID != 42 || v.Owner.Mid != 7 || hits.Load() != 3 {
		t.Fatalf("view = %+v after %d hits", v, hits.Load())
	}
}

func TestGetJSONGivesUp(t *testing.T) {
	var hits atomic.Int32
	r := chi.NewRouter()
	r.Get("/x/web-interface/view", func(w http.ResponseWriter, req *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	r.Get("/x/player/pagelist", func(w http.ResponseWriter, req *http.Request) {
		hits.Add(1)
		writeJSON(w, `{"code":-404,"message":"nothing here"}`)
	})
	c, _ := newTestClient(t, r, func(o *Options) { o.MaxRetries = 1 })

	if _, err := c.View(context.Background(), "BV1"); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("hits = %d, want 2", hits.Load())
	}

	hits.Store(0)
	_, err := c.PageList(context.Background(), "BV1")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) || hits.Load() != 1 {
		t.Fatalf("api code err = %v after %d hits", err, hits.Load())
	}
	kit.MustContain(t, err.Error(), "nothing here")
}

func TestListXML(t *testing.T) {
	const doc = `<?xml version="1.0" encoding="UTF-8"?><i><chatserver>x</chatserver>` +
		`<d p="12.5,1,25,16777215">第一` + "\x00" + `条</d>` +
		`<d p="3.25,1,25,16777215">  second  </d>` +
		`<d p="-1,1">negative</d>` +
		`<d p="abc,1">bad time</d>` +
		`<d p="4,1">   </d></i>`

	r := chi.NewRouter()
	r.Get("/x/v1/dm/list.so", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("oid") == "2" {
			w.Header().Set("Content-Encoding", "deflate")
			var buf bytes.Buffer
			fw, _ := flate.NewWriter(&buf, flate.BestSpeed)
			_, _ = fw.Write([]byte(doc))
			_ = fw.Close()
			_, _ = w.Write(buf.Bytes())
			return
		}
		_, _ = w.Write([]byte(doc))
	})
	c, _ := newTestClient(t, r)

	for _, oid := range []int64{1, 2} {
		cs, err := c.ListXML(context.Background(), oid)
		if err != nil {
			t.Fatalf("oid %d: %v", oid, err)
		}
		want := []dmseg.Comment{{Time: 12.5, Text: "第一条"}, {Time: 3.25, Text: "second"}}
		if len(cs) != len(want) || cs[0] != want[0] || cs[1] != want[1] {
			t.Fatalf("oid %d: comments = %+v", oid, cs)
		}
	}
}

func TestParseXMLSkipsNonFiniteTimes(t *testing.T) {
	const doc = `<i><d p="NaN,1">nan time</d><d p="Inf,1">inf time</d>` +
		`<d p="-Inf,1">neg inf</d><d p="+inf,1">plus inf</d><d p="7,1">kept</d></i>`
	cs, err := ParseXML(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(cs) != 1 || cs[0] != (dmseg.Comment{Time: 7, Text: "kept"}) {
		t.Fatalf("comments = %+v", cs)
	}
}

func TestParseXMLTruncated(t *testing.T) {
	cs, err := ParseXML(strings.NewReader(`<i><d p="1,1">ok</d><d p="2,1">cut`))
	if len(cs) != 1 || cs[0].Text != "ok" {
		t.Fatalf("comments = %+v", cs)
	}
	if !perr.IsCode(err, perr.ErrorCodeMalformed) {
		t.Fatalf("err = %v", err)
	}
}

func TestHistory(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/x/v2/dm/history/index", func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Query().Get("month") {
		case "2024-01":
			writeJSON(w, `{"code":0,"data":["2024-01-02","2024-01-09"]}`)
		case "2024-02":
			writeJSON(w, `{"code":0,"data":{"dates":["2024-02-01"]}}`)
		default:
			writeJSON(w, `{"code":0,"data":null}`)
		}
	})
	r.Get("/x/v2/dm/web/history/seg.so", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write(segBytes(dmseg.Comment{Time: 2, Text: req.URL.Query().Get("date")}))
	})
	c, _ := newTestClient(t, r)
	ctx := context.Background()

	for month, want := range map[string]int{"2024-01": 2, "2024-02": 1, "2024-03": 0} {
		dates, err := c.HistoryIndex(ctx, 1, month)
		if err != nil || len(dates) != want {
			t.Fatalf("%s: dates = %v, %v", month, dates, err)
		}
	}
	cs, err := c.HistorySegment(ctx, 1, "2024-01-02")
	if err != nil || len(cs) != 1 || cs[0].Text != "2024-01-02" {
		t.Fatalf("history seg = %+v, %v", cs, err)
	}
}

func TestSubtitles(t *testing.T) {
	var srvURL string
	r := chi.NewRouter()
	r.Get("/x/web-interface/view", func(w http.ResponseWriter, req *http.Request) {
		host := strings.TrimPrefix(srvURL, "http:")
		writeJSON(w, fmt.Sprintf(`{"code":0,"data":{"subtitle":{"list":[
			{"lan":"en-US","lan_doc":"English","subtitle_url":"%s/sub/en.json"},
			{"lan":"zh-CN","lan_doc":"中文","subtitle_url":""},
			{"lan":"ai-zh","lan_doc":"中文（自动生成）","subtitle_url":"%s/sub/zh.json"}]}}}`, srvURL, host))
	})
	r.Get("/sub/zh.json", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, `{"body":[{"from":1,"to":3,"content":"你好"},{"from":5,"to":5,"content":"zero"},{"from":6,"to":8,"content":""}]}`)
	})
	c, srv := newTestClient(t, r)
	srvURL = srv.URL

	tracks, err := c.SubtitleTracks(context.Background(), "BV1")
	if err != nil || len(tracks) != 2 {
		t.Fatalf("tracks = %+v, %v", tracks, err)
	}
	if !strings.HasPrefix(tracks[1].URL, "https://") {
		t.Fatalf("protocol-relative URL not fixed: %q", tracks[1].URL)
	}

	lines, err := c.SubtitleTrack(context.Background(), srv.URL+"/sub/zh.json")
	if err != nil || len(lines) != 1 || lines[0].Content != "你好" {
		t.Fatalf("lines = %+v, %v", lines, err)
	}
}

func TestMixinKey(t *testing.T) {
	got := mixinKey(
		keyOf("https://i0.hdslb.com/bfs/wbi/7cd084941338484aae1ad9425b84077c.png"),
		keyOf("https://i0.hdslb.com/bfs/wbi/4932caff0ff746eab6f01bf08b70ac45.png"),
	)
	if got != "ea1db124af3c7062474693fa704f4ff8" {
		t.Fatalf("mixinKey = %q", got)
	}
	if keyOf("") != "" || mixinKey("", "") != "" {
		t.Fatal("empty keys should give empty mixin")
	}
}

func TestSignWBI(t *testing.T) {
	params := url.Values{}
	params.Set("up_mid", "7")
	params.Set("bvid", "BV1xx411c7mD")
	params.Set("cid", "100")
	got := signWBI(params, "ea1db124af3c7062474693fa704f4ff8", time.Unix(1700000000, 0))
	want := "bvid=BV1xx411c7mD&cid=100&up_mid=7&wts=1700000000&w_rid=4d4f2b0138d18863313aa0e49ea44705"
	if got != want {
		t.Fatalf("signWBI = %q", got)
	}
	if params.Has("wts") {
		t.Fatal("input params mutated")
	}
}

func TestSummary(t *testing.T) {
	var navHits atomic.Int32
	r := chi.NewRouter()
	r.Get("/x/web-interface/nav", func(w http.ResponseWriter, req *http.Request) {
		navHits.Add(1)
		writeJSON(w, `{"code":-101,"message":"not logged in","data":{"wbi_img":{
			"img_url":"https://i0.hdslb.com/bfs/wbi/7cd084941338484aae1ad9425b84077c.png",
			"sub_url":"https://i0.hdslb.com/bfs/wbi/4932caff0ff746eab6f01bf08b70ac45.png"}}}`)
	})
	r.Get("/x/web-interface/view", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, `{"code":0,"data":{"bvid":"BV1","cid":100,"owner":{"mid":7}}}`)
	})
	r.Get("/x/web-interface/view/conclusion/get", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		rid := q.Get("w_rid")
		q.Del("w_rid")
		sum := md5.Sum([]byte(q.Encode() + "ea1db124af3c7062474693fa704f4ff8"))
		if rid != hex.EncodeToString(sum[:]) || q.Get("cid") != "100" || q.Get("up_mid") != "7" {
			writeJSON(w, `{"code":-403,"message":"bad sign"}`)
			return
		}
		writeJSON(w, `{"code":0,"data":{"model_result":{"summary":"s","outline":[
			{"title":"开场","timestamp":0,"part_outline":[{"timestamp":12,"content":"问候"}]}]}}}`)
	})
	c, _ := newTestClient(t, r)

	for range 2 {
		mr, err := c.Summary(context.Background(), "BV1")
		if err != nil {
			t.Fatal(err)
		}
		if len(mr.Outline) != 1 || mr.Outline[0].PartOutline[0].Text() != "问候" {
			t.Fatalf("model result = %+v", mr)
		}
	}
	if navHits.Load() != 1 {
		t.Fatalf("nav fetched %d times, want cached", navHits.Load())
	}
}
