package bili

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"danmood/internal/core/dmseg"
	"danmood/internal/core/normalize"
	perr "danmood/internal/platform/errors"
)

// ParseXML reads <d p="time,...">text</d> elements. Control characters are
// stripped, and elements with empty text are skipped, as are those whose time
// is unparsable, negative, NaN or infinite. On a syntax error the comments
// read so far are returned with a Malformed error
func ParseXML(r io.Reader) ([]dmseg.Comment, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, perr.Classify(err, "bili read xml")
	}
	dec := xml.NewDecoder(bytes.NewReader([]byte(normalize.Sanitize(string(raw)))))
	dec.Strict = false

	var out []dmseg.Comment
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, perr.Wrapf(err, perr.ErrorCodeMalformed, "bili xml after %d comments", len(out))
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "d" {
			continue
		}
		var el struct {
			P    string `xml:"p,attr"`
			Text string `xml:",chardata"`
		}
		if err := dec.DecodeElement(&el, &se); err != nil {
			return out, perr.Wrapf(err, perr.ErrorCodeMalformed, "bili xml element")
		}
		first, _, _ := strings.Cut(el.P, ",")
		t, parseErr := strconv.ParseFloat(strings.TrimSpace(first), 64)
		text := strings.TrimSpace(el.Text)
		if parseErr != nil || t < 0 || math.IsNaN(t) || math.IsInf(t, 0) || text == "" {
			continue
		}
		out = append(out, dmseg.Comment{Time: t, Text: text})
	}
}
