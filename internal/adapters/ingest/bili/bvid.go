package bili

import (
	"regexp"
	"strings"

	perr "danmood/internal/platform/errors"
)

var bvidRe = regexp.MustCompile(`BV[0-9A-Za-z]{10}`)

// ParseBVID extracts a BV id from a bare id or a video URL
func ParseBVID(s string) (string, error) {
	id := bvidRe.FindString(strings.TrimSpace(s))
	if id == "" {
		return "", perr.WithField(perr.InvalidArgf("no BV id in %q", s), "bvid")
	}
	return id, nil
}
