package bili

import pstrings "danmood/internal/platform/strings"

// Page is one part of a multi-part video
type Page struct {
	CID      int64  `json:"cid"`
	Page     int    `json:"page"`
	Part     string `json:"part"`
	Duration int    `json:"duration"`
}

// Owner is the uploader of a video
type Owner struct {
	Mid  int64  `json:"mid"`
	Name string `json:"name"`
}

// View is a partial video document with the fields we use
type View struct {
	BVID     string `json:"bvid"`
	AID      int64  `json:"aid"`
	CID      int64  `json:"cid"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
	Owner    Owner  `json:"owner"`
	Pages    []Page `json:"pages"`
	Subtitle struct {
		List []SubtitleTrack `json:"list"`
	} `json:"subtitle"`
}

// SubtitleTrack is one available subtitle language
type SubtitleTrack struct {
	Lan    string `json:"lan"`
	LanDoc string `json:"lan_doc"`
	URL    string `json:"subtitle_url"`
}

// SubtitleLine is one timed subtitle cue
type SubtitleLine struct {
	From    float64 `json:"from"`
	To      float64 `json:"to"`
	Content string  `json:"content"`
}

// ModelResult is the AI summary of a video
type ModelResult struct {
	Summary string           `json:"summary"`
	Outline []OutlineSection `json:"outline"`
}

// OutlineSection is one chapter of the AI outline
type OutlineSection struct {
	Title       string        `json:"title"`
	Timestamp   float64       `json:"timestamp"`
	PartOutline []OutlinePart `json:"part_outline"`
}

// OutlinePart is a bullet under an outline section
type OutlinePart struct {
	Timestamp float64 `json:"timestamp"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
}

// Text is the part's title, or its content when untitled
func (p OutlinePart) Text() string { return pstrings.FirstNonEmpty(p.Title, p.Content) }
