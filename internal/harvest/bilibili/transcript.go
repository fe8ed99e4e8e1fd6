package bilibili

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"favharvest/internal/harvest"
)

// defaultLangs is the subtitle-language preference when the caller has none.
var defaultLangs = []string{"zh-CN", "zh-Hans", "zh"}

type viewData struct {
	Title string `json:"title"`
	CID   int64  `json:"cid"`
	Owner struct {
		Name string `json:"name"`
	} `json:"owner"`
	Pages []struct {
		CID  int64  `json:"cid"`
		Part string `json:"part"`
	} `json:"pages"`
}

type subtitleTrack struct {
	Lan         string `json:"lan"`
	LanDoc      string `json:"lan_doc"`
	SubtitleURL string `json:"subtitle_url"`
}

// FetchContent resolves a saved video to its subtitle track. A video with
// no track is a valid none-available record carrying a transcription
// marker, not an error.
func (c *Client) FetchContent(ctx context.Context, ref harvest.ItemRef, opts harvest.ContentOptions) (*harvest.ContentRecord, error) {
	harvest.IncrContent()
	bvid, ok := extractBVID(ref.ID)
	if !ok {
		bvid, ok = extractBVID(ref.URL)
	}
	if !ok {
		return nil, &harvest.UnsupportedURLError{URL: ref.URL}
	}
	videoURL := "https://www.bilibili.com/video/" + bvid

	view, err := c.fetchView(ctx, bvid)
	if err != nil {
		harvest.IncrContentErr()
		return nil, err
	}
	cid, err := pickCID(view, opts.Page)
	if err != nil {
		return nil, err
	}

	tracks, err := c.fetchTracks(ctx, bvid, cid)
	if err != nil {
		harvest.IncrContentErr()
		return nil, err
	}
	track, ok := pickTrack(tracks, opts.Languages)
	if !ok {
		return &harvest.ContentRecord{
			Platform:      harvest.Bilibili,
			ItemID:        bvid,
			Title:         view.Title,
			URL:           videoURL,
			Author:        view.Owner.Name,
			Method:        harvest.MethodNoneAvailable,
			Transcription: &harvest.TranscriptionRequest{URL: videoURL},
		}, nil
	}

	frags, err := c.fetchFragments(ctx, track.SubtitleURL)
	if err != nil {
		harvest.IncrContentErr()
		return nil, err
	}
	return &harvest.ContentRecord{
		Platform:  harvest.Bilibili,
		ItemID:    bvid,
		Title:     view.Title,
		URL:       videoURL,
		Author:    view.Owner.Name,
		Text:      harvest.FlattenFragments(frags, opts.Timestamps),
		Method:    harvest.MethodSubtitleTrack,
		Fragments: frags,
	}, nil
}

func (c *Client) fetchView(ctx context.Context, bvid string) (*viewData, error) {
	data, err := c.apiGet(ctx, "video view", "/x/web-interface/view", url.Values{"bvid": {bvid}}, "")
	if err != nil {
		return nil, err
	}
	var view viewData
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, &harvest.UpstreamFormatError{Platform: harvest.Bilibili, Op: "video view", Detail: "view payload"}
	}
	return &view, nil
}

// pickCID selects the part to transcribe. page is 1-based; 0 means the
// first part. Videos that report no pages array still carry a top-level cid.
func pickCID(view *viewData, page int) (int64, error) {
	if page <= 0 {
		page = 1
	}
	if len(view.Pages) == 0 {
		if page > 1 {
			return 0, fmt.Errorf("bilibili: video has a single part, page %d requested", page)
		}
		if view.CID == 0 {
			return 0, &harvest.UpstreamFormatError{Platform: harvest.Bilibili, Op: "video view", Detail: "no cid"}
		}
		return view.CID, nil
	}
	if page > len(view.Pages) {
		return 0, fmt.Errorf("bilibili: video has %d parts, page %d requested", len(view.Pages), page)
	}
	return view.Pages[page-1].CID, nil
}

func (c *Client) fetchTracks(ctx context.Context, bvid string, cid int64) ([]subtitleTrack, error) {
	q := url.Values{"bvid": {bvid}, "cid": {fmt.Sprintf("%d", cid)}}
	data, err := c.apiGet(ctx, "player info", "/x/player/v2", q, "")
	if err != nil {
		return nil, err
	}
	var payload struct {
		Subtitle struct {
			Subtitles []subtitleTrack `json:"subtitles"`
		} `json:"subtitle"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &harvest.UpstreamFormatError{Platform: harvest.Bilibili, Op: "player info", Detail: "player payload"}
	}
	return payload.Subtitle.Subtitles, nil
}

// pickTrack chooses the first track matching the language preference, most
// preferred first, falling back to the first track of any language.
func pickTrack(tracks []subtitleTrack, langs []string) (subtitleTrack, bool) {
	usable := tracks[:0:0]
	for _, t := range tracks {
		if t.SubtitleURL != "" {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return subtitleTrack{}, false
	}
	if len(langs) == 0 {
		langs = defaultLangs
	}
	for _, lang := range langs {
		for _, t := range usable {
			if strings.EqualFold(t.Lan, lang) || strings.EqualFold(t.LanDoc, lang) {
				return t, true
			}
		}
	}
	return usable[0], true
}

// fetchFragments downloads one subtitle JSON document. Track URLs are often
// protocol-relative.
func (c *Client) fetchFragments(ctx context.Context, trackURL string) ([]harvest.Fragment, error) {
	if strings.HasPrefix(trackURL, "//") {
		trackURL = "https:" + trackURL
	}
	creds, err := c.creds(ctx)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Body []struct {
			From    float64 `json:"from"`
			To      float64 `json:"to"`
			Content string  `json:"content"`
		} `json:"body"`
	}
	headers := map[string]string{"Referer": refererWeb}
	if err := harvest.GetJSON(ctx, harvest.Bilibili, trackURL, creds.Cookie, headers, &payload); err != nil {
		return nil, fmt.Errorf("fetch subtitle document: %w", err)
	}
	frags := make([]harvest.Fragment, 0, len(payload.Body))
	for _, line := range payload.Body {
		frags = append(frags, harvest.Fragment{From: line.From, To: line.To, Text: line.Content})
	}
	return frags, nil
}
