package xhs

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"

	"favharvest/internal/harvest"
)

// noteURL builds the public URL for a note. With a share token the
// discovery route is required; without one only the explore route exists,
// which the site may refuse to render.
func noteURL(id, token string) string {
	if token == "" {
		return siteBase + "/explore/" + id
	}
	q := url.Values{
		"source":      {"webshare"},
		"xhsshare":    {"pc_web"},
		"xsec_token":  {token},
		"xsec_source": {"pc_share"},
	}
	return siteBase + "/discovery/item/" + id + "?" + q.Encode()
}

type noteDetail struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
	User  struct {
		Nickname string `json:"nickname"`
	} `json:"user"`
	Video struct {
		Media struct {
			Stream map[string][]struct {
				MasterURL string `json:"masterUrl"`
				Size      int64  `json:"size"`
			} `json:"stream"`
		} `json:"media"`
	} `json:"video"`
}

// FetchContent resolves a note to its description text. Video notes keep
// their description but are also flagged for transcription with the best
// stream URL. A note page that renders no state for us means the share
// token is missing or stale.
func (c *Client) FetchContent(ctx context.Context, ref harvest.ItemRef, opts harvest.ContentOptions) (*harvest.ContentRecord, error) {
	harvest.IncrContent()
	id := ref.ID
	if id == "" {
		parsed, ok := c.ResolveURL(ref.URL)
		if !ok {
			return nil, &harvest.UnsupportedURLError{URL: ref.URL}
		}
		id = parsed.ID
		if ref.AccessToken == "" {
			ref.AccessToken = parsed.AccessToken
		}
	}

	pageURL := noteURL(id, ref.AccessToken)
	_, state, err := c.pageState(ctx, pageURL)
	if err != nil {
		harvest.IncrContentErr()
		return nil, err
	}
	detail, ok := detailFromState(state, id)
	if !ok {
		// The server renders detail only for authorized views. With a
		// token already on the request an empty page is a challenge, not
		// a missing credential.
		if ref.AccessToken != "" {
			harvest.IncrBlocked()
			return nil, &harvest.BlockedError{Platform: harvest.Xiaohongshu, Detail: "note page rendered no state"}
		}
		return nil, &harvest.AccessTokenRequiredError{Platform: harvest.Xiaohongshu, ItemID: id}
	}

	rec := &harvest.ContentRecord{
		Platform: harvest.Xiaohongshu,
		ItemID:   id,
		Title:    detail.Title,
		URL:      pageURL,
		Author:   detail.User.Nickname,
		Text:     harvest.CollapseWhitespace(detail.Desc),
		Method:   harvest.MethodNoteDescription,
	}
	if detail.Type == "video" {
		rec.Method = harvest.MethodNoneAvailable
		rec.Text = ""
		rec.Transcription = &harvest.TranscriptionRequest{
			URL:         pageURL,
			AccessToken: ref.AccessToken,
			StreamURL:   bestStreamURL(detail),
		}
		return rec, nil
	}
	if rec.Text == "" {
		rec.Method = harvest.MethodNoneAvailable
	}
	return rec, nil
}

// detailFromState digs the note detail out of the page state, trying the
// detail map first and the legacy noteData shape second.
func detailFromState(state json.RawMessage, id string) (*noteDetail, bool) {
	if state == nil {
		return nil, false
	}
	var top struct {
		Note struct {
			CurrentNoteID string                     `json:"currentNoteId"`
			NoteDetailMap map[string]json.RawMessage `json:"noteDetailMap"`
		} `json:"note"`
		NoteData struct {
			Data struct {
				NoteData json.RawMessage `json:"noteData"`
			} `json:"data"`
		} `json:"noteData"`
	}
	if err := json.Unmarshal(state, &top); err != nil {
		return nil, false
	}

	lookup := id
	if _, ok := top.Note.NoteDetailMap[lookup]; !ok && top.Note.CurrentNoteID != "" {
		lookup = top.Note.CurrentNoteID
	}
	if raw, ok := top.Note.NoteDetailMap[lookup]; ok {
		var entry struct {
			Note json.RawMessage `json:"note"`
		}
		if harvest.RawValue(raw, &entry) == nil && entry.Note != nil {
			var detail noteDetail
			if harvest.RawValue(entry.Note, &detail) == nil && (detail.Title != "" || detail.Desc != "" || detail.Type != "") {
				return &detail, true
			}
		}
	}
	if top.NoteData.Data.NoteData != nil {
		var detail noteDetail
		if harvest.RawValue(top.NoteData.Data.NoteData, &detail) == nil && (detail.Title != "" || detail.Desc != "" || detail.Type != "") {
			return &detail, true
		}
	}
	return nil, false
}

// bestStreamURL picks the smallest rendition across codecs, which keeps
// the transcription download cheap. Renditions without a reported size are
// a last resort; codecs are walked in sorted order so the pick is stable.
func bestStreamURL(detail *noteDetail) string {
	codecs := make([]string, 0, len(detail.Video.Media.Stream))
	for codec := range detail.Video.Media.Stream {
		codecs = append(codecs, codec)
	}
	sort.Strings(codecs)

	var best, unsized string
	var bestSize int64 = -1
	for _, codec := range codecs {
		for _, r := range detail.Video.Media.Stream[codec] {
			if r.MasterURL == "" {
				continue
			}
			if r.Size <= 0 {
				if unsized == "" {
					unsized = r.MasterURL
				}
				continue
			}
			if bestSize < 0 || r.Size < bestSize {
				best = r.MasterURL
				bestSize = r.Size
			}
		}
	}
	if best == "" {
		return unsized
	}
	return best
}
