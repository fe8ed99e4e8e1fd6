package xhs

import (
	"context"
	"encoding/json"
	"fmt"

	"favharvest/internal/harvest"
)

// SavedContainerID is the pseudo-container holding notes saved outside any
// board. Boards get their real ids.
const SavedContainerID = "saved"

type boardInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Total   int    `json:"total"`
	Privacy int    `json:"privacy"`
	Desc    string `json:"desc"`
}

// ListContainers returns the saved-notes pseudo-container followed by the
// account's boards, read from the profile page's board tab. Boards on
// xiaohongshu are always owned by the profile, so the kind filter is a
// no-op.
func (c *Client) ListContainers(ctx context.Context, accountID string, _ harvest.KindFilter, limit int) ([]harvest.Container, error) {
	harvest.IncrContainers()
	profile, err := c.resolveProfile(ctx, accountID)
	if err != nil {
		return nil, err
	}
	pageURL := fmt.Sprintf("%s/user/profile/%s?tab=fav&subTab=board", siteBase, profile)
	_, state, err := c.pageState(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, &harvest.UpstreamFormatError{Platform: harvest.Xiaohongshu, Op: "list boards", Detail: "no page state"}
	}

	boards, err := boardsFromState(state)
	if err != nil {
		return nil, err
	}
	out := []harvest.Container{{
		Platform: harvest.Xiaohongshu,
		ID:       SavedContainerID,
		Name:     "Saved notes",
		Kind:     harvest.KindCreated,
		URL:      fmt.Sprintf("%s/user/profile/%s?tab=fav", siteBase, profile),
	}}
	for _, b := range boards {
		out = append(out, harvest.Container{
			Platform:  harvest.Xiaohongshu,
			ID:        b.ID,
			Name:      b.Name,
			ItemCount: b.Total,
			Kind:      harvest.KindCreated,
			URL:       siteBase + "/board/" + b.ID + "?source=web_user_page",
		})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func boardsFromState(state json.RawMessage) ([]boardInfo, error) {
	var top struct {
		Board struct {
			UserBoardList json.RawMessage `json:"userBoardList"`
		} `json:"board"`
	}
	if err := json.Unmarshal(state, &top); err != nil || top.Board.UserBoardList == nil {
		return nil, &harvest.UpstreamFormatError{Platform: harvest.Xiaohongshu, Op: "list boards", Detail: "no board list in state"}
	}
	var boards []boardInfo
	if err := harvest.RawValue(top.Board.UserBoardList, &boards); err != nil {
		return nil, &harvest.UpstreamFormatError{Platform: harvest.Xiaohongshu, Op: "list boards", Detail: "board list shape"}
	}
	return boards, nil
}

// noteEntry is one feed card, in a board feed or the saved-notes tab.
type noteEntry struct {
	ID        string `json:"id"`
	XsecToken string `json:"xsecToken"`
	NoteCard  struct {
		DisplayTitle string `json:"displayTitle"`
		User         struct {
			NickName string `json:"nickName"`
			Nickname string `json:"nickname"`
		} `json:"user"`
		Cover struct {
			URLDefault string `json:"urlDefault"`
		} `json:"cover"`
	} `json:"noteCard"`
}

// ListItems lists a board's notes, or the saved-notes tab for the pseudo
// container. The state snapshot holds whatever the server rendered; there
// is no pagination cursor to follow, so opts.PageSize is unused here.
func (c *Client) ListItems(ctx context.Context, containerID string, opts harvest.ListOptions) ([]harvest.Item, error) {
	harvest.IncrItems()
	if opts.Order != "" {
		return nil, fmt.Errorf("xiaohongshu: feeds have no server-side ordering (got order %q)", opts.Order)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = harvest.Cfg.ItemLimit
	}

	var entries []noteEntry
	var err error
	if containerID == SavedContainerID {
		entries, err = c.savedNotes(ctx)
	} else {
		entries, err = c.boardNotes(ctx, containerID)
	}
	if err != nil {
		return nil, err
	}

	out := make([]harvest.Item, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		out = append(out, toItem(e, containerID))
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// savedNotes reads the favorites tab of the own profile. user.notes is an
// array of tab feeds; index 1 is the favorites tab.
func (c *Client) savedNotes(ctx context.Context) ([]noteEntry, error) {
	profile, err := c.resolveProfile(ctx, "")
	if err != nil {
		return nil, err
	}
	pageURL := fmt.Sprintf("%s/user/profile/%s?tab=fav", siteBase, profile)
	_, state, err := c.pageState(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, &harvest.UpstreamFormatError{Platform: harvest.Xiaohongshu, Op: "list saved notes", Detail: "no page state"}
	}
	var top struct {
		User struct {
			Notes json.RawMessage `json:"notes"`
		} `json:"user"`
	}
	if err := json.Unmarshal(state, &top); err != nil || top.User.Notes == nil {
		return nil, &harvest.UpstreamFormatError{Platform: harvest.Xiaohongshu, Op: "list saved notes", Detail: "no notes feed in state"}
	}
	var tabs [][]noteEntry
	if err := harvest.RawValue(top.User.Notes, &tabs); err != nil {
		return nil, &harvest.UpstreamFormatError{Platform: harvest.Xiaohongshu, Op: "list saved notes", Detail: "notes feed shape"}
	}
	if len(tabs) < 2 {
		return nil, nil
	}
	return tabs[1], nil
}

// boardNotes reads one board's rendered feed from the board page.
func (c *Client) boardNotes(ctx context.Context, boardID string) ([]noteEntry, error) {
	pageURL := siteBase + "/board/" + boardID + "?source=web_user_page"
	_, state, err := c.pageState(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, &harvest.UpstreamFormatError{Platform: harvest.Xiaohongshu, Op: "list board notes", Detail: "no page state"}
	}
	var top struct {
		Board struct {
			BoardFeedsMap json.RawMessage `json:"boardFeedsMap"`
		} `json:"board"`
	}
	if err := json.Unmarshal(state, &top); err != nil || top.Board.BoardFeedsMap == nil {
		return nil, &harvest.UpstreamFormatError{Platform: harvest.Xiaohongshu, Op: "list board notes", Detail: "no board feed in state"}
	}
	var feeds map[string][]noteEntry
	if err := harvest.RawValue(top.Board.BoardFeedsMap, &feeds); err != nil {
		return nil, &harvest.UpstreamFormatError{Platform: harvest.Xiaohongshu, Op: "list board notes", Detail: "board feed shape"}
	}
	return feeds[boardID], nil
}

func toItem(e noteEntry, containerID string) harvest.Item {
	author := e.NoteCard.User.NickName
	if author == "" {
		author = e.NoteCard.User.Nickname
	}
	return harvest.Item{
		Platform:    harvest.Xiaohongshu,
		ContainerID: containerID,
		ID:          e.ID,
		URL:         noteURL(e.ID, e.XsecToken),
		Title:       e.NoteCard.DisplayTitle,
		Author:      author,
		Kind:        harvest.MediaNote,
		AccessToken: e.XsecToken,
	}
}
