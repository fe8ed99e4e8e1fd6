// Package harvest defines the cross-platform favorites-retrieval contract:
// the data model, the error set, the platform client interface, and the
// router that dispatches URLs and fan-out listings to platform clients.
package harvest

import "context"

// Platform identifies one of the supported favorites sources.
type Platform string

const (
	Bilibili    Platform = "bilibili"
	Zhihu       Platform = "zhihu"
	Xiaohongshu Platform = "xiaohongshu"
)

// PlatformOrder is the fixed priority used when aggregating multi-platform
// output. Results are reported in this order, never in completion order.
var PlatformOrder = []Platform{Bilibili, Zhihu, Xiaohongshu}

// ParsePlatform maps a user-supplied name to a Platform.
func ParsePlatform(s string) (Platform, bool) {
	switch Platform(s) {
	case Bilibili, Zhihu, Xiaohongshu:
		return Platform(s), true
	}
	// Common alias from the web UI.
	if s == "xhs" {
		return Xiaohongshu, true
	}
	return "", false
}

// CredentialSource records where a cookie header came from.
type CredentialSource string

const (
	SourceOverride CredentialSource = "override"
	SourceEnv      CredentialSource = "env"
	SourceSync     CredentialSource = "cookiecloud"
)

// Credentials is an opaque cookie header plus its resolved source.
// Resolved once per invocation; never persisted, never logged.
type Credentials struct {
	Cookie string
	Source CredentialSource
}

// CredentialFunc resolves credentials on first use. Implementations must be
// safe for concurrent callers and must not retry failed resolution.
type CredentialFunc func(ctx context.Context) (Credentials, error)

// Account identifies the authenticated user on a platform.
type Account struct {
	Platform Platform `json:"platform"`
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
}

// ContainerKind distinguishes containers the account created from ones it
// subscribed to, on platforms that make the distinction.
type ContainerKind string

const (
	KindCreated    ContainerKind = "created"
	KindSubscribed ContainerKind = "subscribed"
)

// KindFilter selects which container kinds ListContainers fetches.
type KindFilter int

const (
	FilterCreated KindFilter = iota
	FilterAll
)

// Container is a folder/collection/board snapshot. Read-only, fetched per
// invocation, never cached.
type Container struct {
	Platform  Platform      `json:"platform"`
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	ItemCount int           `json:"item_count,omitempty"`
	Kind      ContainerKind `json:"kind"`
	URL       string        `json:"url,omitempty"`
}

// MediaKind tags what an item fundamentally is.
type MediaKind string

const (
	MediaVideo   MediaKind = "video"
	MediaArticle MediaKind = "article"
	MediaNote    MediaKind = "note"
)

// Item is one saved entry inside a container. AccessToken is the item-scoped
// share token some platforms require to view the item; it is short-lived and
// travels with the item so FetchContent needs no hidden cross-call state.
type Item struct {
	Platform    Platform  `json:"platform"`
	ContainerID string    `json:"container_id,omitempty"`
	ID          string    `json:"id"`
	URL         string    `json:"url,omitempty"`
	Title       string    `json:"title,omitempty"`
	Author      string    `json:"author,omitempty"`
	SavedAt     int64     `json:"saved_at,omitempty"` // unix seconds, platform-dependent meaning
	Kind        MediaKind `json:"kind,omitempty"`
	AccessToken string    `json:"access_token,omitempty"`
}

// Ref carries the fields needed to fetch content for one item.
func (it Item) Ref() ItemRef {
	return ItemRef{
		Platform:    it.Platform,
		ID:          it.ID,
		URL:         it.URL,
		Kind:        it.Kind,
		AccessToken: it.AccessToken,
	}
}

// ItemRef is the minimal handle FetchContent operates on. Either ID or URL
// must be set; AccessToken is required by some platforms for some items.
type ItemRef struct {
	Platform    Platform  `json:"platform"`
	ID          string    `json:"id,omitempty"`
	URL         string    `json:"url,omitempty"`
	Kind        MediaKind `json:"kind,omitempty"`
	AccessToken string    `json:"access_token,omitempty"`
}

// ExtractionMethod says how a ContentRecord's text was obtained.
type ExtractionMethod string

const (
	MethodSubtitleTrack   ExtractionMethod = "subtitle-track"
	MethodArticleBody     ExtractionMethod = "article-body"
	MethodNoteDescription ExtractionMethod = "note-description"
	MethodNoneAvailable   ExtractionMethod = "none-available"
)

// Fragment is one timed caption line. From/To are seconds from video start.
type Fragment struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
	Text string  `json:"text"`
}

// TranscriptionRequest tells the external media pipeline everything it needs
// to produce a transcript when no text track exists.
type TranscriptionRequest struct {
	URL         string `json:"url"`
	AccessToken string `json:"access_token,omitempty"`
	StreamURL   string `json:"stream_url,omitempty"`
}

// ContentRecord is the normalized result of resolving one item to text.
// Invariant: Method == MethodNoneAvailable iff Text is empty, and only
// none-available records carry a Transcription marker.
type ContentRecord struct {
	Platform      Platform              `json:"platform"`
	ItemID        string                `json:"item_id"`
	Title         string                `json:"title,omitempty"`
	URL           string                `json:"url,omitempty"`
	Author        string                `json:"author,omitempty"`
	Text          string                `json:"text,omitempty"`
	Markdown      string                `json:"markdown,omitempty"`
	Method        ExtractionMethod      `json:"method"`
	Fragments     []Fragment            `json:"fragments,omitempty"`
	Transcription *TranscriptionRequest `json:"needs_transcription,omitempty"`
}

// ListOptions controls item listing. PageSize 0 uses the platform default;
// Order is passed through to the platform untouched; Limit 0 means the
// package default.
type ListOptions struct {
	PageSize int
	Order    string
	Limit    int
}

// ContentOptions tunes FetchContent.
type ContentOptions struct {
	Languages  []string // preferred subtitle languages, most preferred first
	Timestamps bool     // keep per-fragment timing in the flattened text
	Page       int      // 1-based part index for multi-part videos
}

// Client is the capability every platform integration implements. All
// operations take the resolved credentials from the client's CredentialFunc
// and perform a single best-effort pass: no internal retries.
type Client interface {
	Platform() Platform

	// Identify confirms the session is authenticated and returns the owning
	// account. An anonymous or expired session is an *AuthError.
	Identify(ctx context.Context) (*Account, error)

	// ListContainers returns the account's containers, following pagination
	// until exhausted or limit is reached. Zero containers is a valid empty
	// result. accountID may be empty to mean "the authenticated account".
	ListContainers(ctx context.Context, accountID string, filter KindFilter, limit int) ([]Container, error)

	// ListItems lists a container's items in API order.
	ListItems(ctx context.Context, containerID string, opts ListOptions) ([]Item, error)

	// FetchContent resolves one item to a ContentRecord. A media item with no
	// text track returns a none-available record, never an error.
	FetchContent(ctx context.Context, ref ItemRef, opts ContentOptions) (*ContentRecord, error)

	// ResolveURL reports whether rawURL belongs to this platform and, if so,
	// the item handle parsed from it.
	ResolveURL(rawURL string) (ItemRef, bool)
}
