package domain

import "time"

// Content defaults applied when a lookup omits the page or language.
const (
	DefaultPageKey  = "index"
	DefaultLanguage = "en"
)

// ContentKey uniquely identifies one editable section in one language.
type ContentKey struct {
	PageKey      string
	SectionKey   string
	LanguageCode string
}

// ContentEntry is the last written body for a ContentKey. Writes overwrite
// without versioning.
type ContentEntry struct {
	ContentKey
	Body       string
	Editor     string
	ModifiedAt time.Time
}

// ContentUpdate is one batch of section bodies for a page in a language.
type ContentUpdate struct {
	PageKey      string
	LanguageCode string
	Editor       string
	Sections     map[string]string
}
