package models

// ChapterRecord is one immutable ledger entry: this chapter of this
// title was handled by this contributor in this role. Chapter is a
// float because split releases like 12.5 exist.
type ChapterRecord struct {
	ID            int64   `json:"id"`
	TitleID       int64   `json:"title_id"`
	Chapter       float64 `json:"chapter"`
	RoleID        int64   `json:"role_id"`
	ContributorID int64   `json:"contributor_id"`
}

// ChapterEntry is a ChapterRecord joined with the display fields the
// listing endpoint returns.
type ChapterEntry struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Chapter     float64 `json:"chapter"`
	Role        string  `json:"role"`
	Contributor string  `json:"worker"`
}
