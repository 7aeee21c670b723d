package models

// Title is one manga series mirrored from the remote catalog.
// CatalogID is the catalog's own numeric id and is the upsert key for
// synchronization. Any of the three name fields may be empty.
type Title struct {
	ID            int64  `json:"id"`
	CatalogID     int64  `json:"catalog_id"`
	NativeName    string `json:"native_name"`
	LocalizedName string `json:"localized_name,omitempty"`
	OriginalName  string `json:"original_name,omitempty"`
}

// DisplayName picks the name shown to users: the native-script name
// when present, the original-language name otherwise.
func (t Title) DisplayName() string {
	if t.NativeName != "" {
		return t.NativeName
	}
	return t.OriginalName
}
