package models

// RawRecord is one card scraped from a sub-page. Several records may share
// a description when a character has more than one portrait.
type RawRecord struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	SourceURL   string `json:"source_url" yaml:"source_url"`
}

// Field exposes record attributes by name for field-selector grouping.
func (r RawRecord) Field(name string) (any, bool) {
	switch name {
	case "name":
		return r.Name, true
	case "desc", "description":
		return r.Description, true
	case "url", "source_url", "sourceUrl":
		return r.SourceURL, true
	default:
		return nil, false
	}
}

// Entry is a record after aggregation: the image to fetch and the two names
// it may be stored under.
type Entry struct {
	SourceURL   string `json:"source_url" yaml:"source_url"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Identifier  string `json:"identifier" yaml:"identifier"`
}

// Batch is one crawl unit: a listing page scoped by an opaque version tag.
type Batch struct {
	Version    string `json:"version" yaml:"version"`
	ListingURL string `json:"listing_url" yaml:"listing_url"`
}
