package fresh

// ExtractResult is the main content of a page with its chrome stripped.
type ExtractResult struct {
	Title string

	// ContentHTML keeps the structure of the content region (headings, code,
	// tables, links) but drops navigation, footers and scripts. An empty
	// value means no content region was found and the page is degraded.
	ContentHTML string
}

// Extractor locates the main content of a fetched docs page.
type Extractor interface {
	Extract(html string) (*ExtractResult, error)
}
