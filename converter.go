package fresh

// Converter converts HTML to Markdown.
type Converter interface {
	// Convert transforms HTML content into Markdown.
	// The input should be clean HTML (e.g., from an Extractor).
	// Returns the Markdown representation of the content.
	Convert(html string) (string, error)
}

// Renderer renders Markdown back into an HTML fragment.
type Renderer interface {
	Render(markdown string) (string, error)

	// Outline returns the headings of markdown in document order. Anchors
	// match the ids Render gives the headings.
	Outline(markdown string) []Section
}

// Section is a heading of a converted page.
type Section struct {
	Level  int    `json:"level"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}
