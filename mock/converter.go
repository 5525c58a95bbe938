package mock

import "github.com/nesalia/fresh"

var _ fresh.Converter = (*Converter)(nil)

// Converter is a mock implementation of fresh.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}

var _ fresh.Renderer = (*Renderer)(nil)

// Renderer is a mock implementation of fresh.Renderer.
type Renderer struct {
	RenderFn  func(markdown string) (string, error)
	OutlineFn func(markdown string) []fresh.Section
}

func (r *Renderer) Render(markdown string) (string, error) {
	return r.RenderFn(markdown)
}

func (r *Renderer) Outline(markdown string) []fresh.Section {
	return r.OutlineFn(markdown)
}
