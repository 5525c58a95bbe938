package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nesalia/fresh"
)

var _ fresh.FrameworkDetector = (*Detector)(nil)

// frameworkMarkers lists structural markers unique to each documentation
// generator. Order matters: VitePress is checked before VuePress since it
// reuses some of its predecessor's class names.
var frameworkMarkers = []struct {
	framework fresh.Framework
	selectors []string
}{
	{fresh.FrameworkDocusaurus, []string{"#__docusaurus_skipToContent_fallback", ".theme-doc-sidebar-container", ".theme-doc-markdown"}},
	{fresh.FrameworkMkDocs, []string{"[data-md-color-scheme]", "[data-md-component]", ".md-nav--primary"}},
	{fresh.FrameworkSphinx, []string{".toctree-wrapper", ".wy-nav-side", ".wy-menu-vertical", ".sphinxsidebar"}},
	{fresh.FrameworkVitePress, []string{"#VPContent", ".VPDoc", ".VPDocAsideOutline"}},
	{fresh.FrameworkVuePress, []string{".theme-default-content", ".sidebar-links", ".vuepress-navbar"}},
	{fresh.FrameworkGitBook, []string{"[data-testid='space.sidebar']", "[data-testid='page.desktopTableOfContents']"}},
	{fresh.FrameworkNextra, []string{".nextra-navbar", ".nextra-sidebar", ".nextra-toc"}},
}

// Detector identifies documentation frameworks from HTML content using
// meta generator tags, framework-specific classes and data attributes.
type Detector struct{}

// NewDetector creates a new Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect analyzes HTML and returns the identified framework.
// Returns FrameworkUnknown if the framework cannot be determined.
func (d *Detector) Detect(html string) fresh.Framework {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fresh.FrameworkUnknown
	}
	return d.detect(doc)
}

func (d *Detector) detect(doc *goquery.Document) fresh.Framework {
	// The generator tag is the most reliable signal when present.
	if fw := detectGenerator(doc); fw != fresh.FrameworkUnknown {
		return fw
	}

	for _, m := range frameworkMarkers {
		for _, sel := range m.selectors {
			if doc.Find(sel).Length() > 0 {
				return m.framework
			}
		}
	}

	if hasGitBookClasses(doc) {
		return fresh.FrameworkGitBook
	}
	return fresh.FrameworkUnknown
}

func detectGenerator(doc *goquery.Document) fresh.Framework {
	generator := strings.ToLower(doc.Find("meta[name='generator']").Last().AttrOr("content", ""))
	if generator == "" {
		return fresh.FrameworkUnknown
	}

	// vitepress must be tested before vuepress.
	for _, fw := range []fresh.Framework{
		fresh.FrameworkSphinx,
		fresh.FrameworkGitBook,
		fresh.FrameworkDocusaurus,
		fresh.FrameworkMkDocs,
		fresh.FrameworkVitePress,
		fresh.FrameworkVuePress,
		fresh.FrameworkNextra,
	} {
		if strings.Contains(generator, string(fw)) {
			return fw
		}
	}
	return fresh.FrameworkUnknown
}

// hasGitBookClasses reports whether the html element carries at least two
// of GitBook's distinctive classes.
func hasGitBookClasses(doc *goquery.Document) bool {
	class := doc.Find("html").AttrOr("class", "")
	if class == "" {
		return false
	}
	count := 0
	for _, c := range []string{"circular-corners", "theme-clean", "tint"} {
		if strings.Contains(class, c) {
			count++
		}
	}
	return count >= 2
}
