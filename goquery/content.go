package goquery

import (
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nesalia/fresh"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var _ fresh.Extractor = (*Extractor)(nil)

// frameworkContent lists the content containers of known generators, most
// specific first.
var frameworkContent = map[fresh.Framework][]string{
	fresh.FrameworkDocusaurus: {".theme-doc-markdown", "article"},
	fresh.FrameworkMkDocs:     {".md-content__inner", ".md-content"},
	fresh.FrameworkSphinx:     {"[itemprop='articleBody']", "div.body", "[role='main']"},
	fresh.FrameworkVitePress:  {".vp-doc", ".VPDoc"},
	fresh.FrameworkVuePress:   {".theme-default-content"},
	fresh.FrameworkGitBook:    {"[data-testid='page.contentEditor']", "main"},
	fresh.FrameworkNextra:     {"article", "main"},
}

// semanticContent is tried when the framework is unknown or its
// containers are missing.
var semanticContent = []string{"main", "article", "[role='main']"}

// noise is removed from the whole document before any region is chosen.
const noise = "script, style, noscript, template, iframe, object, embed, form, button, input, select, textarea"

// chrome is removed from inside the chosen region.
const chrome = "nav, header, footer, aside, [role='navigation'], [role='banner'], [role='contentinfo']"

// boilerplateToken matches class and id tokens naming page furniture.
var boilerplateToken = regexp.MustCompile(`(?i)^(.*[-_])?(sidebar|breadcrumbs?|toc|table-of-contents|advert(isement)?s?|ads?|banner|cookies?|pagination|pager|navbar|menu|share|social|skip-?link|edit-?this-?page|headerlink|hash-link|header-anchor|feedback)([-_].*)?$`)

var codeLanguage = regexp.MustCompile(`(?:^|\s)(?:language|lang|highlight)-([A-Za-z0-9_+#.-]+)`)

// minCandidateText is the shortest text a scored block may have.
const minCandidateText = 25

// Extractor locates the main content of documentation pages using
// framework containers, semantic elements and a text-density score.
type Extractor struct {
	detector *Detector
}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{detector: NewDetector()}
}

// Extract returns the page title and the cleaned main content HTML.
// ContentHTML is empty when the page has no text-bearing region.
func (e *Extractor) Extract(rawHTML string) (*fresh.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, fresh.Errorf(fresh.EINVALID, "empty HTML input")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fresh.Errorf(fresh.EINVALID, "failed to parse HTML: %v", err)
	}

	result := &fresh.ExtractResult{Title: title(doc)}
	framework := e.detector.detect(doc)

	doc.Find(noise).Remove()

	region := contentRegion(doc, framework)
	if region == nil {
		return result, nil
	}

	// A header holding the page heading is content, not chrome.
	region.Find(chrome).Not("header:has(h1), header:has(h2), header:has(h3)").Remove()
	removeBoilerplate(region)
	normalizeCode(region)

	if strings.TrimSpace(region.Text()) == "" {
		return result, nil
	}

	content, err := goquery.OuterHtml(region)
	if err != nil {
		return nil, err
	}
	result.ContentHTML = content
	return result, nil
}

// Title returns the title of a page the same way Extract does, without
// locating content. It returns "" for unparsable input.
func Title(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	return title(doc)
}

// title prefers Open Graph metadata, then <title>, then the first h1.
func title(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find("meta[property='og:title']").AttrOr("content", "")); t != "" {
		return t
	}
	if t := collapseSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return collapseSpace(doc.Find("h1").First().Text())
}

func contentRegion(doc *goquery.Document, framework fresh.Framework) *goquery.Selection {
	for _, sel := range slices.Concat(frameworkContent[framework], semanticContent) {
		if s := doc.Find(sel).First(); s.Length() > 0 && hasText(s) {
			return s
		}
	}
	if s := bestScored(doc); s != nil {
		return s
	}
	if body := doc.Find("body"); body.Length() > 0 && hasText(body) {
		return body
	}
	return nil
}

func hasText(s *goquery.Selection) bool {
	return strings.TrimSpace(s.Text()) != ""
}

// bestScored returns the block container with the highest score, or nil
// when no block carries enough text.
func bestScored(doc *goquery.Document) *goquery.Selection {
	var (
		best      *html.Node
		bestScore float64
	)
	doc.Find("div, section, td").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if score := scoreNode(n); score > bestScore {
			best, bestScore = n, score
		}
	})
	if best == nil {
		return nil
	}
	return doc.FindNodes(best)
}

// blockStats summarizes the subtree under a candidate node.
type blockStats struct {
	text       int
	linkText   int
	paragraphs int
	headings   int
	code       int
}

// scoreNode rates a candidate block: its text length, discounted by the
// share of link text, plus bonuses for paragraphs, headings and code and a
// penalty for boilerplate class or id names.
func scoreNode(n *html.Node) float64 {
	var st blockStats
	collectStats(n, false, &st)
	if st.text < minCandidateText {
		return 0
	}

	linkDensity := float64(st.linkText) / float64(st.text)
	score := float64(st.text) * (1 - linkDensity)
	score += 25*float64(st.paragraphs) + 40*float64(st.headings) + 30*float64(st.code)
	if isBoilerplate(n) {
		score *= 0.2
	}
	return score
}

func collectStats(n *html.Node, inLink bool, st *blockStats) {
	switch n.Type {
	case html.TextNode:
		l := len(strings.TrimSpace(n.Data))
		st.text += l
		if inLink {
			st.linkText += l
		}
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.A:
			inLink = true
		case atom.P:
			st.paragraphs++
		case atom.H1, atom.H2, atom.H3, atom.H4:
			st.headings++
		case atom.Pre:
			st.code++
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectStats(c, inLink, st)
	}
}

// isBoilerplate reports whether a class or id token of n names page
// furniture. Headings never are. Generators give headings and sections slug
// ids such as "cookies" or "pagination", so ids only count on elements that
// hold no heading and are not sectioning content.
func isBoilerplate(n *html.Node) bool {
	if isHeading(n.DataAtom) {
		return false
	}
	idCounts := !isSectioning(n.DataAtom) && !hasHeading(n)
	for _, a := range n.Attr {
		switch {
		case a.Key == "class":
		case a.Key == "id" && idCounts:
		default:
			continue
		}
		for _, tok := range strings.Fields(a.Val) {
			if boilerplateToken.MatchString(tok) {
				return true
			}
		}
	}
	return false
}

func isHeading(a atom.Atom) bool {
	switch a {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

func isSectioning(a atom.Atom) bool {
	return a == atom.Section || a == atom.Article || a == atom.Main
}

func hasHeading(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (isHeading(c.DataAtom) || hasHeading(c)) {
			return true
		}
	}
	return false
}

// removeBoilerplate drops descendants of region whose class or id marks
// them as page furniture.
func removeBoilerplate(region *goquery.Selection) {
	region.Find("[class], [id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return isBoilerplate(s.Get(0))
	}).Remove()
}

// normalizeCode rewrites code blocks so the language hint sits on a
// <code class="language-x"> element inside each <pre>. Hints are read from
// language-*, lang-* and highlight-* classes on the block or its ancestors.
func normalizeCode(region *goquery.Selection) {
	region.Find("pre").Each(func(_ int, pre *goquery.Selection) {
		lang := languageOf(pre)

		code := pre.ChildrenFiltered("code").First()
		if code.Length() == 0 {
			text := pre.Text()
			pre.Empty()
			n := &html.Node{Type: html.ElementNode, Data: "code", DataAtom: atom.Code}
			n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
			pre.AppendNodes(n)
			code = pre.ChildrenFiltered("code").First()
		}
		if lang != "" {
			code.SetAttr("class", "language-"+lang)
		}
	})
}

func languageOf(pre *goquery.Selection) string {
	var lang string
	match := func(s *goquery.Selection) bool {
		if m := codeLanguage.FindStringSubmatch(s.AttrOr("class", "")); m != nil {
			lang = strings.ToLower(m[1])
			return true
		}
		return false
	}
	if !match(pre.ChildrenFiltered("code").First()) && !match(pre) {
		pre.ParentsFiltered("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			return !match(s)
		})
	}
	switch lang {
	case "default", "none", "text", "plaintext":
		return ""
	}
	return lang
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
