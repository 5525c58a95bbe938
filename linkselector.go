package fresh

// LinkPriority ranks a discovered link. Discovery visits links of one depth
// level in descending priority so that navigation pages fill the page budget
// before links found in footers.
type LinkPriority int

const (
	PriorityIgnore     LinkPriority = 0
	PriorityFallback   LinkPriority = 10
	PriorityFooter     LinkPriority = 20
	PriorityContent    LinkPriority = 50
	PriorityNavigation LinkPriority = 100
	PriorityTOC        LinkPriority = 110
)

// DiscoveredLink is an absolute same-host URL found on a page.
type DiscoveredLink struct {
	URL      string
	Priority LinkPriority
	// Text is the anchor text, whitespace collapsed.
	Text string
	// Source names the page region the link came from, e.g. "toc" or "footer".
	Source string
	// Depth is the number of links followed from the root to reach URL.
	Depth int
}

// Framework is the site generator a docs page was built with.
type Framework string

const (
	FrameworkUnknown    Framework = ""
	FrameworkDocusaurus Framework = "docusaurus"
	FrameworkMkDocs     Framework = "mkdocs"
	FrameworkSphinx     Framework = "sphinx"
	FrameworkVuePress   Framework = "vuepress"
	FrameworkVitePress  Framework = "vitepress"
	FrameworkGitBook    Framework = "gitbook"
	FrameworkNextra     Framework = "nextra"
)

// LinkSelector pulls the crawlable links out of a page.
type LinkSelector interface {
	// ExtractLinks returns the links of html that stay on the host of
	// baseURL, resolved against it. Each URL appears once.
	ExtractLinks(html string, baseURL string) ([]DiscoveredLink, error)

	Name() string
}

// FrameworkDetector recognizes the generator behind a page so extraction can
// use its known content and navigation regions.
type FrameworkDetector interface {
	// Detect returns FrameworkUnknown when no marker matches.
	Detect(html string) Framework
}
