package http

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nesalia/fresh"
)

// DefaultRobotsTTL is how long parsed robots.txt rules are reused per host.
const DefaultRobotsTTL = 5 * time.Minute

// RobotsAgent is the product token matched against User-agent lines.
const RobotsAgent = "fresh"

// Ensure RobotsService implements fresh.RobotsService.
var _ fresh.RobotsService = (*RobotsService)(nil)

// RobotsService fetches robots.txt through a fresh.Fetcher and caches the
// parsed rules per scheme and host.
type RobotsService struct {
	fetcher fresh.Fetcher
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	rules map[string]robotsEntry
}

type robotsEntry struct {
	rules     *fresh.RobotsRules
	fetchedAt time.Time
}

// RobotsOption configures a RobotsService.
type RobotsOption func(*RobotsService)

// WithRobotsTTL sets how long rules are cached.
func WithRobotsTTL(d time.Duration) RobotsOption {
	return func(s *RobotsService) {
		s.ttl = d
	}
}

// WithRobotsClock overrides the clock used for cache expiry.
func WithRobotsClock(now func() time.Time) RobotsOption {
	return func(s *RobotsService) {
		s.now = now
	}
}

// NewRobotsService creates a RobotsService.
func NewRobotsService(fetcher fresh.Fetcher, opts ...RobotsOption) *RobotsService {
	s := &RobotsService{
		fetcher: fetcher,
		ttl:     DefaultRobotsTTL,
		now:     time.Now,
		rules:   make(map[string]robotsEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns the rules for rawURL's host. A robots.txt that is missing or
// cannot be fetched yields empty rules. Only context errors are returned.
func (s *RobotsService) Rules(ctx context.Context, rawURL string) (*fresh.RobotsRules, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fresh.Errorf(fresh.EINVALID, "invalid URL %q: %v", rawURL, err)
	}
	key := strings.ToLower(u.Scheme + "://" + u.Host)

	s.mu.Lock()
	entry, ok := s.rules[key]
	s.mu.Unlock()
	if ok && s.now().Sub(entry.fetchedAt) < s.ttl {
		return entry.rules, nil
	}

	rules, err := s.fetch(ctx, key+"/robots.txt")
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.rules[key] = robotsEntry{rules: rules, fetchedAt: s.now()}
	s.mu.Unlock()
	return rules, nil
}

func (s *RobotsService) fetch(ctx context.Context, robotsURL string) (*fresh.RobotsRules, error) {
	resp, err := s.fetcher.Fetch(ctx, &fresh.FetchRequest{URL: robotsURL})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// Missing or unreachable robots.txt allows everything.
		return &fresh.RobotsRules{}, nil
	}
	return ParseRobots(bytes.NewReader(resp.Body), RobotsAgent)
}

type robotsGroup struct {
	agents   []string
	allow    []string
	disallow []string
}

// ParseRobots parses robots.txt content and returns the rules that apply to
// agent. A group naming agent takes precedence over the "*" group; Sitemap
// lines are collected regardless of group.
func ParseRobots(r io.Reader, agent string) (*fresh.RobotsRules, error) {
	agent = strings.ToLower(agent)
	rules := &fresh.RobotsRules{}

	var groups []*robotsGroup
	var current *robotsGroup
	inAgents := false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			if !inAgents {
				current = &robotsGroup{}
				groups = append(groups, current)
				inAgents = true
			}
			current.agents = append(current.agents, strings.ToLower(value))
		case "allow", "disallow":
			inAgents = false
			if current == nil || value == "" {
				continue
			}
			if key == "allow" {
				current.allow = append(current.allow, value)
			} else {
				current.disallow = append(current.disallow, value)
			}
		case "sitemap":
			if value != "" {
				rules.Sitemaps = append(rules.Sitemaps, value)
			}
		default:
			inAgents = false
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fresh.Errorf(fresh.EINVALID, "reading robots.txt: %v", err)
	}

	var specific, wildcard []*robotsGroup
	for _, g := range groups {
		for _, a := range g.agents {
			if a == "*" {
				wildcard = append(wildcard, g)
				break
			}
			if a != "" && strings.Contains(agent, a) {
				specific = append(specific, g)
				break
			}
		}
	}
	selected := wildcard
	if len(specific) > 0 {
		selected = specific
	}
	for _, g := range selected {
		rules.Allow = append(rules.Allow, g.allow...)
		rules.Disallow = append(rules.Disallow, g.disallow...)
	}

	return rules, nil
}
