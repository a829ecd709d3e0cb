package robots

import (
	"bufio"
	"regexp"
	"strings"
	"time"
)

// Rules is a parsed robots.txt.
type Rules struct {
	Groups []Group
}

// Group is one User-agent block.
type Group struct {
	Agents     []string
	Allow      []Pattern
	Disallow   []Pattern
	CrawlDelay time.Duration
}

// Pattern is a path rule with '*' wildcards and an optional '$' end anchor.
type Pattern struct {
	Raw string
	re  *regexp.Regexp
}

func compilePattern(raw string) Pattern {
	p := strings.TrimSuffix(raw, "$")
	var b strings.Builder
	b.WriteString("^")
	for _, part := range strings.Split(p, "*") {
		b.WriteString(regexp.QuoteMeta(part))
		b.WriteString(".*")
	}
	expr := strings.TrimSuffix(b.String(), ".*")
	if strings.HasSuffix(raw, "$") {
		expr += "$"
	}
	return Pattern{Raw: raw, re: regexp.MustCompile(expr)}
}

func (p Pattern) matches(path string) bool { return p.re != nil && p.re.MatchString(path) }

// specificity is the pattern length without wildcards or the end anchor.
func (p Pattern) specificity() int {
	return len(strings.ReplaceAll(strings.TrimSuffix(p.Raw, "$"), "*", ""))
}

// Parse reads robots.txt text. Unknown directives are ignored.
func Parse(text string) Rules {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var groups []Group
	var cur Group
	inRules := false
	flush := func() {
		if len(cur.Agents) > 0 {
			groups = append(groups, cur)
		}
		cur = Group{}
		inRules = false
	}
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		switch key {
		case "user-agent", "useragent":
			if inRules {
				flush()
			}
			cur.Agents = append(cur.Agents, strings.ToLower(val))
		case "allow":
			inRules = true
			if val != "" {
				cur.Allow = append(cur.Allow, compilePattern(val))
			}
		case "disallow":
			inRules = true
			if val != "" {
				cur.Disallow = append(cur.Disallow, compilePattern(val))
			}
		case "crawl-delay", "crawldelay":
			inRules = true
			if d, err := time.ParseDuration(val + "s"); err == nil {
				cur.CrawlDelay = d
			}
		}
	}
	flush()
	return Rules{Groups: groups}
}

// Allowed reports whether path (with optional query) may be fetched by
// userAgent. The longest matching rule wins and Allow wins ties. No match
// means allowed.
func (r Rules) Allowed(userAgent, path string) bool {
	g := r.group(userAgent)
	if g == nil {
		return true
	}
	best, allow := -1, true
	for _, p := range g.Disallow {
		if s := p.specificity(); p.matches(path) && s > best {
			best, allow = s, false
		}
	}
	for _, p := range g.Allow {
		if s := p.specificity(); p.matches(path) && s >= best {
			best, allow = s, true
		}
	}
	return allow
}

// CrawlDelay returns the delay of the group that applies to userAgent.
func (r Rules) CrawlDelay(userAgent string) time.Duration {
	if g := r.group(userAgent); g != nil {
		return g.CrawlDelay
	}
	return 0
}

// group picks the group with the longest agent token contained in
// userAgent; '*' matches anything but loses to a named agent.
func (r Rules) group(userAgent string) *Group {
	ua := strings.ToLower(userAgent)
	best := -1
	var out *Group
	for i := range r.Groups {
		for _, a := range r.Groups[i].Agents {
			score := -1
			switch {
			case a == "*":
				score = 0
			case a != "" && strings.Contains(ua, a):
				score = len(a)
			}
			if score > best {
				best, out = score, &r.Groups[i]
			}
		}
	}
	return out
}
