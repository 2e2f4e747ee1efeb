// Package query turns natural language repository searches such as
// "python machine learning projects with more than 1000 stars" into
// GitHub search qualifiers.
package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParsedQuery is the structured form of a natural language query
type ParsedQuery struct {
	BaseQuery       string
	MinStars        *int
	MinForks        *int
	MinContributors *int
	Language        string
	CreatedAfter    string // YYYY-MM-DD
	UpdatedAfter    string // YYYY-MM-DD
	Topics          []string
	HasIssues       *bool
	HasWiki         *bool
	IsArchived      *bool
	IsFork          *bool
	SearchIn        []string
}

// DefaultSearchScope is used unless the query narrows it
var DefaultSearchScope = []string{"name", "description", "readme", "topics"}

type span [2]int

func countPatterns(noun string) []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`more than (\d+)\s*` + noun + `s?\b`),
		regexp.MustCompile(`(\d+)\s*\+?\s*` + noun + `s?\b`),
		regexp.MustCompile(`at least (\d+)\s*` + noun + `s?\b`),
		regexp.MustCompile(`minimum (?:of )?(\d+)\s*` + noun + `s?\b`),
		regexp.MustCompile(`(\d+)\s*` + noun + `s? or more\b`),
	}
}

var (
	starPatterns        = countPatterns("star")
	forkPatterns        = countPatterns("fork")
	contributorPatterns = countPatterns("contributor")

	languagePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bin (\w+)`),
		regexp.MustCompile(`\b(\w+) projects?\b`),
		regexp.MustCompile(`\b(\w+) repositories\b`),
		regexp.MustCompile(`\b(\w+) repos?\b`),
		regexp.MustCompile(`\b(\w+) code\b`),
		regexp.MustCompile(`\b(\w+) language\b`),
	}

	createdPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bcreated (?:in|after|since) ([a-z]+ \d{4})\b`),
		regexp.MustCompile(`\bcreated (?:in|after|since) (\d{4})\b`),
		regexp.MustCompile(`\bfrom (\d{4})\b`),
		regexp.MustCompile(`\bsince (\d{4})\b`),
	}

	updatedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bupdated (?:in|after|since) ([a-z]+ \d{4})\b`),
		regexp.MustCompile(`\bupdated (?:in|after|since) (\d{4})\b`),
	}

	topicPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bwith (\w+(?:-\w+)*)`),
		regexp.MustCompile(`\busing (\w+(?:-\w+)*)`),
		regexp.MustCompile(`\b(\w+(?:-\w+)*) integrations?\b`),
		regexp.MustCompile(`\b(\w+(?:-\w+)*) support\b`),
		regexp.MustCompile(`\b(\w+(?:-\w+)*) plugins?\b`),
	}

	scopePattern = regexp.MustCompile(`\b(name|title|description|readme|topics) only\b`)

	yearPattern  = regexp.MustCompile(`^\d{4}$`)
	spacePattern = regexp.MustCompile(`\s+`)
)

type booleanRule struct {
	pattern *regexp.Regexp
	field   func(*ParsedQuery) **bool
	value   bool
}

// Later rules override earlier ones, so "not archived" wins over "archived".
var booleanRules = []booleanRule{
	{regexp.MustCompile(`\bwith issues?\b`), func(p *ParsedQuery) **bool { return &p.HasIssues }, true},
	{regexp.MustCompile(`\bwithout issues?\b`), func(p *ParsedQuery) **bool { return &p.HasIssues }, false},
	{regexp.MustCompile(`\bwith (?:a )?wiki\b`), func(p *ParsedQuery) **bool { return &p.HasWiki }, true},
	{regexp.MustCompile(`\bwithout (?:a )?wiki\b`), func(p *ParsedQuery) **bool { return &p.HasWiki }, false},
	{regexp.MustCompile(`\barchived\b`), func(p *ParsedQuery) **bool { return &p.IsArchived }, true},
	{regexp.MustCompile(`\bnot archived\b`), func(p *ParsedQuery) **bool { return &p.IsArchived }, false},
	{regexp.MustCompile(`\bforked\b`), func(p *ParsedQuery) **bool { return &p.IsFork }, true},
	{regexp.MustCompile(`\bnot forked\b`), func(p *ParsedQuery) **bool { return &p.IsFork }, false},
	{regexp.MustCompile(`\boriginal\b`), func(p *ParsedQuery) **bool { return &p.IsFork }, false},
}

var languageAliases = map[string]string{
	"js":         "javascript",
	"javascript": "javascript",
	"node":       "javascript",
	"ts":         "typescript",
	"typescript": "typescript",
	"py":         "python",
	"python":     "python",
	"rb":         "ruby",
	"ruby":       "ruby",
	"php":        "php",
	"java":       "java",
	"cpp":        "c++",
	"csharp":     "c#",
	"go":         "go",
	"golang":     "go",
	"rust":       "rust",
	"swift":      "swift",
	"kotlin":     "kotlin",
	"scala":      "scala",
	"dart":       "dart",
	"elixir":     "elixir",
	"haskell":    "haskell",
	"lua":        "lua",
	"julia":      "julia",
	"zig":        "zig",
	"perl":       "perl",
	"clojure":    "clojure",
	"erlang":     "erlang",
	"ocaml":      "ocaml",
	"shell":      "shell",
	"bash":       "shell",
}

// Words that read as a language only in a qualifying phrase like "in go".
var ambiguousLanguages = map[string]bool{"go": true}

var monthNumbers = map[string]string{
	"jan": "01", "feb": "02", "mar": "03", "apr": "04",
	"may": "05", "jun": "06", "jul": "07", "aug": "08",
	"sep": "09", "oct": "10", "nov": "11", "dec": "12",
}

var topicStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "more": true, "less": true, "some": true,
	"good": true, "great": true, "best": true, "many": true, "lots": true,
	"and": true, "or": true, "it": true, "its": true, "their": true, "at": true,
	"issues": true, "issue": true, "wiki": true, "than": true, "least": true,
}

var fillerWords = map[string]bool{
	"with": true, "using": true, "in": true, "and": true, "or": true, "that": true,
	"have": true, "has": true, "having": true, "from": true, "for": true, "by": true,
	"of": true, "the": true, "a": true, "an": true, "show": true, "me": true,
	"find": true, "which": true, "are": true, "is": true, "about": true, "over": true,
	"than": true, "more": true, "least": true, "at": true, "minimum": true, "where": true,
	"repo": true, "repos": true, "repository": true, "repositories": true,
	"project": true, "projects": true, "code": true, "not": true,
}

// Parse extracts structured GitHub search filters from a natural language query.
func Parse(raw string) ParsedQuery {
	q := spacePattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(raw)), " ")
	parsed := ParsedQuery{SearchIn: DefaultSearchScope}

	// Claimed phrases are blanked out so later patterns cannot reuse them,
	// e.g. "with issues" must not also read as the topic "issues".
	masked := q

	var flagSpans []span
	for _, rule := range booleanRules {
		if locs := rule.pattern.FindAllStringIndex(q, -1); locs != nil {
			v := rule.value
			*rule.field(&parsed) = &v
			flagSpans = append(flagSpans, toSpans(locs)...)
		}
	}
	masked = maskSpans(masked, flagSpans)

	if m := scopePattern.FindStringSubmatchIndex(masked); m != nil {
		scope := masked[m[2]:m[3]]
		if scope == "title" {
			scope = "name"
		}
		parsed.SearchIn = []string{scope}
		masked = maskSpans(masked, []span{{m[0], m[1]}})
	}

	var spans []span
	parsed.MinStars, spans = extractCount(masked, starPatterns)
	masked = maskSpans(masked, spans)
	parsed.MinForks, spans = extractCount(masked, forkPatterns)
	masked = maskSpans(masked, spans)
	parsed.MinContributors, spans = extractCount(masked, contributorPatterns)
	masked = maskSpans(masked, spans)

	// updated before created: "updated since 2024" must not match "since 2024"
	parsed.UpdatedAfter, spans = extractDate(masked, updatedPatterns)
	masked = maskSpans(masked, spans)
	parsed.CreatedAfter, spans = extractDate(masked, createdPatterns)
	masked = maskSpans(masked, spans)

	rest := collapse(masked)

	language, languageSpan := extractLanguage(rest)
	parsed.Language = language

	topics, topicSpans := extractTopics(rest)
	parsed.Topics = topics

	if languageSpan != nil {
		topicSpans = append(topicSpans, *languageSpan)
	}
	parsed.BaseQuery = cleanBaseQuery(maskSpans(rest, topicSpans))

	return parsed
}

func extractCount(q string, patterns []*regexp.Regexp) (*int, []span) {
	var value *int
	var spans []span
	for _, pattern := range patterns {
		for _, m := range pattern.FindAllStringSubmatchIndex(q, -1) {
			if value == nil {
				if n, err := strconv.Atoi(q[m[2]:m[3]]); err == nil {
					value = &n
				}
			}
			spans = append(spans, span{m[0], m[1]})
		}
	}
	return value, spans
}

func extractDate(q string, patterns []*regexp.Regexp) (string, []span) {
	var date string
	var spans []span
	for _, pattern := range patterns {
		for _, m := range pattern.FindAllStringSubmatchIndex(q, -1) {
			if date == "" {
				date = toGitHubDate(q[m[2]:m[3]])
			}
			spans = append(spans, span{m[0], m[1]})
		}
	}
	return date, spans
}

// toGitHubDate converts "2023" or "march 2023" to a YYYY-MM-DD date.
func toGitHubDate(value string) string {
	if yearPattern.MatchString(value) {
		return value + "-01-01"
	}
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return ""
	}
	month, year := parts[0], parts[1]
	num := "01"
	if len(month) >= 3 {
		if n, ok := monthNumbers[month[:3]]; ok {
			num = n
		}
	}
	return fmt.Sprintf("%s-%s-01", year, num)
}

func extractLanguage(q string) (string, *span) {
	for _, pattern := range languagePatterns {
		for _, m := range pattern.FindAllStringSubmatchIndex(q, -1) {
			if lang, ok := languageAliases[q[m[2]:m[3]]]; ok {
				return lang, &span{m[0], m[1]}
			}
		}
	}

	// a bare language name is kept in the base query
	for _, word := range strings.Fields(q) {
		if ambiguousLanguages[word] {
			continue
		}
		if lang, ok := languageAliases[word]; ok {
			return lang, nil
		}
	}
	return "", nil
}

func extractTopics(q string) ([]string, []span) {
	var topics []string
	var spans []span
	seen := make(map[string]bool)

	for _, pattern := range topicPatterns {
		for _, m := range pattern.FindAllStringSubmatchIndex(q, -1) {
			topic := q[m[2]:m[3]]
			if topicStopwords[topic] || fillerWords[topic] {
				continue
			}
			spans = append(spans, span{m[0], m[1]})
			// "using typescript" names the language, not a topic
			if _, isLanguage := languageAliases[topic]; isLanguage {
				continue
			}
			if !seen[topic] {
				seen[topic] = true
				topics = append(topics, topic)
			}
		}
	}
	return topics, spans
}

func toSpans(locs [][]int) []span {
	spans := make([]span, 0, len(locs))
	for _, loc := range locs {
		spans = append(spans, span{loc[0], loc[1]})
	}
	return spans
}

// maskSpans replaces every byte inside the spans with a space, keeping
// offsets of the rest of s stable. Spans may overlap.
func maskSpans(s string, spans []span) string {
	if len(spans) == 0 {
		return s
	}
	b := []byte(s)
	for _, sp := range spans {
		for i := sp[0]; i < sp[1]; i++ {
			b[i] = ' '
		}
	}
	return string(b)
}

func collapse(s string) string {
	return spacePattern.ReplaceAllString(strings.TrimSpace(s), " ")
}

func cleanBaseQuery(q string) string {
	words := strings.Fields(q)
	for len(words) > 0 && fillerWords[words[0]] {
		words = words[1:]
	}
	for len(words) > 0 && fillerWords[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// BuildGitHubQuery renders parsed filters as a GitHub search query string.
func BuildGitHubQuery(p ParsedQuery) string {
	var parts []string

	if p.BaseQuery != "" {
		parts = append(parts, p.BaseQuery)
	}
	if p.Language != "" {
		parts = append(parts, "language:"+p.Language)
	}
	if p.MinStars != nil {
		parts = append(parts, fmt.Sprintf("stars:>=%d", *p.MinStars))
	}
	if p.MinForks != nil {
		parts = append(parts, fmt.Sprintf("forks:>=%d", *p.MinForks))
	}
	if p.MinContributors != nil {
		parts = append(parts, fmt.Sprintf("contributors:>=%d", *p.MinContributors))
	}
	if p.CreatedAfter != "" {
		parts = append(parts, "created:>="+p.CreatedAfter)
	}
	if p.UpdatedAfter != "" {
		parts = append(parts, "pushed:>="+p.UpdatedAfter)
	}
	if p.HasIssues != nil {
		parts = append(parts, hasQualifier("issues", *p.HasIssues))
	}
	if p.HasWiki != nil {
		parts = append(parts, hasQualifier("wiki", *p.HasWiki))
	}
	if p.IsArchived != nil {
		parts = append(parts, fmt.Sprintf("archived:%t", *p.IsArchived))
	}
	if p.IsFork != nil {
		parts = append(parts, fmt.Sprintf("fork:%t", *p.IsFork))
	}
	for _, topic := range p.Topics {
		parts = append(parts, "topic:"+topic)
	}
	if len(p.SearchIn) == 1 {
		parts = append(parts, "in:"+p.SearchIn[0])
	}

	return strings.Join(parts, " ")
}

func hasQualifier(name string, has bool) string {
	if has {
		return "has:" + name
	}
	return "no:" + name
}

// Filters returns the extracted filters keyed by name, omitting unset ones.
func (p ParsedQuery) Filters() map[string]interface{} {
	filters := make(map[string]interface{})
	if p.MinStars != nil {
		filters["min_stars"] = *p.MinStars
	}
	if p.MinForks != nil {
		filters["min_forks"] = *p.MinForks
	}
	if p.MinContributors != nil {
		filters["min_contributors"] = *p.MinContributors
	}
	if p.Language != "" {
		filters["language"] = p.Language
	}
	if p.CreatedAfter != "" {
		filters["created_after"] = p.CreatedAfter
	}
	if p.UpdatedAfter != "" {
		filters["updated_after"] = p.UpdatedAfter
	}
	if len(p.Topics) > 0 {
		filters["topics"] = p.Topics
	}
	if p.HasIssues != nil {
		filters["has_issues"] = *p.HasIssues
	}
	if p.HasWiki != nil {
		filters["has_wiki"] = *p.HasWiki
	}
	if p.IsArchived != nil {
		filters["is_archived"] = *p.IsArchived
	}
	if p.IsFork != nil {
		filters["is_fork"] = *p.IsFork
	}
	return filters
}

// Explain describes how a query was interpreted.
func Explain(p ParsedQuery) map[string]interface{} {
	return map[string]interface{}{
		"original_query": p.BaseQuery,
		"parsed_filters": p.Filters(),
		"github_query":   BuildGitHubQuery(p),
		"search_scope":   p.SearchIn,
	}
}
