package query

import (
	"fmt"
	"strings"
)

const maxSuggestions = 5

// Suggestions proposes related searches for a query. Topic specific
// suggestions come first, followed by generic rewrites of the query.
func Suggestions(q string) []string {
	lower := strings.ToLower(q)
	var suggestions []string

	if strings.Contains(lower, "mcp") || strings.Contains(lower, "model context protocol") {
		suggestions = append(suggestions,
			"mcp server implementation",
			"model context protocol tools",
			"mcp client libraries",
			"mcp integration examples",
		)
	}

	if strings.Contains(lower, "notion") {
		suggestions = append(suggestions,
			"notion api integration",
			"notion database sync",
			"notion automation tools",
			"notion webhook handlers",
		)
	}

	if strings.Contains(lower, "100") && strings.Contains(lower, "stars") {
		suggestions = append(suggestions,
			"highly starred repositories",
			"popular open source projects",
			"trending repositories",
			"well-maintained projects",
		)
	}

	suggestions = append(suggestions,
		fmt.Sprintf("repositories about %s", q),
		fmt.Sprintf("tools for %s", q),
		fmt.Sprintf("libraries related to %s", q),
		fmt.Sprintf("frameworks for %s", q),
	)

	seen := make(map[string]bool)
	unique := make([]string, 0, maxSuggestions)
	for _, s := range suggestions {
		if seen[s] {
			continue
		}
		seen[s] = true
		unique = append(unique, s)
		if len(unique) == maxSuggestions {
			break
		}
	}
	return unique
}

// Example is a sample query shown to new users
type Example struct {
	Query            string   `json:"query"`
	Description      string   `json:"description"`
	ExpectedInsights []string `json:"expected_insights"`
}

// Examples returns the built-in example queries.
func Examples() []Example {
	return []Example{
		{
			Query:            "Python machine learning",
			Description:      "Analyze trending topics in Python ML ecosystem",
			ExpectedInsights: []string{"Popular ML libraries", "GitHub repositories", "Community discussions"},
		},
		{
			Query:            "JavaScript frameworks",
			Description:      "Explore trending JavaScript frameworks and tools",
			ExpectedInsights: []string{"Framework popularity", "GitHub stars", "Developer sentiment"},
		},
		{
			Query:            "Data science tools",
			Description:      "Discover trending data science tools and platforms",
			ExpectedInsights: []string{"Tool adoption", "Community engagement", "GitHub activity"},
		},
		{
			Query:            "Web development trends",
			Description:      "Analyze current web development trends",
			ExpectedInsights: []string{"Technology adoption", "Community discussions", "Repository activity"},
		},
		{
			Query:            "Open source projects",
			Description:      "Explore trending open source projects",
			ExpectedInsights: []string{"Project popularity", "Contributor activity", "Community engagement"},
		},
	}
}
