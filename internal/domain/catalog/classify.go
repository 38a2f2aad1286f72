package catalog

import "strings"

// KeywordRule binds one category to the keywords that select it.
type KeywordRule struct {
	Category Category
	Keywords []string
}

// DefaultRules returns the built-in keyword table. Order is priority: the
// first category with any matching keyword wins, regardless of how many
// keywords other categories would match.
func DefaultRules() []KeywordRule {
	return []KeywordRule{
		{CategoryDatabase, []string{"redis", "postgres", "mysql", "sqlite", "mongo", "database", "sql", "cache"}},
		{CategoryDevelopment, []string{"github", "gitlab", "git", "repository", "issue", "pull request", "ci/cd"}},
		{CategoryDocumentation, []string{"context7", "docs", "documentation", "reference", "readme"}},
		{CategorySearch, []string{"search", "crawl", "scrape", "fetch", "browse", "web"}},
		{CategoryCommunication, []string{"slack", "discord", "email", "mail", "message", "notification"}},
		{CategoryCloud, []string{"kubernetes", "docker", "aws", "azure", "gcp", "cloud", "deploy"}},
		{CategoryFilesystem, []string{"filesystem", "file", "directory", "storage"}},
		{CategoryAI, []string{"llm", "embedding", "model", "inference"}},
	}
}

// Classifier maps a server name and description to a category using an
// ordered keyword table. It is a pure function of its inputs: the same
// (name, description) pair always yields the same category.
type Classifier struct {
	rules []KeywordRule
}

// NewClassifier builds a classifier over the given table. A nil table uses
// DefaultRules.
func NewClassifier(rules []KeywordRule) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Classify returns the first category whose keywords match the
// concatenated name and description, case-insensitively, or CategoryOther
// when nothing matches.
func (c *Classifier) Classify(name, description string) Category {
	haystack := strings.ToLower(name + " " + description)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(haystack, kw) {
				return rule.Category
			}
		}
	}
	return CategoryOther
}
