// Package task maps free-text task descriptions to the servers needed to
// carry them out.
package task

import "strings"

// Analysis is the result of resolving one task description. It is
// ephemeral; nothing holds onto it past the request.
type Analysis struct {
	RequiredServers    []string `json:"required_servers"`
	RecommendedServers []string `json:"recommended_servers"`
	ActivationOrder    []string `json:"activation_order"`
	EstimatedTokenCost int      `json:"estimated_token_cost"`
	Confidence         float64  `json:"confidence"`
}

// Rule binds one server to the keyword phrases that select it. Declaration
// order in the table fixes both match priority and the insertion order of
// required servers.
type Rule struct {
	Server   string
	Keywords []string
}

// DefaultRules returns the built-in server keyword table.
func DefaultRules() []Rule {
	return []Rule{
		{"redis", []string{"redis", "cache", "key-value", "in-memory store"}},
		{"postgres", []string{"postgres", "postgresql", "relational database", "sql query"}},
		{"sqlite", []string{"sqlite", "embedded database"}},
		{"github", []string{"github", "pull request", "issue", "repository"}},
		{"filesystem", []string{"filesystem", "read a file", "write a file", "directory"}},
		{"fetch", []string{"fetch", "download", "http request", "web page"}},
		{"brave-search", []string{"web search", "search the web", "search online"}},
		{"slack", []string{"slack", "post a message", "notify the team"}},
		{"docker", []string{"docker", "container", "image build"}},
		{"kubernetes", []string{"kubernetes", "k8s", "cluster", "deployment"}},
		{"context7", []string{"documentation for", "library docs", "api reference"}},
	}
}

// DefaultDependencies returns the static prerequisite edges. The
// documentation server is a prerequisite for the data and development
// servers: having reference docs active before them saves a round trip.
func DefaultDependencies() map[string][]string {
	return map[string][]string{
		"redis":      {"context7"},
		"postgres":   {"context7"},
		"sqlite":     {"context7"},
		"github":     {"context7"},
		"kubernetes": {"docker"},
	}
}

// genericLibraryTerms trigger a documentation-server recommendation even
// without a direct keyword hit.
var genericLibraryTerms = []string{"library", "framework", "api", "sdk", "package"}

const (
	// DocServer is the documentation-lookup server recommended for
	// generic library questions.
	DocServer = "context7"

	// tokenCostPerServer is the rough context overhead of exposing one
	// server's tool list to the agent.
	tokenCostPerServer = 550
)

// Resolver turns task text into an Analysis using the keyword table and
// the static dependency edges. It is stateless and safe for concurrent
// use.
type Resolver struct {
	rules        []Rule
	dependencies map[string][]string
}

// ResolverOptions overrides the built-in tables; nil fields keep defaults.
type ResolverOptions struct {
	Rules        []Rule
	Dependencies map[string][]string
}

// NewResolver builds a resolver.
func NewResolver(opts ResolverOptions) *Resolver {
	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	deps := opts.Dependencies
	if deps == nil {
		deps = DefaultDependencies()
	}
	return &Resolver{rules: rules, dependencies: deps}
}

// Analyze resolves one task description. A text with no keyword hits
// yields empty server sets and zero confidence; the caller falls back to
// catalog browsing.
func (r *Resolver) Analyze(text string) Analysis {
	lowered := strings.ToLower(text)

	var required []string
	requiredSet := make(map[string]bool)
	matchedKeywords := 0
	tableSize := 0

	for _, rule := range r.rules {
		hits := 0
		for _, kw := range rule.Keywords {
			if strings.Contains(lowered, kw) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		matchedKeywords += hits
		tableSize += len(rule.Keywords)
		if !requiredSet[rule.Server] {
			requiredSet[rule.Server] = true
			required = append(required, rule.Server)
		}
	}

	var recommended []string
	recommendedSet := make(map[string]bool)
	recommend := func(server string) {
		if !requiredSet[server] && !recommendedSet[server] {
			recommendedSet[server] = true
			recommended = append(recommended, server)
		}
	}

	for _, server := range required {
		for _, dep := range r.dependencies[server] {
			recommend(dep)
		}
	}

	for _, term := range genericLibraryTerms {
		if strings.Contains(lowered, term) {
			recommend(DocServer)
			break
		}
	}

	// Prerequisites first, in recommendation order, so nothing activates
	// before a dependency it introduced.
	order := make([]string, 0, len(recommended)+len(required))
	order = append(order, recommended...)
	order = append(order, required...)

	total := len(required) + len(recommended)

	confidence := 0.0
	if total > 0 && tableSize > 0 {
		confidence = 2 * float64(matchedKeywords) / float64(tableSize)
		if confidence > 1 {
			confidence = 1
		}
	}

	return Analysis{
		RequiredServers:    required,
		RecommendedServers: recommended,
		ActivationOrder:    order,
		EstimatedTokenCost: tokenCostPerServer * total,
		Confidence:         confidence,
	}
}
