package task_test

import (
	"testing"

	"github.com/mcp-pilot/pilot/internal/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_RedisAndGitHub(t *testing.T) {
	r := task.NewResolver(task.ResolverOptions{})
	a := r.Analyze("set up a redis cache and open a github issue")

	// Keyword-table declaration order, not text-occurrence order.
	assert.Equal(t, []string{"redis", "github"}, a.RequiredServers)
	assert.Equal(t, []string{"context7"}, a.RecommendedServers)
	require.NotEmpty(t, a.ActivationOrder)
	assert.Equal(t, "context7", a.ActivationOrder[0])
	assert.Equal(t, []string{"context7", "redis", "github"}, a.ActivationOrder)
	assert.Greater(t, a.Confidence, 0.0)
	assert.LessOrEqual(t, a.Confidence, 1.0)
	assert.Equal(t, 3*550, a.EstimatedTokenCost)
}

func TestResolver_DependencyBeforeDependent(t *testing.T) {
	r := task.NewResolver(task.ResolverOptions{
		Rules:        []task.Rule{{Server: "redis", Keywords: []string{"redis"}}},
		Dependencies: map[string][]string{"redis": {"context7"}},
	})
	a := r.Analyze("wipe the redis keys")

	assert.Equal(t, []string{"redis"}, a.RequiredServers)
	assert.Equal(t, []string{"context7"}, a.RecommendedServers)
	assert.Equal(t, []string{"context7", "redis"}, a.ActivationOrder)
}

func TestResolver_NoMatches(t *testing.T) {
	r := task.NewResolver(task.ResolverOptions{})
	a := r.Analyze("water the office plants")

	assert.Empty(t, a.RequiredServers)
	assert.Empty(t, a.RecommendedServers)
	assert.Empty(t, a.ActivationOrder)
	assert.Zero(t, a.EstimatedTokenCost)
	assert.Zero(t, a.Confidence)
}

func TestResolver_GenericLibraryTermRecommendsDocs(t *testing.T) {
	r := task.NewResolver(task.ResolverOptions{})
	a := r.Analyze("how do I use this framework")

	assert.Empty(t, a.RequiredServers)
	assert.Equal(t, []string{task.DocServer}, a.RecommendedServers)
	assert.Zero(t, a.Confidence)
}

func TestResolver_DocsServerNotRecommendedTwice(t *testing.T) {
	r := task.NewResolver(task.ResolverOptions{})
	a := r.Analyze("pull the library docs and api reference for the redis sdk")

	// context7 is required via its own keywords, so neither the
	// dependency expansion nor the generic-term heuristic re-adds it.
	assert.Contains(t, a.RequiredServers, "context7")
	assert.NotContains(t, a.RecommendedServers, "context7")
}

func TestResolver_DependencyAlreadyRequiredNotRecommended(t *testing.T) {
	r := task.NewResolver(task.ResolverOptions{
		Rules: []task.Rule{
			{Server: "docker", Keywords: []string{"docker"}},
			{Server: "kubernetes", Keywords: []string{"kubernetes"}},
		},
		Dependencies: map[string][]string{"kubernetes": {"docker"}},
	})
	a := r.Analyze("deploy to kubernetes with docker")

	assert.Equal(t, []string{"docker", "kubernetes"}, a.RequiredServers)
	assert.Empty(t, a.RecommendedServers)
	assert.Equal(t, []string{"docker", "kubernetes"}, a.ActivationOrder)
}

func TestResolver_ConfidenceSaturates(t *testing.T) {
	r := task.NewResolver(task.ResolverOptions{
		Rules: []task.Rule{{Server: "redis", Keywords: []string{"redis", "cache"}}},
	})

	// Both keywords hit: 2/2 scaled by 2 caps at 1.0.
	a := r.Analyze("redis cache")
	assert.Equal(t, 1.0, a.Confidence)

	// One of four keywords: 1/4 * 2 = 0.5.
	r = task.NewResolver(task.ResolverOptions{
		Rules: []task.Rule{{Server: "redis", Keywords: []string{"redis", "cache", "key-value", "in-memory"}}},
	})
	a = r.Analyze("just redis please")
	assert.InDelta(t, 0.5, a.Confidence, 1e-9)
}

func TestResolver_CaseInsensitive(t *testing.T) {
	r := task.NewResolver(task.ResolverOptions{})
	a := r.Analyze("Set Up A REDIS Cache")
	assert.Equal(t, []string{"redis"}, a.RequiredServers)
}
