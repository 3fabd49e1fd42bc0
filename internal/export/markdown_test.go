package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mur-run/flowspec/internal/flowspec"
)

func sampleFlow() *flowspec.Flow {
	required := true
	timeout := int64(60000)
	params := flowspec.NewMap[flowspec.Parameter]()
	params.Set("repo", flowspec.Parameter{Type: "string", Required: &required})

	return &flowspec.Flow{
		Schema:     flowspec.SchemaVersion,
		ID:         "ops.release.v1",
		Title:      "Release",
		Owner:      "ops@example.com",
		Policy:     &flowspec.Policy{Enforcement: flowspec.EnforcementGuard},
		Context:    &flowspec.Context{Brief: "Ship a tagged build."},
		Parameters: params,
		Steps: flowspec.Steps{
			{
				ID:           "review",
				Title:        "Review",
				Role:         flowspec.RoleHuman,
				Instructions: flowspec.Strings{"Read the diff"},
				Acceptance:   &flowspec.Acceptance{Checks: flowspec.Checks{{Description: "Approved"}}},
				Next:         []flowspec.NextStep{{To: "publish", When: "approved"}},
				TimeoutMs:    &timeout,
			},
			{
				ID:           "publish",
				Role:         flowspec.RoleAutomation,
				Instructions: flowspec.Strings{"Push the tag"},
				Acceptance:   &flowspec.Acceptance{Checks: flowspec.Checks{{Kind: "file_exists"}}},
			},
		},
	}
}

func TestMarkdown(t *testing.T) {
	out := Markdown(sampleFlow())

	wants := []string{
		"# Release\n",
		"**ID:** `ops.release.v1`",
		"**Enforcement:** guard",
		"Ship a tagged build.",
		"| `repo` | string | Yes | - |",
		"### 1. Review",
		"### 2. publish",
		"- Timeout: 60000 ms",
		"1. Read the diff",
		"- [ ] Approved",
		"- [ ] file_exists",
		"- when `approved` → `publish`",
		"review -->|approved| publish",
	}
	for _, want := range wants {
		assert.Contains(t, out, want)
	}
}

func TestMarkdown_MinimalFlow(t *testing.T) {
	flow := &flowspec.Flow{ID: "a.b.v1", Title: "Empty", Owner: "a@b.co", Steps: flowspec.Steps{}}
	out := Markdown(flow)

	assert.NotContains(t, out, "## Steps")
	assert.NotContains(t, out, "mermaid")
}

func TestWriteMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs", "release.md")
	require.NoError(t, WriteMarkdown(sampleFlow(), path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Release"), string(data))
}
