package generator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPrompts(t *testing.T) {
	p := DefaultPrompts()
	assert.Contains(t, p.Timeline.System, "JSON")
	assert.NotEmpty(t, p.Chat.System)

	out, err := render(p.timelineUser, promptData{Query: "nokia history", Entity: "Nokia"})
	require.NoError(t, err)
	assert.Contains(t, out, `Generate a timeline for: "nokia history"`)
	assert.Contains(t, out, "The subject is Nokia.")
	assert.Contains(t, out, "5-6 historical events")
	assert.Contains(t, out, "2-3 future predictions")
	assert.Contains(t, out, "unique id")
	assert.NotContains(t, out, "Reference material")
}

func TestTimelinePromptWithReference(t *testing.T) {
	p := DefaultPrompts()
	out, err := render(p.timelineUser, promptData{Query: "q", Reference: "# Page\n\nbody"})
	require.NoError(t, err)
	assert.Contains(t, out, "Reference material supplied by the user:")
	assert.Contains(t, out, "# Page")
	assert.NotContains(t, out, "The subject is")
}

func TestParsePromptsRequiresAllSections(t *testing.T) {
	_, err := ParsePrompts([]byte("timeline:\n  system: s\n  user: u\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat")

	_, err = ParsePrompts([]byte("not: [valid"))
	require.Error(t, err)
}

func TestParsePromptsBadTemplate(t *testing.T) {
	_, err := ParsePrompts([]byte("timeline:\n  system: s\n  user: '{{.Query'\nchat:\n  system: s\n  user: u\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeline.user")
}

func TestLoadPrompts(t *testing.T) {
	p, err := LoadPrompts("")
	require.NoError(t, err)
	assert.NotEmpty(t, p.Timeline.User)

	path := filepath.Join(t.TempDir(), "prompts.yaml")
	data := "timeline:\n  system: historian\n  user: 'make {{.Query}}'\nchat:\n  system: friendly\n  user: '{{.Query}}'\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	p, err = LoadPrompts(path)
	require.NoError(t, err)
	assert.Equal(t, "historian", p.Timeline.System)
	out, err := render(p.timelineUser, promptData{Query: "tesla"})
	require.NoError(t, err)
	assert.Equal(t, "make tesla", out)

	_, err = LoadPrompts(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
