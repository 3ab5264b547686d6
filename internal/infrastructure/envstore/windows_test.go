//go:build windows

package envstore

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCmdEscape_NeutralizesScriptMetacharacters tests that no value can
// close the set quoting or inject a second line into the handoff script.
func TestCmdEscape_NeutralizesScriptMetacharacters(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "PlainValue_Unchanged",
			input:    "abc-123",
			expected: "abc-123",
		},
		{
			name:     "EmbeddedQuote_Doubled",
			input:    `say "hi"`,
			expected: `say ""hi""`,
		},
		{
			name:     "PercentExpansion_Disabled",
			input:    "100%PATH%",
			expected: "100%%PATH%%",
		},
		{
			name:     "LineBreaks_Stripped",
			input:    "one\r\ndel C:\\",
			expected: "onedel C:\\",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cmdEscape(tt.input))
		})
	}
}

// TestWindowsStore_Propagate_ScriptHoldsOneLinePerVariable tests the
// handoff script shape with a hostile value.
func TestWindowsStore_Propagate_ScriptHoldsOneLinePerVariable(t *testing.T) {
	store := &WindowsStore{logger: log.New(io.Discard)}

	result, err := store.Propagate(map[string]string{
		"GOOGLE_API_KEY": "k\"&\r\ncalc",
		"PROJECT_ID":     "proj-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.ScriptPath)
	defer os.Remove(result.ScriptPath)
	assert.Equal(t, filepath.Join(os.TempDir(), handoffScript), result.ScriptPath)

	data, err := os.ReadFile(result.ScriptPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\r\n"), "\r\n")
	require.Len(t, lines, 3, "header plus exactly one line per variable")
	assert.Equal(t, `set "GOOGLE_API_KEY=k""&calc"`, lines[1])
	assert.Equal(t, `set "PROJECT_ID=proj-1"`, lines[2])
}
