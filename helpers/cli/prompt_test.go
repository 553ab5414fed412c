package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecLines(t *testing.T) {
	t.Parallel()
	lines := []string{}
	err := ExecLines(strings.NewReader("a=1\n\n  attr fw=2  \r\nlast"), func(line string) {
		lines = append(lines, line)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a=1", "attr fw=2", "last"}, lines)
}
