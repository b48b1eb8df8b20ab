package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	oldV, oldSHA, oldT := Version, GitSHA, BuildTime
	t.Cleanup(func() { Version, GitSHA, BuildTime = oldV, oldSHA, oldT })

	Version, GitSHA, BuildTime = "1.2.0", "abc123", "2025-06-01T00:00:00Z"
	assert.Equal(t, "rprof 1.2.0 (git abc123, built 2025-06-01T00:00:00Z)", String())
}
