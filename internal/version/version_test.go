package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}

func TestGetVersionString(t *testing.T) {
	assert.Equal(t, "inboxq "+Version, GetVersionString())
}

func TestGetDetailedVersionString(t *testing.T) {
	out := GetDetailedVersionString()
	assert.True(t, strings.HasPrefix(out, "inboxq "+Version))
	assert.Contains(t, out, "commit:")
	assert.Contains(t, out, "platform:")
}
