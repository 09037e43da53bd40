package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techpathai/learnyst-automator/internal/config"
)

func TestCoursesListsConfiguredCodes(t *testing.T) {
	appConfig = config.NewDefault()

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, coursesCmd.RunE(cmd, nil))

	assert.Contains(t, out.String(), "fs1")
	assert.Contains(t, out.String(), "Full Stack 1")
	assert.Contains(t, out.String(), "meta")
}
