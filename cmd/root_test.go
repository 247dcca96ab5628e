package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"migrate", "import", "completeness", "relationships", "anomalies", "analyze", "summary", "cache"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "disclosure-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	format := rootCmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "table", format.DefValue)

	for _, name := range []string{"output", "metrics-file"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "root should have --%s flag", name)
	}
}

func TestSponsorCommands_RequireSponsorFlag(t *testing.T) {
	for _, c := range []struct {
		name string
		flag string
	}{
		{completenessCmd.Name(), completenessCmd.Flags().Lookup("sponsor").Name},
		{relationshipsCmd.Name(), relationshipsCmd.Flags().Lookup("sponsor").Name},
		{anomaliesCmd.Name(), anomaliesCmd.Flags().Lookup("sponsor").Name},
		{analyzeCmd.Name(), analyzeCmd.Flags().Lookup("sponsor").Name},
	} {
		assert.Equal(t, "sponsor", c.flag, "%s should have --sponsor", c.name)
	}
}

func TestSummaryCommand_Flags(t *testing.T) {
	flag := summaryCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "summary command should have --limit flag")
	assert.Equal(t, "100", flag.DefValue)
}

func TestImportCommand_Flags(t *testing.T) {
	flag := importCmd.Flags().Lookup("file")
	require.NotNil(t, flag, "import command should have --file flag")
}

func TestCacheCommand_HasPrune(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range cacheCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["prune"])
}
