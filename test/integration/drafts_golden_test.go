package integration

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdxsite/internal/site"
)

// TestGolden_DraftExclusion builds a site whose content mixes published
// and draft pages.
//
// This test verifies:
// - Draft pages are excluded from the build by default
// - Excluded drafts are counted on the build report
// - Only published pages appear in the output tree
func TestGolden_DraftExclusion(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	root := copySiteFixture(t, "../../test/testdata/sites/draft-filter")
	goldenDir := "../../test/testdata/golden/draft-filter"

	cfg := loadSiteConfig(t, root)
	cfg.Output.Dir = t.TempDir()

	report, err := buildSite(t, root, cfg, site.BuildOptions{})
	require.NoError(t, err, "build failed")
	require.Equal(t, site.OutcomeSuccess, report.Outcome)
	require.Equal(t, 2, report.Pages)
	require.Equal(t, 2, report.DraftsExcluded)

	verifySiteStructure(t, cfg.Output.Dir,
		filepath.Join(goldenDir, "site-structure.golden.json"), *updateGolden)
}

// TestGolden_DraftsIncludedWhenConfigured builds the same fixture with
// draft publishing switched on.
//
// This test verifies:
// - The drafts setting brings draft pages back into the build
// - Draft pages render to their regular output paths
func TestGolden_DraftsIncludedWhenConfigured(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	root := copySiteFixture(t, "../../test/testdata/sites/draft-filter")

	cfg := loadSiteConfig(t, root)
	cfg.Output.Dir = t.TempDir()
	cfg.Content.Drafts = true

	report, err := buildSite(t, root, cfg, site.BuildOptions{})
	require.NoError(t, err, "build failed")
	require.Equal(t, site.OutcomeSuccess, report.Outcome)
	require.Equal(t, 4, report.Pages)
	require.Equal(t, 0, report.DraftsExcluded)

	require.FileExists(t, filepath.Join(cfg.Output.Dir, "draft-post", "index.html"))
	require.FileExists(t, filepath.Join(cfg.Output.Dir, "notes", "wip", "index.html"))
}
