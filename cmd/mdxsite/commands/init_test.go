package commands

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdxsite/internal/config"
	"git.home.luguber.info/inful/mdxsite/internal/site"
	"git.home.luguber.info/inful/mdxsite/internal/testutil"
)

func runInit(t *testing.T, cmd *InitCmd) error {
	t.Helper()
	return cmd.Run(&Global{}, &CLI{Config: "site.yaml"})
}

func TestInitScaffoldsProject(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(t, &InitCmd{Dir: dir}))

	testutil.NewFileAssertions(t, dir).
		AssertFileExists("site.yaml").
		AssertFileContains("site.yaml", "title: My Site").
		AssertDirExists("content").
		AssertFileExists("content/index.md").
		AssertFileExists("content/docs/getting-started.md").
		AssertFileExists("assets/site.css")

	cfg, err := config.Load(filepath.Join(dir, "site.yaml"))
	require.NoError(t, err, "scaffolded configuration must load")
	require.Equal(t, "content", cfg.Content.Dir)
	require.Equal(t, "public", cfg.Output.Dir)
}

func TestInitRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(t, &InitCmd{Dir: dir}))

	err := runInit(t, &InitCmd{Dir: dir})
	require.Error(t, err)
	require.Contains(t, err.Error(), "already exists")

	require.NoError(t, runInit(t, &InitCmd{Dir: dir, Force: true}))
}

// The scaffold is the first thing a new user builds, so it has to make it
// through the full pipeline without warnings about its own content.
func TestInitScaffoldBuilds(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(t, &InitCmd{Dir: dir}))

	cfg, err := config.Load(filepath.Join(dir, "site.yaml"))
	require.NoError(t, err)

	builder := site.NewBuilder(dir, cfg)
	report, err := builder.Build(context.Background(), site.BuildOptions{})
	require.NoError(t, err)
	require.Equal(t, site.OutcomeSuccess, report.Outcome)
	require.Equal(t, 2, report.Pages)
	require.Zero(t, report.Failed)

	testutil.NewFileAssertions(t, filepath.Join(dir, "public")).
		AssertFileContains("index.html", `class="btn btn--primary"`).
		AssertFileContains("index.html", "Get Started").
		AssertFileNotContains("index.html", "<Hero").
		AssertFileContains("docs/getting-started/index.html", "features-grid--cols-3").
		AssertFileContains("docs/getting-started/index.html", `class="btn btn--secondary btn--small"`).
		AssertFileContains("assets/site.css", ".btn--primary")
}
