package integration

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdxsite/internal/config"
	"git.home.luguber.info/inful/mdxsite/internal/site"
)

// SiteStructure captures the generated output tree for golden testing.
type SiteStructure struct {
	Pages     map[string]PageFacts `json:"pages"`
	Structure map[string]any       `json:"structure"`
}

// PageFacts holds the stable facts extracted from one rendered HTML page:
// the document title and how many of each component's root elements made it
// into the markup. Timestamps and other run-dependent output stay out so
// golden files are reproducible.
type PageFacts struct {
	Title        string `json:"title"`
	Heroes       int    `json:"heroes,omitempty"`
	Buttons      int    `json:"buttons,omitempty"`
	Grids        int    `json:"grids,omitempty"`
	FeatureCards int    `json:"feature_cards,omitempty"`
	Cards        int    `json:"cards,omitempty"`
	Sections     int    `json:"sections,omitempty"`
}

// gitCommitWhen is the commit timestamp used by setupGitSite. A fixed date
// in the past keeps git-derived page dates distinguishable from file
// modification times, which are always "now" for a freshly copied fixture.
var gitCommitWhen = time.Date(2023, time.November, 5, 12, 0, 0, 0, time.UTC)

// quietLogger discards build logging so test output stays readable.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// copySiteFixture copies a fixture site into a temporary directory so tests
// can build it, and mutate it, without touching testdata.
func copySiteFixture(t *testing.T, fixturePath string) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, copyDir(fixturePath, root), "failed to copy site fixture")
	return root
}

// setupGitSite copies a fixture site and turns it into a git repository with
// a single commit, so builds exercise the git-derived page date fallback.
func setupGitSite(t *testing.T, fixturePath string) string {
	t.Helper()

	root := copySiteFixture(t, fixturePath)

	repo, err := git.PlainInit(root, false)
	require.NoError(t, err, "failed to initialize git repo")

	w, err := repo.Worktree()
	require.NoError(t, err, "failed to get worktree")

	err = w.AddGlob(".")
	require.NoError(t, err, "failed to add files to git")

	_, err = w.Commit("site import", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  gitCommitWhen,
		},
	})
	require.NoError(t, err, "failed to create initial commit")

	return root
}

// copyDir recursively copies a directory tree, skipping any .git entries.
func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		if strings.Contains(relPath, ".git") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		targetPath := filepath.Join(dst, relPath)

		if info.IsDir() {
			return os.MkdirAll(targetPath, info.Mode())
		}

		return copyFile(path, targetPath)
	})
}

// copyFile copies a single file.
func copyFile(src, dst string) error {
	// #nosec G304 -- test utility with paths from test setup, not user input
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = srcFile.Close() }()

	// #nosec G304 -- test utility with paths from test setup, not user input
	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = dstFile.Close() }()

	_, err = io.Copy(dstFile, srcFile)
	return err
}

// loadSiteConfig loads the site.yaml of a fixture rooted at root.
func loadSiteConfig(t *testing.T, root string) *config.Config {
	t.Helper()

	cfg, err := config.Load(filepath.Join(root, "site.yaml"))
	require.NoError(t, err, "failed to load site config")

	return cfg
}

// buildSite runs one build of the site rooted at root.
func buildSite(t *testing.T, root string, cfg *config.Config, opts site.BuildOptions) (*site.BuildReport, error) {
	t.Helper()

	b := site.NewBuilder(root, cfg).SetLogger(quietLogger())
	return b.Build(t.Context(), opts)
}

// runGoldenSiteTest is a helper that executes a golden test with standard
// setup: copy the fixture, load its configuration, build into a temporary
// output directory, and verify the generated tree against its golden file.
func runGoldenSiteTest(t *testing.T, fixturePath, goldenDirPath string, updateGolden bool) *site.BuildReport {
	t.Helper()

	root := copySiteFixture(t, fixturePath)
	cfg := loadSiteConfig(t, root)

	outputDir := t.TempDir()
	cfg.Output.Dir = outputDir

	report, err := buildSite(t, root, cfg, site.BuildOptions{})
	require.NoError(t, err, "site build failed")
	require.Equal(t, site.OutcomeSuccess, report.Outcome, "build should succeed")

	verifySiteStructure(t, outputDir, goldenDirPath+"/site-structure.golden.json", updateGolden)
	return report
}

// verifySiteStructure compares the generated output tree against a golden file.
func verifySiteStructure(t *testing.T, outputDir, goldenPath string, updateGolden bool) {
	t.Helper()

	actual := captureSiteStructure(t, outputDir)

	if updateGolden {
		data, err := json.MarshalIndent(actual, "", "  ")
		require.NoError(t, err, "failed to marshal site structure")

		err = os.MkdirAll(filepath.Dir(goldenPath), 0o750)
		require.NoError(t, err, "failed to create golden directory")

		err = os.WriteFile(goldenPath, data, 0o600)
		require.NoError(t, err, "failed to write golden file")

		t.Logf("Updated golden file: %s", goldenPath)
		return
	}

	// #nosec G304 -- test utility reading golden file from testdata
	goldenData, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "failed to read golden file: %s", goldenPath)

	var expected SiteStructure
	err = json.Unmarshal(goldenData, &expected)
	require.NoError(t, err, "failed to parse golden site structure")

	actualJSON, err := json.MarshalIndent(actual, "", "  ")
	require.NoError(t, err, "failed to marshal actual site structure")

	expectedJSON, err := json.MarshalIndent(expected, "", "  ")
	require.NoError(t, err, "failed to marshal expected site structure")

	require.JSONEq(t, string(expectedJSON), string(actualJSON),
		"site structure mismatch: %s\nRun with -update-golden to update", goldenPath)
}

// captureSiteStructure walks the output tree and records every file plus the
// extracted facts of each rendered HTML page.
func captureSiteStructure(t *testing.T, outputDir string) *SiteStructure {
	t.Helper()

	s := &SiteStructure{
		Pages:     make(map[string]PageFacts),
		Structure: make(map[string]any),
	}

	err := filepath.Walk(outputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".html") {
			return nil
		}

		relPath, err := filepath.Rel(outputDir, path)
		if err != nil {
			return err
		}
		s.Pages[filepath.ToSlash(relPath)] = extractPageFacts(t, path)
		return nil
	})
	require.NoError(t, err, "failed to walk output directory")

	s.Structure = buildStructureTree(outputDir)
	return s
}

// extractPageFacts parses one rendered page and counts component markup.
func extractPageFacts(t *testing.T, path string) PageFacts {
	t.Helper()

	// #nosec G304 -- test utility reading from test output directory
	f, err := os.Open(path)
	require.NoError(t, err, "failed to open rendered page")
	defer func() { _ = f.Close() }()

	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err, "failed to parse rendered page")

	return PageFacts{
		Title:        doc.Find("title").First().Text(),
		Heroes:       doc.Find("section.hero").Length(),
		Buttons:      doc.Find("a.btn").Length(),
		Grids:        doc.Find("section.features-grid").Length(),
		FeatureCards: doc.Find("article.feature-card").Length(),
		Cards:        doc.Find("article.card").Length(),
		Sections:     doc.Find("section.section").Length(),
	}
}

// buildStructureTree creates a nested map representing the directory structure.
func buildStructureTree(rootDir string) map[string]any {
	tree := make(map[string]any)

	_ = filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || path == rootDir {
			return err
		}

		relPath, _ := filepath.Rel(rootDir, path)
		parts := strings.Split(relPath, string(filepath.Separator))

		addPathToTree(tree, parts, info.IsDir())
		return nil
	})

	return tree
}

// addPathToTree adds a file or directory path to the structure tree.
func addPathToTree(tree map[string]any, parts []string, isDir bool) {
	current := tree
	for i, part := range parts {
		if i == len(parts)-1 {
			addFinalPart(current, part, isDir)
		} else {
			current = ensureIntermediateDir(current, part)
		}
	}
}

// addFinalPart adds the final file or directory to the tree.
func addFinalPart(current map[string]any, part string, isDir bool) {
	if isDir {
		if _, exists := current[part]; !exists {
			current[part] = make(map[string]any)
		}
	} else {
		current[part] = map[string]any{}
	}
}

// ensureIntermediateDir ensures an intermediate directory exists in the tree.
func ensureIntermediateDir(current map[string]any, part string) map[string]any {
	if _, exists := current[part]; !exists {
		current[part] = make(map[string]any)
	}
	return current[part].(map[string]any)
}
