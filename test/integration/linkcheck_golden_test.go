package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdxsite/internal/config"
	"git.home.luguber.info/inful/mdxsite/internal/linkcheck"
	"git.home.luguber.info/inful/mdxsite/internal/site"
)

func TestLinkGolden_CleanSite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	outputDir, cfg := buildLinkFixture(t, "../../test/testdata/sites/linkcheck-clean")
	goldenPath := "../../test/testdata/golden/linkcheck/clean.golden.json"

	report := runLinkCheck(t, outputDir, cfg)
	require.True(t, report.Clean(), "expected no broken links")

	verifyLinkReport(t, report, goldenPath, *updateGolden)
}

func TestLinkGolden_BrokenLinks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	outputDir, cfg := buildLinkFixture(t, "../../test/testdata/sites/linkcheck-broken")
	goldenPath := "../../test/testdata/golden/linkcheck/broken-links.golden.json"

	report := runLinkCheck(t, outputDir, cfg)
	require.False(t, report.Clean(), "expected broken links")

	verifyLinkReport(t, report, goldenPath, *updateGolden)
}

func TestLinkGolden_AuditFindings(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	outputDir, cfg := buildLinkFixture(t, "../../test/testdata/sites/linkcheck-audit")
	goldenPath := "../../test/testdata/golden/linkcheck/audit-findings.golden.json"

	report := runLinkCheck(t, outputDir, cfg)
	require.True(t, report.Clean(), "audit findings must not count as broken links")

	verifyLinkReport(t, report, goldenPath, *updateGolden)
}

// buildLinkFixture renders a fixture site into a temp output tree and
// returns the tree together with the loaded configuration.
func buildLinkFixture(t *testing.T, fixturePath string) (string, *config.Config) {
	t.Helper()

	root := copySiteFixture(t, fixturePath)
	cfg := loadSiteConfig(t, root)
	cfg.Output.Dir = t.TempDir()

	report, err := buildSite(t, root, cfg, site.BuildOptions{})
	require.NoError(t, err, "build failed")
	require.Equal(t, site.OutcomeSuccess, report.Outcome)

	return cfg.Output.Dir, cfg
}

// runLinkCheck checks an output tree with the fixture's link settings.
// Fixtures leave external checking disabled so runs stay offline.
func runLinkCheck(t *testing.T, outputDir string, cfg *config.Config) *linkcheck.Report {
	t.Helper()

	checker, err := linkcheck.New(outputDir, cfg)
	require.NoError(t, err, "failed to build link checker")
	t.Cleanup(func() { _ = checker.Close() })

	report, err := checker.SetLogger(quietLogger()).Run(t.Context())
	require.NoError(t, err, "link check failed")
	return report
}

// verifyLinkReport compares a link check report against a golden file.
func verifyLinkReport(t *testing.T, report *linkcheck.Report, goldenPath string, updateGolden bool) {
	t.Helper()

	// Normalize the report for comparison (drop timestamps, fix ordering)
	normalized := normalizeLinkReport(report)

	if updateGolden {
		data, err := json.MarshalIndent(normalized, "", "  ")
		require.NoError(t, err, "failed to marshal report")

		err = os.MkdirAll(filepath.Dir(goldenPath), 0o755)
		require.NoError(t, err, "failed to create golden directory")

		err = os.WriteFile(goldenPath, data, 0o644)
		require.NoError(t, err, "failed to write golden file")

		t.Logf("Updated golden file: %s", goldenPath)
		return
	}

	// Read and compare with golden file
	goldenData, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "failed to read golden file: %s", goldenPath)

	var expected normalizedLinkReport
	err = json.Unmarshal(goldenData, &expected)
	require.NoError(t, err, "failed to unmarshal golden file")

	// Compare JSON representations for better error messages
	actualJSON, err := json.MarshalIndent(normalized, "", "  ")
	require.NoError(t, err)

	expectedJSON, err := json.MarshalIndent(expected, "", "  ")
	require.NoError(t, err)

	assert.JSONEq(t, string(expectedJSON), string(actualJSON),
		"link report doesn't match golden file: %s\nRun with -update-golden to update", goldenPath)
}

// normalizedLinkReport represents a link check report with run-specific
// fields removed for golden testing.
type normalizedLinkReport struct {
	Pages    int                 `json:"pages"`
	Links    int                 `json:"links"`
	Checked  int                 `json:"checked"`
	Skipped  int                 `json:"skipped"`
	Broken   []normalizedBroken  `json:"broken"`
	Findings []normalizedFinding `json:"findings"`
}

type normalizedBroken struct {
	URL       string `json:"url"`
	Status    int    `json:"status,omitempty"`
	Error     string `json:"error"`
	Internal  bool   `json:"internal"`
	Tag       string `json:"tag,omitempty"`
	Attribute string `json:"attribute,omitempty"`
	Text      string `json:"text,omitempty"`
	Page      string `json:"page"`
	PageURL   string `json:"page_url"`
}

type normalizedFinding struct {
	Page   string `json:"page"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// normalizeLinkReport drops the checked-at timestamps and failure
// counters and sorts both slices, since pages are checked concurrently
// and arrival order is not stable.
func normalizeLinkReport(report *linkcheck.Report) normalizedLinkReport {
	normalized := normalizedLinkReport{
		Pages:    report.Pages,
		Links:    report.Links,
		Checked:  report.Checked,
		Skipped:  report.Skipped,
		Broken:   make([]normalizedBroken, 0, len(report.Broken)),
		Findings: make([]normalizedFinding, 0, len(report.Findings)),
	}

	for _, b := range report.Broken {
		normalized.Broken = append(normalized.Broken, normalizedBroken{
			URL:       b.URL,
			Status:    b.Status,
			Error:     b.Error,
			Internal:  b.Internal,
			Tag:       b.Tag,
			Attribute: b.Attribute,
			Text:      b.Text,
			Page:      b.Page,
			PageURL:   b.PageURL,
		})
	}
	sort.Slice(normalized.Broken, func(i, j int) bool {
		if normalized.Broken[i].Page != normalized.Broken[j].Page {
			return normalized.Broken[i].Page < normalized.Broken[j].Page
		}
		return normalized.Broken[i].URL < normalized.Broken[j].URL
	})

	for _, f := range report.Findings {
		normalized.Findings = append(normalized.Findings, normalizedFinding{
			Page:   f.Page,
			Kind:   f.Kind,
			Detail: f.Detail,
		})
	}
	sort.Slice(normalized.Findings, func(i, j int) bool {
		a, b := normalized.Findings[i], normalized.Findings[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Detail < b.Detail
	})

	return normalized
}
