package lsp

import (
	"testing"

	"github.com/sourcegraph/go-lsp"
	"github.com/stretchr/testify/require"
)

func codesOf(diags []lsp.Diagnostic) []string {
	codes := make([]string, 0, len(diags))
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	return codes
}

func TestAnalyzeCleanDocument(t *testing.T) {
	src := `---
title: Home
---

<Hero title="Welcome">

[[Get Started|variant=primary]](/docs/)

</Hero>

<FeaturesGrid columns="2">

### One

First feature.

### Two

Second feature.

</FeaturesGrid>

Plain [link](/elsewhere/) in prose.
`
	diags := Analyze([]byte(src), nil)
	require.Empty(t, diags)
}

func TestAnalyzeTagProblems(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		codes     []string
		severity  lsp.DiagnosticSeverity
		startLine int
	}{
		{
			name:      "unclosed tag",
			src:       "<Hero title=\"x\">\n\ncontent\n",
			codes:     []string{"unclosed-tag"},
			severity:  lsp.Error,
			startLine: 0,
		},
		{
			name:      "close without open",
			src:       "Some text.\n\n</Hero>\n",
			codes:     []string{"unmatched-close"},
			severity:  lsp.Error,
			startLine: 2,
		},
		{
			name:      "missing blank line after open",
			src:       "<Hero title=\"x\">\ncontent\n\n</Hero>\n",
			codes:     []string{"tag-needs-blank-lines", "unmatched-close"},
			severity:  lsp.Error,
			startLine: 0,
		},
		{
			name:      "unquoted attribute",
			src:       "<Hero title=x>\n\n</Hero>\n",
			codes:     []string{"malformed-tag", "unmatched-close"},
			severity:  lsp.Error,
			startLine: 0,
		},
		{
			name:      "tag inside paragraph",
			src:       "Click <Hero title=\"x\"> to begin.\n",
			codes:     []string{"inline-component-tag"},
			severity:  lsp.Warning,
			startLine: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := Analyze([]byte(tt.src), nil)
			require.Equal(t, tt.codes, codesOf(diags))
			require.Equal(t, tt.severity, diags[0].Severity)
			require.Equal(t, tt.startLine, diags[0].Range.Start.Line)
			require.Equal(t, diagnosticSource, diags[0].Source)
		})
	}
}

func TestAnalyzeSkipsCodeFences(t *testing.T) {
	src := "Example usage:\n\n```markdown\n<Hero title=\"x\">\n\n</Hero>\n```\n"
	diags := Analyze([]byte(src), nil)
	require.Empty(t, diags)
}

func TestAnalyzeUnknownComponent(t *testing.T) {
	src := "<Wizard level=\"3\">\n\ncontent\n\n</Wizard>\n"
	diags := Analyze([]byte(src), nil)
	require.Len(t, diags, 1)
	require.Equal(t, "unknown-component", diags[0].Code)
	require.Equal(t, lsp.DiagnosticSeverity(lsp.Warning), diags[0].Severity)
	require.Contains(t, diags[0].Message, "<Wizard>")
	require.Contains(t, diags[0].Message, "FeaturesGrid")
}

func TestAnalyzeGridSequence(t *testing.T) {
	src := `<FeaturesGrid columns="2">

### One

### Two

Only the second feature has a description.

</FeaturesGrid>
`
	diags := Analyze([]byte(src), nil)
	require.Len(t, diags, 1)
	require.Equal(t, "child-sequence", diags[0].Code)
	require.Equal(t, lsp.Error, diags[0].Severity)
	require.Contains(t, diags[0].Message, "Expected p at position 1, found h3")
	require.Equal(t, 4, diags[0].Range.Start.Line, "diagnostic should point at the second heading")
}

func TestAnalyzeGridTruncatedPair(t *testing.T) {
	src := `<FeaturesGrid columns="3">

### One

First.

### Two

</FeaturesGrid>
`
	diags := Analyze([]byte(src), nil)
	require.Len(t, diags, 1)
	require.Equal(t, "child-sequence", diags[0].Code)
	require.Contains(t, diags[0].Message, "Expected p at position 3")
	require.Equal(t, 0, diags[0].Range.Start.Line, "missing trailing child reports on the opening tag")
}

func TestAnalyzeBracketButtons(t *testing.T) {
	t.Run("dropped prop", func(t *testing.T) {
		diags := Analyze([]byte("[[Click|variant primary]](/x/)\n"), nil)
		require.Len(t, diags, 1)
		require.Equal(t, "bracket-prop", diags[0].Code)
		require.Equal(t, lsp.DiagnosticSeverity(lsp.Warning), diags[0].Severity)
		require.Contains(t, diags[0].Message, `"variant primary"`)
	})

	t.Run("every bad piece reported", func(t *testing.T) {
		diags := Analyze([]byte("[[Click|variant=primary,size,align=]](/x/)\n"), nil)
		require.Equal(t, []string{"bracket-prop", "bracket-prop"}, codesOf(diags))
	})

	t.Run("unrecognized shorthand", func(t *testing.T) {
		diags := Analyze([]byte("[[x] thing](/x/)\n"), nil)
		require.Len(t, diags, 1)
		require.Equal(t, "bracket-shorthand", diags[0].Code)
	})

	t.Run("plain links untouched", func(t *testing.T) {
		diags := Analyze([]byte("A [normal link](/x/) here.\n"), nil)
		require.Empty(t, diags)
	})
}

func TestAnalyzeFrontmatter(t *testing.T) {
	t.Run("unterminated", func(t *testing.T) {
		diags := Analyze([]byte("---\ntitle: x\n\nbody\n"), nil)
		require.Len(t, diags, 1)
		require.Equal(t, "frontmatter", diags[0].Code)
		require.Contains(t, diags[0].Message, "closing delimiter")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		diags := Analyze([]byte("---\ntitle: [unclosed\n---\n\nbody\n"), nil)
		require.Len(t, diags, 1)
		require.Equal(t, "frontmatter", diags[0].Code)
		require.Contains(t, diags[0].Message, "not valid YAML")
	})

	t.Run("wrong field type", func(t *testing.T) {
		diags := Analyze([]byte("---\ntitle: Home\ndraft: maybe\n---\n\nbody\n"), nil)
		require.Len(t, diags, 1)
		require.Equal(t, "frontmatter", diags[0].Code)
		require.Contains(t, diags[0].Message, `"draft" must be a boolean`)
	})
}

func TestAnalyzeLineOffsetAfterFrontmatter(t *testing.T) {
	src := "---\ntitle: Home\n---\n\n<Hero title=\"x\">\n"
	diags := Analyze([]byte(src), nil)
	require.Len(t, diags, 1)
	require.Equal(t, "unclosed-tag", diags[0].Code)
	require.Equal(t, 4, diags[0].Range.Start.Line, "position counts frontmatter lines")
}
