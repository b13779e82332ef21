package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/mdxsite/internal/config"
	"git.home.luguber.info/inful/mdxsite/internal/errors"
)

// InitCmd implements the 'init' command: site.yaml plus a small starter
// site exercising the component syntax.
type InitCmd struct {
	Dir   string `arg:"" optional:"" help:"Directory to scaffold (defaults to the current directory)"`
	Force bool   `help:"Overwrite existing files"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	dir := i.Dir
	cfgPath := root.Config
	if dir == "" {
		dir = projectRoot(root.Config)
	} else {
		cfgPath = filepath.Join(dir, "site.yaml")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityFatal, "create project directory")
	}

	fmt.Printf("Writing configuration to %s\n", cfgPath)
	if err := config.Init(cfgPath, i.Force); err != nil {
		return errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "write configuration")
	}

	for _, f := range starterFiles {
		if err := writeStarterFile(filepath.Join(dir, f.path), f.content, i.Force); err != nil {
			return errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityFatal, "write starter content")
		}
	}

	fmt.Printf("Scaffolded site in %s\n", dir)
	fmt.Println("Next steps:")
	fmt.Println("  mdxsite preview   serve with live reload")
	fmt.Println("  mdxsite build     write the static site")
	return nil
}

func writeStarterFile(path, content string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

var starterFiles = []struct {
	path    string
	content string
}{
	{"content/index.md", `---
title: Home
description: A new mdxsite project
---

<Hero title="Welcome" subtitle="You just scaffolded an mdxsite project.">

[[Get Started|variant=primary]](/docs/getting-started/)

</Hero>

## Why mdxsite

Markdown in, a static site out. Components are plain tags in your
markdown, and buttons are links with a little extra syntax.
`},

	{"content/docs/getting-started.md", `---
title: Getting Started
description: First steps with mdxsite
weight: 1
---

Edit the files under ` + "`content/`" + `, then run ` + "`mdxsite preview`" + `
and open the printed address. Every save rebuilds and reloads.

<FeaturesGrid columns="3">

### Write

Markdown files under content/ become pages; frontmatter fills in
titles and descriptions.

### Preview

The preview server watches your sources and reloads the browser on
every change.

### Ship

mdxsite build writes a plain static site you can host anywhere.

</FeaturesGrid>

[[Back home|variant=secondary,size=small]](/)
`},

	{"assets/site.css", `:root {
  --fg: #1a1a1a;
  --bg: #ffffff;
  --accent: #2962ff;
  --muted: #6b7280;
}

body {
  margin: 0 auto;
  max-width: 46rem;
  padding: 0 1.25rem 4rem;
  color: var(--fg);
  background: var(--bg);
  font-family: system-ui, sans-serif;
  line-height: 1.6;
}

a { color: var(--accent); }

.hero { padding: 3rem 0 2rem; text-align: center; }
.hero__title { font-size: 2.5rem; margin-bottom: 0.5rem; }
.hero__subtitle { color: var(--muted); font-size: 1.15rem; }
.hero__actions { margin-top: 1.5rem; }

.btn {
  display: inline-block;
  padding: 0.55rem 1.1rem;
  border-radius: 6px;
  border: 1px solid var(--accent);
  text-decoration: none;
}
.btn--primary { background: var(--accent); color: #fff; }
.btn--secondary { color: var(--accent); }
.btn--small { padding: 0.3rem 0.7rem; font-size: 0.875rem; }

.features-grid {
  display: grid;
  gap: 1rem;
  margin: 2rem 0;
}
.features-grid--cols-2 { grid-template-columns: repeat(2, 1fr); }
.features-grid--cols-3 { grid-template-columns: repeat(3, 1fr); }

.feature-card, .card {
  border: 1px solid #e5e7eb;
  border-radius: 8px;
  padding: 1rem;
}

.section { margin: 2.5rem 0; }
.section__title { margin-bottom: 1rem; }
`},
}
