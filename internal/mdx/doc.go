// Package mdx implements the markdown-to-component pipeline: CommonMark
// parsing via goldmark, the bracket-button and block-component AST
// transforms, and rendering of component invocations through the component
// registry.
package mdx
