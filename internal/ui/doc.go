// Package ui provides terminal output components for the blescribe CLI.
//
// Unlike the interactive wizard, these components follow a "run once and
// exit" pattern: styled banners, result lines, and a blocking confirmation
// prompt for the scripted send path. They share the wizard's color
// language but render directly to stdout with no event loop.
package ui
