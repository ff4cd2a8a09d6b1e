// Package provision installs, updates and uninstalls tools by walking the
// configured backends in priority order. Every state change is confirmed by
// re-running detection inside a bounded settle window.
package provision
