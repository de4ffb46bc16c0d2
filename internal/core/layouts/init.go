// Package layouts registers the built-in layouts with the core registry.
// Import this package to ensure all layouts are registered.
package layouts

// This file exists to provide a single import point.
// Each layout file uses init() to register its layout.
