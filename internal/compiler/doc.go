// Package compiler wraps esbuild as an opaque compile(source) -> js
// service for JSX/TSX component source.
package compiler
