// Package surface implements the isolated rendering surface: compiled
// component code executes in a sandboxed goja runtime against a live
// element tree owned exclusively by the surface. Elements gain stable
// opaque identifiers on first interaction, mutations apply in place by
// identifier, and the tree serializes back to markup on demand. The
// controller talks to a surface only through bridge messages; the tree
// is rebuilt wholesale on every render.
package surface
