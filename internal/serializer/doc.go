// Package serializer reconstructs JSX source text from rendered markup:
// attribute names are renamed to their React prop equivalents, inline
// styles become camelCase object literals, void elements self-close, and
// nesting is re-indented by depth rather than source formatting.
package serializer
