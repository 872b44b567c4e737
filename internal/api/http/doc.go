// Package http exposes the component store over REST: list/create on
// the collection, get/update on items, plus a server-side preview that
// compiles and renders a component to sanitized HTML.
package http
