// Package ws streams one editor session per WebSocket connection:
// inbound code/click/mutate/serialize commands drive a private
// rendering surface through the bridge, and selection, serialized JSX,
// and autosave events flow back to the browser.
package ws
