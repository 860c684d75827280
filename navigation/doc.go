// Package navigation provides the navigation capability a page uses to move
// the client between named routes.
package navigation
