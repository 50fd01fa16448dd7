// Package game holds the rules of Kitchen Wars: meter clamping, ending detection,
// the authored event catalog, player tagging and the choice transition.
//
// Everything here is pure. Persistence, content generation and concurrency live in
// the engine, store and service packages, which all share this one set of rules.
package game
