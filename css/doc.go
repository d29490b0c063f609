// Package css produces stylesheet describing sprite sheet layout.
//
// Every placement becomes one rule, rules follow placement order. Rule text
// comes from a text/template (slim-sprig functions are available) executed
// with Rule values, so output for the same placements is always the same.
//
// Selectors are class names derived from the base name of the source without
// extension, transliterated and lowercased, optionally prefixed. Two sources
// resulting in the same selector is an error (DuplicateNameError), rules are
// never silently overwritten.
package css
