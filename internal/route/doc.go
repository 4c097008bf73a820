// Package route implements the deep-link route model and the pattern matcher.
//
// A route Definition describes one kind of deep link across the two URL
// surfaces a client can produce:
//
//   - protocol URLs: scheme://navigation/home?key=value
//   - website URLs:  https://host/path?key=value#fragment
//
// Definitions are collected into an immutable Table. The Table order is the
// match priority: the Matcher walks routes in declaration order, then each
// route's patterns in declaration order, and the first candidate that survives
// path matching, query validation and the optional transform hook wins.
//
// MATCHING:
//
// For every candidate pattern:
//  1. The regex is tested against the normalized path.
//  2. Declared path parameters are read from named capture groups.
//  3. Query parameters are evaluated in declared order. A parameter marked
//     Required must be present unless an earlier member of its Group already
//     matched. Every Group that appears in the pattern must be satisfied.
//  4. Present values must satisfy the parameter Format, if any.
//  5. The surface transform hook may replace the record or reject it. A
//     rejected candidate does not stop the scan.
//
// RENDERING:
//
// Render is the inverse: a Template produces a path with {param}
// placeholders, placeholders are substituted, and the remaining parameters
// visible on the surface become the query string.
//
// The Table and Matcher hold no mutable state and are safe for concurrent use.
package route
