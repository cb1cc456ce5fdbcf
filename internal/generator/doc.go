// Package generator walks schema descriptor trees and produces synthetic values.
//
// Only literal and union choices, omission of not-required fields under the dense
// policy and dense list lengths are random. Primitives always take their zero value, so
// a sparse record has a fixed shape for a given schema. Generic schemas must be resolved
// with a schema.Resolver before they reach the engine.
package generator
