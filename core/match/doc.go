// Package match implements the dining-group matching engine: unit
// construction from registrations, operator constraint transforms, the
// per-phase greedy group-formation search with weighted scoring, the
// algorithm runner and the post-hoc validator.
//
// Every unit hosts exactly once across the three phases, is a guest exactly
// twice, and should never meet the same other unit twice. The duplicate-pair
// rule is a soft constraint: a configuration with no alternative still
// produces a group, flagged with a warning.
package match
