// Package grouping holds the answer-inheritance policy for grouped questions.
//
// A question may inherit its answer from another question of the same
// meeting instead of being enriched on its own. This package decides when an
// inheriting question is eligible, how the inherited outcome is annotated,
// and validates new assignments with a bounded walk so the inheritance
// relation never contains a cycle. It also produces group suggestions from
// agenda metadata; suggestions are never applied automatically.
package grouping
