// Package linktree models a bus: every link leaving one source node, routed as
// a rooted tree of orthogonal segments plus the drops that attach the tree to
// the source pad and to each target pad.
//
// # Shapes
//
// A tree is always one of three shapes (see [Shape]):
//
//   - Direct: no segments, one start and one end drop. The link is drawn as a
//     straight line between pads.
//   - SinglePath: a chain of segments serving a single end drop.
//   - Branching: two or more end drops sharing upstream segments.
//
// # Identity
//
// Segments are addressed by small integer ids ([SegmentID]) handed out by the
// tree, and parent links are ids rather than pointers. [Tree.Validate] checks
// acyclicity with a gonum topological sort instead of trusting it.
//
// # Editing
//
// Most edits are copy-on-write: [Tree.RetainSinglePath],
// [Tree.MergeComplementaryLinks], [Tree.InsertNode] and friends return new
// trees and leave the receiver alone, so abandoning an edit is just dropping
// the result. The two edits the router drives, [Tree.SplitBusLink] and
// [Tree.RelocateOnTree], work in place on a tree the caller owns.
//
// Every operation handed an id the tree does not contain fails with a
// STRUCTURAL error from pkg/errors wrapping one of the sentinels below.
// Nothing silently ignores a missing reference.
package linktree
