// Package compose provides runtime component composition on top of a small,
// build-local type identity layer. Ordinary structs gain an open-ended bag of
// optional, independently owned components by embedding Composable, each
// component addressable by its exact type or by explicitly declared aliases.
//
// There is no automatic subtype inference anywhere: a component is
// retrievable by a type only if that type was declared as a base (HasBases,
// DeclareBases) or registered as an alias (Alias, AddAliases). This keeps
// every lookup an O(1) set membership test and makes "is-a" relations an
// explicit, reviewable part of the code.
//
// Type fingerprints are deterministic within one build of the program and
// meaningless outside of it. Never persist them or send them over a wire.
package compose
