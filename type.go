package compose

import (
	"reflect"

	"github.com/mitchvee/compose/internal/typeid"
)

// Type identifies one Go type within the current process: a name, a 64 bit
// fingerprint and the transitive closure of its declared bases.
//
// Fingerprints are build-local. They are deterministic within one build but
// carry no meaning across builds or processes, never serialize them.
type Type = typeid.Identity

// Fingerprint is the 64 bit hash behind a Type. Zero is invalid.
type Fingerprint = typeid.Fingerprint

// HasBases is the intrusive way for a component type to declare the types it
// wants to be addressable as, typically interfaces it implements:
//
//	type Crate struct{ W int }
//
//	func (c *Crate) Weight() int { return c.W }
//
//	func (*Crate) TypeBases() []compose.Type {
//		return []compose.Type{compose.TypeOf[Weighted]()}
//	}
//
// Declared bases expand transitively, a base that itself declares bases
// contributes those too. Aliasing is strictly opt-in: implementing an
// interface alone makes a component retrievable by it only after the
// interface is declared here, passed to Alias, or registered with
// DeclareBases.
type HasBases = typeid.HasBases

// MaxDeclaredBases limits how many base fingerprints one type can carry.
// Bases beyond the limit are silently dropped.
const MaxDeclaredBases = typeid.MaxBases

// TypeOf returns the identity of T, computing it on first use. Pointer types
// are normalized to their element type, TypeOf[*T] equals TypeOf[T].
func TypeOf[T any]() Type {
	return typeid.Of[T]()
}

// TypeOfReflect is the runtime determined variant of TypeOf, for callers
// that only hold a reflect.Type. It pairs with Composable.ComponentsDynamic,
// which takes a runtime determined fingerprint.
func TypeOfReflect(ty reflect.Type) Type {
	return typeid.OfReflect(ty)
}

// DeclareBases registers bases for T without requiring T to implement
// HasBases. This is the only way to declare bases for interface types and
// for types owned by other packages. Call it before the first use of T,
// package init is the natural place:
//
//	var _ = compose.DeclareBases[lib.Buffer](compose.TypeOf[Flushable]())
func DeclareBases[T any](bases ...Type) struct{} {
	return typeid.DeclareBases[T](bases...)
}
