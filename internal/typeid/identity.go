package typeid

import (
	"log/slog"
	"maps"
	"reflect"
	"sync/atomic"
	"unsafe"

	"github.com/dgryski/go-farm"
)

// Fingerprint is a 64 bit hash identifying one type within the current
// process. Fingerprints are build-local: they depend on the type name as
// reported by reflection and must never be persisted or compared across
// builds or processes. The zero value marks an invalid identity.
type Fingerprint uint64

// MaxBases limits the number of base fingerprints a single identity can
// carry. Bases beyond the limit are silently dropped.
const MaxBases = 64

// Identity describes one type: its name, its fingerprint and the transitive
// closure of its declared bases. Values are created once per type and never
// mutated afterwards, treat them as read only.
type Identity struct {
	Name        string
	Fingerprint Fingerprint

	// Bases holds the fingerprints of all declared bases, transitively
	// expanded, capped at MaxBases. Do not modify.
	Bases []Fingerprint
}

// HasBases is the intrusive way for a struct type to declare the types it
// wants to be addressable as. The returned identities are expanded
// transitively, a base that itself declares bases contributes those too.
//
//	type Crate struct{ W int }
//
//	func (*Crate) TypeBases() []typeid.Identity {
//		return []typeid.Identity{typeid.Of[Weighted]()}
//	}
//
// For types that cannot be modified, or for interface types, use
// DeclareBases instead.
type HasBases interface {
	TypeBases() []Identity
}

func (id Identity) IsValid() bool {
	return id.Fingerprint != 0
}

// Equal reports whether both identities describe the same type. Identity
// equality is fingerprint equality, the base lists do not participate.
func (id Identity) Equal(other Identity) bool {
	return id.Fingerprint == other.Fingerprint
}

// HasBase reports whether fp appears in the declared base closure of id.
func (id Identity) HasBase(fp Fingerprint) bool {
	for _, base := range id.Bases {
		if base == fp {
			return true
		}
	}

	return false
}

// IsCompatibleWith reports whether one of the two types may stand in for the
// other: the fingerprints match, or either fingerprint appears in the other
// side's base list. The test is deliberately symmetric, callers may ask in
// either cast direction.
func (id Identity) IsCompatibleWith(other Identity) bool {
	if id.Fingerprint == other.Fingerprint {
		return true
	}

	return id.HasBase(other.Fingerprint) || other.HasBase(id.Fingerprint)
}

func (id Identity) String() string {
	return id.Name
}

// The lookup tables are initialized as part of variable initialization, not
// in an init function: callers like DeclareBases may run from package level
// variable initializers, which execute before init functions do.
var identities = func() *atomic.Pointer[map[unsafe.Pointer]Identity] {
	var p atomic.Pointer[map[unsafe.Pointer]Identity]
	p.Store(&map[unsafe.Pointer]Identity{})
	return &p
}()

var declaredBases = func() *atomic.Pointer[map[Fingerprint][]Identity] {
	var p atomic.Pointer[map[Fingerprint][]Identity]
	p.Store(&map[Fingerprint][]Identity{})
	return &p
}()

// Of returns the identity of T, computing it on first use. Pointer types are
// normalized to their element type, Of[*T] and Of[T] agree.
func Of[T any]() Identity {
	ty := normalize(reflect.TypeFor[T]())
	ptrToType := abiTypePointerTo(ty)

	if cached, ok := (*identities.Load())[ptrToType]; ok {
		return cached
	}

	return ensureIdentity(ty, ptrToType)
}

// OfReflect is the runtime determined variant of Of.
func OfReflect(ty reflect.Type) Identity {
	ty = normalize(ty)
	ptrToType := abiTypePointerTo(ty)

	if cached, ok := (*identities.Load())[ptrToType]; ok {
		return cached
	}

	return ensureIdentity(ty, ptrToType)
}

// DeclareBases registers bases for T without requiring T to implement
// HasBases. This is the only way to declare bases for interface types and
// for types owned by other packages. Call it once per type before the first
// Of[T], package init is the natural place:
//
//	var _ = typeid.DeclareBases[ThirdParty](typeid.Of[Weighted]())
func DeclareBases[T any](bases ...Identity) struct{} {
	ty := normalize(reflect.TypeFor[T]())
	fp := fingerprintOf(ty)

	for {
		previous := declaredBases.Load()

		next := maps.Clone(*previous)
		next[fp] = append(append([]Identity(nil), next[fp]...), bases...)

		if declaredBases.CompareAndSwap(previous, &next) {
			break
		}
	}

	// a cached identity for T no longer reflects its declared bases
	dropCachedIdentity(abiTypePointerTo(ty))

	return struct{}{}
}

func normalize(ty reflect.Type) reflect.Type {
	for ty.Kind() == reflect.Pointer {
		ty = ty.Elem()
	}

	return ty
}

func fingerprintOf(ty reflect.Type) Fingerprint {
	return Fingerprint(farm.Fingerprint64([]byte(ty.String())))
}

func abiTypePointerTo(t reflect.Type) unsafe.Pointer {
	type eface struct {
		typ, val unsafe.Pointer
	}

	// a reflect.Type is backed by an *rType. The rType contains a abi.Type as
	// its first value. This means, that a *rType can be re-interpreted as *abi.Type
	return (*eface)(unsafe.Pointer(&t)).val
}

func ensureIdentity(ty reflect.Type, ptrToType unsafe.Pointer) Identity {
	id := Identity{
		Name:        ty.String(),
		Fingerprint: fingerprintOf(ty),
	}

	id.Bases = collectBases(ty, id.Fingerprint)

	for {
		previous := identities.Load()
		if cached, ok := (*previous)[ptrToType]; ok {
			return cached
		}

		next := maps.Clone(*previous)
		next[ptrToType] = id

		if identities.CompareAndSwap(previous, &next) {
			slog.Debug(
				"New type identity registered",
				slog.String("name", id.Name),
				slog.Uint64("fingerprint", uint64(id.Fingerprint)),
				slog.Int("bases", len(id.Bases)),
			)

			return id
		}
	}
}

func dropCachedIdentity(ptrToType unsafe.Pointer) {
	for {
		previous := identities.Load()
		if _, ok := (*previous)[ptrToType]; !ok {
			return
		}

		next := maps.Clone(*previous)
		delete(next, ptrToType)

		if identities.CompareAndSwap(previous, &next) {
			return
		}
	}
}

// collectBases computes the transitive closure over both base declaration
// mechanisms, depth first, capped at MaxBases. Each base identity already
// carries its own closure, so recursion only needs to chase bases that were
// declared through the runtime table.
func collectBases(ty reflect.Type, self Fingerprint) []Fingerprint {
	var out []Fingerprint

	seen := map[Fingerprint]struct{}{self: {}}

	add := func(fp Fingerprint) bool {
		if fp == 0 || len(out) >= MaxBases {
			return false
		}

		if _, dup := seen[fp]; dup {
			return false
		}

		seen[fp] = struct{}{}
		out = append(out, fp)
		return true
	}

	var visit func(bases []Identity)
	visit = func(bases []Identity) {
		for _, base := range bases {
			if !add(base.Fingerprint) {
				continue
			}

			for _, fp := range base.Bases {
				add(fp)
			}

			visit((*declaredBases.Load())[base.Fingerprint])
		}
	}

	visit(intrusiveBasesOf(ty))
	visit((*declaredBases.Load())[self])

	return out
}

func intrusiveBasesOf(ty reflect.Type) []Identity {
	if ty.Kind() != reflect.Struct {
		return nil
	}

	instance := reflect.New(ty).Interface()
	if withBases, ok := instance.(HasBases); ok {
		return withBases.TypeBases()
	}

	return nil
}
