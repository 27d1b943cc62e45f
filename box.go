package compose

import (
	"github.com/mitchvee/compose/internal/assert"
	"github.com/mitchvee/compose/internal/set"
)

// Facilities customizes how a Box manages the lifetime of its value.
// Zero fields fall back to the defaults of DefaultFacilities.
type Facilities[T any] struct {
	// Destruct runs exactly once when the box is destroyed. The default is a
	// no-op, the garbage collector reclaims the value. Provide one for values
	// holding resources that need explicit teardown.
	Destruct func(*T)

	// CopyConstruct produces an independent copy of the value, or nil to
	// mark the value as non-copyable. The default is a shallow copy of the
	// struct value. Copying a box whose CopyConstruct returns nil panics.
	CopyConstruct func(*T) *T
}

// DefaultFacilities returns the facilities used when none are given:
// no destructor, shallow copy.
func DefaultFacilities[T any]() Facilities[T] {
	return Facilities[T]{
		CopyConstruct: func(value *T) *T {
			copied := *value
			return &copied
		},
	}
}

// NoCopyFacilities marks the boxed value as non-copyable. Copying such a box
// (directly or through CopyInto on its owner) is a contract violation and
// panics with the type name.
func NoCopyFacilities[T any]() Facilities[T] {
	return Facilities[T]{
		CopyConstruct: func(*T) *T { return nil },
	}
}

// Box owns one value of an erased type and answers type-checked access
// queries against a small set of valid identities. The set always contains
// the exact constructed type plus its declared bases, and only ever grows.
//
// A box with nil storage is invalid: default constructed, moved-from or
// destroyed. Exactly one box owns the value at any time.
type Box struct {
	value      any // always a *T, nil when invalid
	mainType   Type
	validTypes set.Set[Fingerprint]

	destruct      func(self *Box)
	copyConstruct func(dst, src *Box)
}

// NewBox wraps a heap value, assuming ownership. The box seeds its valid
// identities with the exact type and all of its declared bases.
func NewBox[T any](value *T, facilities ...Facilities[T]) *Box {
	mainType := TypeOf[T]()
	assert.That(value != nil, "cannot box a nil %s", mainType)

	fac := DefaultFacilities[T]()
	if len(facilities) > 0 {
		if custom := facilities[0].Destruct; custom != nil {
			fac.Destruct = custom
		}
		if custom := facilities[0].CopyConstruct; custom != nil {
			fac.CopyConstruct = custom
		}
	}

	b := &Box{
		value:    value,
		mainType: mainType,
	}

	b.destruct = func(self *Box) {
		if fac.Destruct != nil {
			fac.Destruct(self.value.(*T))
		}

		self.value = nil
	}

	b.copyConstruct = func(dst, src *Box) {
		copied := fac.CopyConstruct(src.value.(*T))
		assert.That(copied != nil,
			"copy construction failed for %s. Is the value marked as non-copyable?", mainType)

		dst.value = copied
		dst.mainType = src.mainType
		dst.validTypes = src.validTypes.Clone()
		dst.destruct = src.destruct
		dst.copyConstruct = src.copyConstruct
	}

	b.validTypes.Insert(mainType.Fingerprint)
	for _, base := range mainType.Bases {
		b.validTypes.Insert(base)
	}

	return b
}

// FromBox returns the boxed value viewed as T. The query succeeds only when
// the identity of T is among the box's valid identities, membership is
// exact-or-declared, never inferred. T selects the view:
//
//   - *V yields the stable pointer to the boxed value
//   - an interface type yields the value behind that interface
//   - a bare struct V yields a copy of the value
func FromBox[T any](b *Box) (T, bool) {
	var zero T

	if b == nil || b.value == nil {
		return zero, false
	}

	if !b.validTypes.Has(TypeOf[T]().Fingerprint) {
		return zero, false
	}

	if view, ok := b.value.(T); ok {
		return view, true
	}

	if ptr, ok := b.value.(*T); ok {
		return *ptr, true
	}

	return zero, false
}

// IsValid reports whether the box still owns a value.
func (b *Box) IsValid() bool {
	return b != nil && b.value != nil
}

// MainType returns the identity of the exact type the box was constructed with.
func (b *Box) MainType() Type {
	return b.mainType
}

// ValidAs reports whether the box may be viewed as the given identity.
func (b *Box) ValidAs(ty Type) bool {
	return b.validTypes.Has(ty.Fingerprint)
}

// AddAliases extends the valid identities of the box with the given types and
// their declared bases. Use this when the boxed type cannot declare its bases
// itself, e.g. for third party types.
func (b *Box) AddAliases(types ...Type) *Box {
	for _, alias := range types {
		if !alias.IsValid() {
			continue
		}

		b.validTypes.Insert(alias.Fingerprint)
		for _, base := range alias.Bases {
			b.validTypes.Insert(base)
		}
	}

	return b
}

// Copy creates a new box owning an independent copy of the value. Copying an
// invalid box, or a box holding a non-copyable value, panics.
func (b *Box) Copy() *Box {
	assert.That(b.IsValid(), "cannot copy an invalid %s box", b.mainType)

	dst := &Box{}
	b.copyConstruct(dst, b)
	return dst
}

// Move transfers ownership into a new box. The value itself is not touched,
// its address is stable across the move. The source becomes invalid.
func (b *Box) Move() *Box {
	dst := &Box{
		value:         b.value,
		mainType:      b.mainType,
		validTypes:    b.validTypes,
		destruct:      b.destruct,
		copyConstruct: b.copyConstruct,
	}

	b.value = nil
	b.validTypes.Clear()

	return dst
}

// Destroy runs the destructor exactly once and invalidates the box.
// Destroying an invalid box is a no-op.
func (b *Box) Destroy() {
	if !b.IsValid() {
		return
	}

	b.destruct(b)
}
