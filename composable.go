package compose

import (
	"iter"
	"slices"

	"github.com/mitchvee/compose/internal/assert"
)

// Composer is satisfied by any type embedding Composable. The generic entry
// points (Add, Get, Alias, ...) take the owner through this interface so that
// lifecycle notifications see the owner's concrete type.
type Composer interface {
	composable() *Composable
}

type componentLogistics struct {
	copy func(target any, dst, src *Box)
	move func(target any, box *Box)
}

// Composable turns the embedding type into an owner of typed components.
// Components are addressable by their exact type or by any declared alias,
// added fluently and owned exclusively by the composable:
//
//	type Inventory struct {
//		compose.Composable
//	}
//
//	inv := &Inventory{}
//	compose.AddNew[Manifest](inv)
//	compose.Add(inv, &Crate{W: 12})
//	compose.Alias[Stackable](inv)
//
//	crate := compose.Get[*Crate](inv)
//
// A Composable is a strictly single threaded facility, callers needing
// concurrent access must synchronize externally. Components must not keep an
// owning reference back to their composable.
//
// The zero value is an empty composable ready for use.
type Composable struct {
	components map[Fingerprint]*Box
	aliases    map[Fingerprint][]Fingerprint
	logistics  map[Fingerprint]componentLogistics
	lastAdded  Fingerprint

	// OnComponentAdded, when set, runs for every component added afterwards,
	// right after automatic aliases were registered and before the component
	// receives its own attach notification.
	OnComponentAdded func(*Box)
}

func (c *Composable) composable() *Composable {
	return c
}

func (c *Composable) ensureMaps() {
	if c.components == nil {
		c.components = map[Fingerprint]*Box{}
		c.aliases = map[Fingerprint][]Fingerprint{}
		c.logistics = map[Fingerprint]componentLogistics{}
	}
}

// NumComponents returns the number of components currently owned.
func (c *Composable) NumComponents() int {
	return len(c.components)
}

// HasComponent reports whether a component exists under exactly the given
// identity, aliases do not count.
func (c *Composable) HasComponent(ty Type) bool {
	_, ok := c.components[ty.Fingerprint]
	return ok
}

// ComponentsDynamic returns a lazy view over every box matching the given
// fingerprint: the exact match, if any, followed by all components exposing
// the fingerprint as an alias. Order among alias matches is unspecified.
func (c *Composable) ComponentsDynamic(fp Fingerprint) iter.Seq[*Box] {
	return func(yield func(*Box) bool) {
		if box, ok := c.components[fp]; ok {
			if !yield(box) {
				return
			}
		}

		for _, main := range c.liveAliases(fp) {
			if !yield(c.components[main]) {
				return
			}
		}
	}
}

// liveAliases returns the alias bucket for fp, dropping entries whose
// component no longer exists (e.g. after the composable was moved from).
func (c *Composable) liveAliases(fp Fingerprint) []Fingerprint {
	bucket, ok := c.aliases[fp]
	if !ok {
		return nil
	}

	live := bucket[:0]
	for _, main := range bucket {
		if _, ok := c.components[main]; ok {
			live = append(live, main)
		}
	}

	if len(live) == 0 {
		delete(c.aliases, fp)
		return nil
	}

	c.aliases[fp] = live
	return live
}

func (c *Composable) addAlias(alias, main Fingerprint) {
	if alias == 0 || alias == main {
		return
	}

	c.ensureMaps()

	bucket := c.aliases[alias]
	if !slices.Contains(bucket, main) {
		c.aliases[alias] = append(bucket, main)
	}
}

// AddAliases registers the given types, and their declared bases, as aliases
// of the most recently added component. Calling this without a component
// added before is a contract violation and panics.
func (c *Composable) AddAliases(types ...Type) {
	box, ok := c.components[c.lastAdded]
	assert.That(c.lastAdded != 0 && ok,
		"component aliases were listed, but no component was added before. "+
			"Call Alias or AddAliases only right after Add")

	box.AddAliases(types...)

	for _, alias := range types {
		if !alias.IsValid() {
			continue
		}

		c.addAlias(alias.Fingerprint, c.lastAdded)
		for _, base := range alias.Bases {
			c.addAlias(base, c.lastAdded)
		}
	}
}

// Drop destroys every component exactly once and resets the composable to
// its empty state. Dropping an empty composable is a no-op.
func (c *Composable) Drop() {
	for _, box := range c.components {
		box.Destroy()
	}

	c.components = nil
	c.aliases = nil
	c.logistics = nil
	c.lastAdded = 0
}

// Add adds a component to the owner, which assumes exclusive ownership of the
// value. At most one component may exist per exact type, adding a second one
// panics, wrap the value in a distinct type and alias it instead.
//
// If the component implements AttachAware for the owner's concrete type it is
// notified now. CopyAware and MoveAware implementations are picked up at the
// same time. Add returns the owner so calls can nest fluently.
func Add[T any, P Composer](parent P, component *T, facilities ...Facilities[T]) P {
	mainType := TypeOf[T]()
	assert.That(component != nil, "a nil %s cannot be added as a component", mainType)

	c := parent.composable()
	c.ensureMaps()

	assert.That(!c.HasComponent(mainType),
		"%s cannot be added because another component already exists under that type. "+
			"Try wrapping the component in a distinct type and registering %s as its alias, "+
			"then Components can retrieve all matches", mainType, mainType)

	box := NewBox(component, facilities...)
	c.components[mainType.Fingerprint] = box
	c.lastAdded = mainType.Fingerprint

	for _, base := range mainType.Bases {
		c.addAlias(base, mainType.Fingerprint)
	}

	if c.OnComponentAdded != nil {
		c.OnComponentAdded(box)
	}

	if aware, ok := any(component).(AttachAware[P]); ok {
		aware.OnAttached(parent)

		lg := componentLogistics{}

		if _, ok := any(component).(CopyAware[P, T]); ok {
			lg.copy = func(target any, dst, src *Box) {
				parent, ok := target.(P)
				if !ok {
					return
				}

				copied, ok := FromBox[*T](dst)
				assert.That(ok,
					"%s cannot receive its copy notification, the destination box is incompatible",
					mainType)

				source, _ := FromBox[*T](src)
				any(copied).(CopyAware[P, T]).OnCopied(parent, source)
			}
		}

		if _, ok := any(component).(MoveAware[P]); ok {
			// resolve the component from its box at notification time: after a
			// copy the logistics travel with the new owner, whose box holds a
			// different instance than the one present here
			lg.move = func(target any, box *Box) {
				parent, ok := target.(P)
				if !ok {
					return
				}

				moved, ok := FromBox[*T](box)
				assert.That(ok,
					"%s cannot receive its move notification, the moved box is incompatible",
					mainType)

				any(moved).(MoveAware[P]).OnMoved(parent)
			}
		}

		if lg.copy != nil || lg.move != nil {
			c.logistics[mainType.Fingerprint] = lg
		}
	}

	return parent
}

// AddNew adds a freshly zero-constructed component of type T.
func AddNew[T any, P Composer](parent P, facilities ...Facilities[T]) P {
	return Add(parent, new(T), facilities...)
}

// Alias registers A, and its declared bases, as an alias of the most
// recently added component:
//
//	compose.Add(inv, &Ledger{})
//	compose.Alias[Auditable](inv)
//
// Calling Alias without a component added before panics.
func Alias[A any, P Composer](parent P) P {
	parent.composable().AddAliases(TypeOf[A]())
	return parent
}

// Components returns a lazy view over every component retrievable as T, the
// exact match first, alias matches after in unspecified order. T selects the
// view the same way it does for FromBox.
func Components[T any](from Composer) iter.Seq[T] {
	c := from.composable()
	fp := TypeOf[T]().Fingerprint

	return func(yield func(T) bool) {
		for box := range c.ComponentsDynamic(fp) {
			// a failed cast here means the alias graph promised more than the
			// box can deliver, skip it
			if value, ok := FromBox[T](box); ok {
				if !yield(value) {
					return
				}
			}
		}
	}
}

// TryGet returns the first component retrievable as T. Absence is an
// ordinary outcome, not an error.
func TryGet[T any](from Composer) (T, bool) {
	for value := range Components[T](from) {
		return value, true
	}

	var zero T
	return zero, false
}

// Get returns the first component retrievable as T. A missing component is a
// contract violation and panics with the type name, use TryGet when absence
// is a legal outcome.
func Get[T any](from Composer) T {
	value, ok := TryGet[T](from)
	assert.That(ok, "no component is retrievable as %s", TypeOf[T]())
	return value
}

// CopyInto copies every component of src into dst, the Go rendition of
// copy-constructing a composable owner. Every box is copy-constructed, so
// dst ends up with independent values at new addresses. The alias graph and
// the added-component hook carry over. CopyAware components of dst are
// notified with (dst, source component).
//
// dst must be freshly constructed and empty, and copying a composable
// holding a non-copyable component panics.
func CopyInto[P Composer](dst, src P) P {
	target, source := dst.composable(), src.composable()
	assert.That(target != source, "a composable cannot be copied into itself")
	assert.That(target.NumComponents() == 0,
		"the destination of CopyInto must be empty, it has %d components", target.NumComponents())

	target.ensureMaps()

	for fp, box := range source.components {
		target.components[fp] = box.Copy()
	}

	for alias, bucket := range source.aliases {
		target.aliases[alias] = slices.Clone(bucket)
	}

	for fp, lg := range source.logistics {
		target.logistics[fp] = lg
	}

	target.lastAdded = source.lastAdded
	target.OnComponentAdded = source.OnComponentAdded

	for fp, lg := range target.logistics {
		if lg.copy != nil {
			lg.copy(dst, target.components[fp], source.components[fp])
		}
	}

	return dst
}

// MoveInto transfers every component of src into dst wholesale. Component
// values are not reconstructed, their addresses are stable across the move.
// src is left empty but valid and may be reused. MoveAware components are
// notified with the new owner. Moving a composable into itself is a no-op.
//
// dst must be freshly constructed and empty.
func MoveInto[P Composer](dst, src P) P {
	target, source := dst.composable(), src.composable()
	if target == source {
		return dst
	}

	assert.That(target.NumComponents() == 0,
		"the destination of MoveInto must be empty, it has %d components", target.NumComponents())

	target.components = source.components
	target.aliases = source.aliases
	target.logistics = source.logistics
	target.lastAdded = source.lastAdded
	target.OnComponentAdded = source.OnComponentAdded

	source.components = nil
	source.aliases = nil
	source.logistics = nil
	source.lastAdded = 0

	for fp, lg := range target.logistics {
		if lg.move != nil {
			lg.move(dst, target.components[fp])
		}
	}

	return dst
}
