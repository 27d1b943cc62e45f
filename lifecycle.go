package compose

// AttachAware components are notified right after they are added to a
// composable owner. P is the concrete owner type the component expects, e.g.
// *Inventory. The notification is silently skipped when the component is
// added to any other owner type.
//
// The parent reference is only valid for the duration of the call, do not
// retain it.
type AttachAware[P any] interface {
	OnAttached(parent P)
}

// CopyAware components are additionally notified after their owner was
// copied with CopyInto. The method is invoked on the fresh copy, with the
// destination owner and the component it was copied from. Requires the
// component to also implement AttachAware for the same owner type.
//
// The parent reference is only valid for the duration of the call, do not
// retain it.
type CopyAware[P any, S any] interface {
	OnCopied(parent P, from *S)
}

// MoveAware components are additionally notified after their owner was moved
// with MoveInto. Components are never reconstructed on a move, only their
// ownership transfers, so there is no source argument. Requires the
// component to also implement AttachAware for the same owner type.
//
// The parent reference is only valid for the duration of the call, do not
// retain it.
type MoveAware[P any] interface {
	OnMoved(parent P)
}
