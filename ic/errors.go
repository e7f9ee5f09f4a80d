package ic

import "errors"

var (
	// ErrUnspecializable marks a shape/access pair no fast handler can serve.
	// The site moves to Generic.
	ErrUnspecializable = errors.New("ic: unspecializable access")

	// ErrCapacityExceeded marks a polymorphic list that cannot take another
	// shape. The site moves to Megamorphic.
	ErrCapacityExceeded = errors.New("ic: polymorphic capacity exceeded")

	// ErrHandlerStale marks a cached handler whose assumptions no longer hold.
	ErrHandlerStale = errors.New("ic: handler stale")

	// ErrInvalidDescriptor is the panic value of internal-consistency checks:
	// malformed flags, unsupported store modes, mixed language modes.
	ErrInvalidDescriptor = errors.New("ic: invalid access descriptor")
)

// Trace reasons for transitions that are not failures.
var (
	errHandlerUnchanged = errors.New("handler unchanged")
	errNameMismatch     = errors.New("name mismatch")
	errMixedKeys        = errors.New("mixed element and name keys")
	errStoreMode        = errors.New("store mode mismatch")
	errMixedExternal    = errors.New("unsupported combination of external and normal arrays")
)
