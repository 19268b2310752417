package sensi

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEntity indicates a branch, bus or interface key that was
	// never registered with the engine's Network. Caller programming error;
	// the engine stays usable for other keys.
	ErrUnknownEntity = errors.New("sensi: unknown entity")

	// ErrUnknownContingency indicates a contingency name that was not
	// registered at construction.
	ErrUnknownContingency = errors.New("sensi: unknown contingency")

	// ErrNoReactive indicates a reactive or voltage query against an engine
	// built without Options.Reactive.
	ErrNoReactive = errors.New("sensi: engine built without reactive capability")

	// ErrIslandingContingency indicates a registered single-branch outage
	// that disconnects the network, so no post-contingency correction
	// exists. Raised at construction; fatal.
	ErrIslandingContingency = errors.New("sensi: contingency islands the network")

	// ErrDimension indicates a caller-supplied vector whose length does not
	// match the engine's index maps.
	ErrDimension = errors.New("sensi: vector length mismatch")
)

// unknownEntity wraps ErrUnknownEntity with the entity class and name.
func unknownEntity(kind, name string) error {
	return fmt.Errorf("%w: %s %q", ErrUnknownEntity, kind, name)
}
