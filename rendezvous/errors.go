package rendezvous

import "errors"

var (
	// ErrCapacity is returned when more actors are supplied than one queue
	// word can name.
	ErrCapacity = errors.New("rendezvous: too many actors")

	// ErrNoActors is returned for an empty actor list.
	ErrNoActors = errors.New("rendezvous: no actors")

	// ErrBudget is returned for a zero meeting limit.
	ErrBudget = errors.New("rendezvous: meeting limit must be positive")

	// ErrColor is returned when a seed color is not blue, red or yellow.
	ErrColor = errors.New("rendezvous: invalid seed color")

	// ErrInvariant reports a protocol violation caught inside a worker. The
	// run is stopped before it is returned and its counts are not trustworthy.
	ErrInvariant = errors.New("rendezvous: protocol invariant violated")
)
