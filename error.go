package dirtree

import "errors"

var (
	// ErrInvalid reports a syntactically ill-formed path.
	ErrInvalid = errors.New("invalid path")

	// ErrNotFound reports a missing folder along a traversal,
	// or a missing move source.
	ErrNotFound = errors.New("folder not found")

	// ErrExists reports a create on an existing folder, a move
	// whose target is already present, or a move onto the root.
	ErrExists = errors.New("folder already exists")

	// ErrNotEmpty reports a remove on a folder that still has
	// children.
	ErrNotEmpty = errors.New("folder not empty")

	// ErrBusy reports a remove of the root, or a move whose
	// source is the root.
	ErrBusy = errors.New("folder busy")

	// ErrLoop reports a move whose target lies strictly inside
	// the moved subtree.
	ErrLoop = errors.New("target inside source")
)
