package mindmap

import (
	"errors"
	"fmt"

	mgerrors "github.com/matzehuels/mindgraph/pkg/errors"
)

var (
	// ErrDeferred is returned by [Model.Update] when it is called from inside
	// an observer callback. The update is queued and runs after the current
	// notification has been delivered to every observer.
	ErrDeferred = errors.New("update deferred until current notification completes")

	// ErrDuplicateKey is returned when a node key is already in use.
	ErrDuplicateKey = errors.New("duplicate node key")

	// ErrInvalidKey is returned for the reserved zero key.
	ErrInvalidKey = errors.New("node key must not be zero")

	// ErrUnknownNode is returned when a referenced node does not exist.
	ErrUnknownNode = errors.New("unknown node")

	// ErrCycle is returned when parent references form a cycle.
	ErrCycle = errors.New("parent references contain a cycle")

	// ErrMissingLink is returned when a transaction adds a child node to a
	// tree without adding the link that connects it to its parent.
	ErrMissingLink = errors.New("child node added without its link")

	// ErrLinkMismatch is returned when a tree link disagrees with the child's
	// parent reference.
	ErrLinkMismatch = errors.New("link does not match child's parent")

	// ErrMixedDirection is returned when a node below a child of the root
	// names a different side than the branch it belongs to.
	ErrMixedDirection = errors.New("direction differs from its branch")
)

// NoRootError is returned when an operation needs exactly one root and the
// model has none or several.
type NoRootError struct {
	Roots []Key // Keys of every parentless node found
}

func (e *NoRootError) Error() string {
	if len(e.Roots) == 0 {
		return "no root: graph has no parentless node"
	}
	return fmt.Sprintf("no root: graph has %d parentless nodes %v, want exactly 1", len(e.Roots), e.Roots)
}

// Code returns the error code for this error type.
func (e *NoRootError) Code() mgerrors.Code { return mgerrors.ErrCodeNoRoot }

// UnknownParentError is returned when an insertion targets a node that does
// not exist.
type UnknownParentError struct {
	Key Key
}

func (e *UnknownParentError) Error() string {
	return fmt.Sprintf("unknown parent: no node with key %d", e.Key)
}

// Code returns the error code for this error type.
func (e *UnknownParentError) Code() mgerrors.Code { return mgerrors.ErrCodeUnknownParent }

func invalidGraph(cause error, format string, args ...any) error {
	return mgerrors.Wrap(mgerrors.ErrCodeInvalidGraph, cause, format, args...)
}
