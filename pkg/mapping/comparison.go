// Package mapping lines up original, client and server versions of the same
// logical entities and derives what changed on each side.
package mapping

import (
	"fmt"

	"github.com/sdejongh/drivesync/pkg/models"
)

// ThreeWayComparison holds the original, client and server versions of one
// logical entity. Any of the three may be absent.
type ThreeWayComparison[T models.Version] struct {
	original    T
	client      T
	server      T
	hasOriginal bool
	hasClient   bool
	hasServer   bool
}

// NewThreeWayComparison creates an empty comparison
func NewThreeWayComparison[T models.Version]() *ThreeWayComparison[T] {
	return &ThreeWayComparison[T]{}
}

// Original returns the version recorded at the last successful sync
func (c *ThreeWayComparison[T]) Original() (T, bool) {
	return c.original, c.hasOriginal
}

// Client returns the version currently reported by the client
func (c *ThreeWayComparison[T]) Client() (T, bool) {
	return c.client, c.hasClient
}

// Server returns the version currently found on the server
func (c *ThreeWayComparison[T]) Server() (T, bool) {
	return c.server, c.hasServer
}

// SetOriginal sets the original version
func (c *ThreeWayComparison[T]) SetOriginal(v T) {
	c.original, c.hasOriginal = v, true
}

// SetClient sets the client version
func (c *ThreeWayComparison[T]) SetClient(v T) {
	c.client, c.hasClient = v, true
}

// SetServer sets the server version
func (c *ThreeWayComparison[T]) SetServer(v T) {
	c.server, c.hasServer = v, true
}

// ClientChange classifies the client version against the original one
func (c *ThreeWayComparison[T]) ClientChange() (models.Change, error) {
	return models.GetChange(slot(c.original, c.hasOriginal), slot(c.client, c.hasClient))
}

// ServerChange classifies the server version against the original one
func (c *ThreeWayComparison[T]) ServerChange() (models.Change, error) {
	return models.GetChange(slot(c.original, c.hasOriginal), slot(c.server, c.hasServer))
}

// IsConflicting reports whether both sides changed the entity in ways that
// do not lead to the same result. Deleting on both sides, or applying the
// identical modification on both sides, is not a conflict.
func (c *ThreeWayComparison[T]) IsConflicting() (bool, error) {
	clientChange, err := c.ClientChange()
	if err != nil {
		return false, err
	}
	serverChange, err := c.ServerChange()
	if err != nil {
		return false, err
	}
	if !clientChange.IsChanged() || !serverChange.IsChanged() {
		return false, nil
	}
	if !c.hasClient && !c.hasServer {
		return false, nil
	}
	if c.hasClient != c.hasServer {
		return true, nil
	}

	equal, err := models.Equivalent(c.client, c.server)
	if err != nil {
		return false, err
	}
	return !equal, nil
}

func (c *ThreeWayComparison[T]) String() string {
	return fmt.Sprintf("original: %s, client: %s, server: %s",
		models.Describe(slot(c.original, c.hasOriginal)),
		models.Describe(slot(c.client, c.hasClient)),
		models.Describe(slot(c.server, c.hasServer)))
}

// slot converts an optional slot into a version, nil when absent
func slot[T models.Version](v T, ok bool) models.Version {
	if !ok {
		return nil
	}
	return v
}
