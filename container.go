// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package tibiarc

import "fmt"

// MaxContainerObjects bounds how many resident objects a single container
// page tracks at once.
const MaxContainerObjects = 32

// ErrContainerFull is returned when a container insert would exceed
// MaxContainerObjects.
var ErrContainerFull = fmt.Errorf("tibiarc: container is full")

// Container is a server-assigned inventory view: a backpack, depot,
// market window, and so on.
type Container struct {
	Id   uint32
	ItemId uint16
	Name string // truncated to 64 bytes on assignment, see SetName

	Mark      uint8
	Animation uint8

	SlotsPerPage int
	HasParent    bool
	DragAndDrop  bool
	Pagination   bool

	StartIndex   int
	TotalObjects int

	Objects []Object
}

// SetName assigns a container's display name, truncating to the protocol's
// 64-byte limit.
func (c *Container) SetName(name string) {
	if len(name) > 64 {
		name = name[:64]
	}
	c.Name = name
}

// AddObject appends an object to the container's resident list.
func (c *Container) AddObject(object Object) error {
	if len(c.Objects) >= MaxContainerObjects {
		return ErrContainerFull
	}
	c.Objects = append(c.Objects, object)
	return nil
}

// RemoveObject drops the object at the given resident index.
func (c *Container) RemoveObject(index int) error {
	if index < 0 || index >= len(c.Objects) {
		return fmt.Errorf("tibiarc: container object index out of range")
	}
	c.Objects = append(c.Objects[:index], c.Objects[index+1:]...)
	return nil
}

// ContainerList is the set of containers a player currently has open,
// keyed by server-assigned id. Entries are insertion-ordered so that a UI
// can iterate them stably; reordering containers by access is deliberately
// not implemented, matching the deferred reordering noted against the
// original container list.
type ContainerList struct {
	order []uint32
	byId  map[uint32]*Container
}

// NewContainerList returns an empty container list.
func NewContainerList() *ContainerList {
	return &ContainerList{byId: make(map[uint32]*Container)}
}

// Open registers a container as open, replacing any prior container at the
// same id without disturbing its position in iteration order.
func (l *ContainerList) Open(c *Container) {
	if l.byId == nil {
		l.byId = make(map[uint32]*Container)
	}
	if _, exists := l.byId[c.Id]; !exists {
		l.order = append(l.order, c.Id)
	}
	l.byId[c.Id] = c
}

// Get returns the container with the given id, if it is open.
func (l *ContainerList) Get(id uint32) (*Container, bool) {
	c, ok := l.byId[id]
	return c, ok
}

// Close removes a container from the list. Closing an id that isn't open
// is a no-op, making Close idempotent.
func (l *ContainerList) Close(id uint32) {
	if _, ok := l.byId[id]; !ok {
		return
	}
	delete(l.byId, id)
	for i, existing := range l.order {
		if existing == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// All iterates the open containers in the order they were first opened.
func (l *ContainerList) All() []*Container {
	out := make([]*Container, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.byId[id])
	}
	return out
}

// Reset closes every open container.
func (l *ContainerList) Reset() {
	l.order = nil
	l.byId = make(map[uint32]*Container)
}
