package dirtree

import (
	"sort"
	"strings"

	"github.com/dirtree/go-dirtree/cleanlock"
)

// node is a single folder. The children map is the folder's only
// content; the parent owns its children exclusively and no child
// refers back to its parent.
//
// The map is read only while the node is held in at least read
// mode, and mutated only while the node is held in write mode.
type node struct {
	lock     *cleanlock.Lock
	children map[string]*node
}

func newNode() *node {
	return &node{
		lock:     cleanlock.New(),
		children: make(map[string]*node),
	}
}

// adopt wraps an existing children map in a fresh node with a fresh
// lock. Used by Move: the transplanted subtree keeps its contents
// but the wrapper must not share lock state with the old location.
func adopt(children map[string]*node) *node {
	return &node{
		lock:     cleanlock.New(),
		children: children,
	}
}

func (n *node) sortedNames() []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// render produces the comma-separated child listing. Caller must
// hold the node in at least read mode.
func (n *node) render() string {
	return strings.Join(n.sortedNames(), ",")
}

// quiesce clean-acquires the lock of every node in the subtree
// rooted at n. Caller must hold an ancestor of n in write mode, so
// no new traversal can enter while the subtree drains.
func (n *node) quiesce() {
	n.lock.CleanLock()
	for _, child := range n.children {
		child.quiesce()
	}
}
