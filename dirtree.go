// Package dirtree implements a concurrent, in-memory hierarchical
// folder tree. Folders are created, removed, listed and moved by
// any number of goroutines at once; every node carries its own
// three-mode lock (see the cleanlock package) and operations take
// those locks hand-over-hand along their traversal path.
package dirtree

import (
	"strings"

	"github.com/dirtree/go-dirtree/log"
)

// Tree is a folder hierarchy rooted at a single unnamed folder.
// All methods are safe for concurrent use by multiple goroutines,
// except Free.
type Tree struct {
	root *node
	log  log.Log
}

// Option configures a Tree.
type Option func(*Tree)

// WithLogger sets the logger the tree reports operations to.
// The default is log.NoLog.
func WithLogger(l log.Log) Option {
	return func(t *Tree) {
		t.log = l
	}
}

// New returns an empty tree containing only the root folder.
func New(opts ...Option) *Tree {
	t := &Tree{
		root: newNode(),
		log:  log.NoLog{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Free releases the whole tree. The caller must guarantee that no
// other goroutine is using the tree; the tree is unusable after.
func (t *Tree) Free() {
	freeSubtree(t.root)
	t.root = nil
}

func freeSubtree(n *node) {
	for _, child := range n.children {
		freeSubtree(child)
	}
	n.children = nil
	n.lock = nil
}

// traceOp reports the start of an operation to the logger and
// returns the closure that reports its outcome. The closure passes
// the operation's error through, so call sites stay one-liners.
func (t *Tree) traceOp(name string, args log.M) func(rets log.M, err error) error {
	if !t.log.Enabled(log.AllTopics) {
		return func(rets log.M, err error) error {
			return err
		}
	}
	traceCalls := t.log.Enabled(log.TopicOp)
	var cookie string
	if traceCalls {
		cookie = t.log.Op(name, args)
	}
	return func(rets log.M, err error) error {
		if err != nil {
			t.log.Logf(log.TopicError, "%s: %v", name, err)
		}
		if !traceCalls {
			return err
		}
		if rets == nil {
			rets = log.M{}
		}
		rets["err"] = err
		t.log.Done(name, cookie, rets)
		return err
	}
}

// readDescend walks from start down to the folder at p, taking read
// locks hand-over-hand: the child is acquired before the current
// node is released, never the other way around. On success the
// target is returned with its read lock held; on a missing
// component everything is released and nil is returned.
func readDescend(start *node, p string) *node {
	cur := start
	cur.lock.RLock()
	for p != "" && !isRoot(p) {
		var comp string
		comp, p = splitPath(p)
		child := cur.children[comp]
		if child == nil {
			cur.lock.RUnlock()
			return nil
		}
		child.lock.RLock()
		cur.lock.RUnlock()
		cur = child
	}
	return cur
}

// findParentWrite locates the parent folder of p and returns it
// write-locked, along with the last component of p. The descent
// runs in read mode down to the grandparent, looks the parent up
// and upgrades: the write acquisition on the parent comes before
// the grandparent's read release, like every other hand-over-hand
// step, so the parent cannot be unlinked in between. Returns nil
// if a component is missing.
func (t *Tree) findParentWrite(p string) (*node, string) {
	parent, name := parentPath(p)
	if isRoot(parent) {
		t.root.lock.WLock()
		return t.root, name
	}
	gpPath, parentName := parentPath(parent)
	gp := readDescend(t.root, gpPath)
	if gp == nil {
		return nil, ""
	}
	par := gp.children[parentName]
	if par == nil {
		gp.lock.RUnlock()
		return nil, ""
	}
	par.lock.WLock()
	gp.lock.RUnlock()
	return par, name
}

// List returns the comma-separated names of the children of the
// folder at p, in lexicographic order.
func (t *Tree) List(p string) (string, error) {
	done := t.traceOp("list", log.M{"path": p})
	if !validPath(p) {
		return "", done(nil, ErrInvalid)
	}
	target := readDescend(t.root, p)
	if target == nil {
		return "", done(nil, ErrNotFound)
	}
	listing := target.render()
	target.lock.RUnlock()
	return listing, done(log.M{"listing": listing}, nil)
}

// Create makes a new empty folder at p. The parent must exist.
func (t *Tree) Create(p string) error {
	done := t.traceOp("create", log.M{"path": p})
	if !validPath(p) {
		return done(nil, ErrInvalid)
	}
	if isRoot(p) {
		return done(nil, ErrExists)
	}
	parent, name := t.findParentWrite(p)
	if parent == nil {
		return done(nil, ErrNotFound)
	}
	if parent.children[name] != nil {
		parent.lock.WUnlock()
		return done(nil, ErrExists)
	}
	parent.children[name] = newNode()
	parent.lock.WUnlock()
	return done(nil, nil)
}

// Remove deletes the empty folder at p.
func (t *Tree) Remove(p string) error {
	done := t.traceOp("remove", log.M{"path": p})
	if !validPath(p) {
		return done(nil, ErrInvalid)
	}
	if isRoot(p) {
		return done(nil, ErrBusy)
	}
	parent, name := t.findParentWrite(p)
	if parent == nil {
		return done(nil, ErrNotFound)
	}
	child := parent.children[name]
	if child == nil {
		parent.lock.WUnlock()
		return done(nil, ErrNotFound)
	}
	// The parent write lock stops new traversals above the child;
	// clean waits out everyone already inside it.
	child.lock.CleanLock()
	if len(child.children) > 0 {
		parent.lock.WUnlock()
		return done(nil, ErrNotEmpty)
	}
	delete(parent.children, name)
	parent.lock.WUnlock()
	return done(nil, nil)
}

// Snapshot renders the whole tree as a single string: children in
// lexicographic order, each non-empty folder followed by its own
// rendering in parentheses. The walk keeps read locks on the path
// from the root down to the folder it is currently rendering, so
// Snapshot can run concurrently with other operations; like any
// read it reflects some consistent interleaving, not a frozen
// instant.
func (t *Tree) Snapshot() string {
	return snapshotSubtree(t.root)
}

func snapshotSubtree(n *node) string {
	n.lock.RLock()
	defer n.lock.RUnlock()
	var sb strings.Builder
	for i, name := range n.sortedNames() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(name)
		if inner := snapshotSubtree(n.children[name]); inner != "" {
			sb.WriteByte('(')
			sb.WriteString(inner)
			sb.WriteByte(')')
		}
	}
	return sb.String()
}
