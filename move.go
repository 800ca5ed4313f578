package dirtree

import "github.com/dirtree/go-dirtree/log"

// Move relocates the folder at source, together with its whole
// subtree, to target. The operation is atomic with respect to every
// concurrent reader and writer of both endpoints.
//
// The lock protocol, top to bottom:
//
//  1. Take the lowest common ancestor of the two parent folders in
//     write mode. Every conflicting move inside the enclosed
//     subtree must take the same write lock first, so moves whose
//     scopes overlap serialize here and can never deadlock.
//  2. Descend from the LCA to the target parent and to the source
//     parent with hand-over-hand read locks, finishing with a
//     write acquisition on each parent (reusing the LCA write lock
//     when a parent is the LCA itself).
//  3. Quiesce the moved subtree: clean-acquire every node under the
//     source. The parent write locks stop new traversals from
//     entering, and clean waits out everyone already inside.
//  4. Relink: wrap the source's children map in a fresh node under
//     the target parent, unlink the source name, and release in
//     reverse order.
func (t *Tree) Move(source, target string) error {
	done := t.traceOp("move", log.M{"source": source, "target": target})
	if !validPath(source) || !validPath(target) {
		return done(nil, ErrInvalid)
	}
	if isRoot(source) {
		return done(nil, ErrBusy)
	}
	if isRoot(target) {
		return done(nil, ErrExists)
	}
	if source == target {
		return done(nil, nil)
	}
	if isSubfolder(source, target) {
		return done(nil, ErrLoop)
	}

	srcParentPath, srcName := parentPath(source)
	tgtParentPath, tgtName := parentPath(target)
	lcaPath := commonAncestor(srcParentPath, tgtParentPath)

	lca := t.writeLCA(lcaPath)
	if lca == nil {
		return done(nil, ErrNotFound)
	}
	t.log.Logf(log.TopicLock, "move: write-held lca %q", lcaPath)

	tgtParent, tgtAtLCA := descendToParent(lca, lcaPath, tgtParentPath)
	if tgtParent == nil {
		lca.lock.WUnlock()
		return done(nil, ErrNotFound)
	}
	if tgtParent.children[tgtName] != nil {
		if !tgtAtLCA {
			tgtParent.lock.WUnlock()
		}
		lca.lock.WUnlock()
		return done(nil, ErrExists)
	}

	srcParent, srcAtLCA := descendToParent(lca, lcaPath, srcParentPath)
	if srcParent == nil {
		if !tgtAtLCA {
			tgtParent.lock.WUnlock()
		}
		lca.lock.WUnlock()
		return done(nil, ErrNotFound)
	}
	src := srcParent.children[srcName]
	if src == nil {
		if !srcAtLCA {
			srcParent.lock.WUnlock()
		}
		if !tgtAtLCA {
			tgtParent.lock.WUnlock()
		}
		lca.lock.WUnlock()
		return done(nil, ErrNotFound)
	}

	t.log.Logf(log.TopicLock, "move: quiescing subtree at %q", source)
	src.quiesce()

	// The transplanted subtree keeps its contents but gets a fresh
	// wrapper: clean acquisition left the old lock without waiters,
	// and the new location must not share lock state with it.
	tgtParent.children[tgtName] = adopt(src.children)
	delete(srcParent.children, srcName)

	if !srcAtLCA {
		srcParent.lock.WUnlock()
	}
	if !tgtAtLCA {
		tgtParent.lock.WUnlock()
	}
	lca.lock.WUnlock()
	return done(nil, nil)
}

// writeLCA takes the folder at lcaPath in write mode, descending in
// read mode down to its parent first. The parent's read lock is
// released only after the write acquisition, so the LCA cannot be
// unlinked in between.
func (t *Tree) writeLCA(lcaPath string) *node {
	if isRoot(lcaPath) {
		t.root.lock.WLock()
		return t.root
	}
	gpPath, lcaName := parentPath(lcaPath)
	gp := readDescend(t.root, gpPath)
	if gp == nil {
		return nil
	}
	lca := gp.children[lcaName]
	if lca == nil {
		gp.lock.RUnlock()
		return nil
	}
	lca.lock.WLock()
	gp.lock.RUnlock()
	return lca
}

// descendToParent walks from the write-held LCA down to the parent
// folder at parentAt, read-locking intermediate nodes hand-over-hand and
// finishing with a write acquisition on the parent itself. The LCA
// lock is never touched. Reports whether the parent is the LCA, in
// which case no second lock is taken. Returns nil with everything
// it acquired released when a component is missing.
func descendToParent(lca *node, lcaPath, parentAt string) (parent *node, atLCA bool) {
	rel := pathBetween(lcaPath, parentAt)
	if isRoot(rel) {
		return lca, true
	}

	comp, rest := splitPath(rel)
	child := lca.children[comp]
	if child == nil {
		return nil, false
	}
	if rest == "" {
		child.lock.WLock()
		return child, false
	}
	child.lock.RLock()

	cur := child
	for {
		comp, rest = splitPath(rest)
		next := cur.children[comp]
		if next == nil {
			cur.lock.RUnlock()
			return nil, false
		}
		if rest == "" {
			next.lock.WLock()
			cur.lock.RUnlock()
			return next, false
		}
		next.lock.RLock()
		cur.lock.RUnlock()
		cur = next
	}
}
