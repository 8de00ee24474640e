package ordkv

import (
	"ordkv/internal/base"
)

type cursorState int

const (
	cursorNil cursorState = iota
	cursorCoupled
	cursorUncoupled
)

// Cursor is a position within a BTree's leaf-level key sequence. It
// survives structural mutation by uncoupling: capturing its key bytes
// before the page it references is altered, then re-coupling against a
// fresh descent on its next move (spec §4.5). Each page a cursor is
// coupled to holds a weak reference to it in BTree.cursors, used only to
// notify the cursor it must uncouple; the cursor holds no reference back
// to the page once uncoupled.
type Cursor struct {
	tree  *BTree
	state cursorState

	pageID base.PageID
	slot   int

	key []byte // materialized when uncoupled
}

// newCursor returns a nil cursor bound to tree.
func newCursor(tree *BTree) *Cursor {
	return &Cursor{tree: tree, state: cursorNil}
}

// couple points the cursor at a live page slot.
func (c *Cursor) couple(pageID base.PageID, slot int) {
	if c.state == cursorCoupled {
		c.tree.unregisterCursor(c.pageID, c)
		c.tree.pager.Unpin(c.pageID)
	}
	c.state = cursorCoupled
	c.pageID = pageID
	c.slot = slot
	c.key = nil
	c.tree.pager.Pin(pageID)
	c.tree.registerCursor(pageID, c)
}

// uncoupleAt materializes the cursor's current key, called by the tree
// before a shift or split makes slot on pageID stale.
func (c *Cursor) uncoupleAt(n *base.Node) error {
	if c.state != cursorCoupled {
		return nil
	}
	if c.slot < 0 || c.slot >= int(n.NumKeys) {
		c.detach()
		c.state = cursorNil
		return nil
	}
	key, err := c.tree.fullKey(n, c.slot)
	if err != nil {
		return err
	}
	c.key = append([]byte(nil), key...)
	c.detach()
	c.state = cursorUncoupled
	return nil
}

// detach removes the cursor from its page's registry and releases its pin,
// without changing c.state.
func (c *Cursor) detach() {
	c.tree.unregisterCursor(c.pageID, c)
	c.tree.pager.Unpin(c.pageID)
}

// CurrentKey returns the key the cursor is positioned on. Returns
// ErrCursorNil if the cursor holds no position.
func (c *Cursor) CurrentKey() ([]byte, error) {
	switch c.state {
	case cursorNil:
		return nil, ErrCursorNil
	case cursorUncoupled:
		return append([]byte(nil), c.key...), nil
	default:
		n, err := c.tree.pager.Fetch(c.pageID)
		if err != nil {
			return nil, err
		}
		if c.slot < 0 || c.slot >= int(n.NumKeys) {
			c.state = cursorNil
			return nil, ErrCursorNil
		}
		return c.tree.fullKey(n, c.slot)
	}
}

// CurrentValue returns the record stored at the cursor's position. Returns
// ErrCursorNil if the cursor holds no position.
func (c *Cursor) CurrentValue() ([]byte, error) {
	switch c.state {
	case cursorNil:
		return nil, ErrCursorNil
	case cursorUncoupled:
		if err := c.recouple(); err != nil {
			return nil, err
		}
		if c.state == cursorNil {
			return nil, ErrCursorNil
		}
		fallthrough
	default:
		n, err := c.tree.pager.Fetch(c.pageID)
		if err != nil {
			return nil, err
		}
		if c.slot < 0 || c.slot >= int(n.NumKeys) {
			c.state = cursorNil
			return nil, ErrCursorNil
		}
		return append([]byte(nil), c.tree.valueAt(n, c.slot)...), nil
	}
}

// Close releases the cursor's pin, if any, and marks it nil.
func (c *Cursor) Close() {
	if c.state == cursorCoupled {
		c.detach()
	}
	c.state = cursorNil
}

// recouple finds the cursor's materialized key afresh and re-couples to
// its slot, or goes nil if the key no longer exists.
func (c *Cursor) recouple() error {
	pageID, slot, cmp, err := c.tree.descendToLeaf(c.key)
	if err != nil {
		return err
	}
	if cmp != 0 {
		c.state = cursorNil
		return nil
	}
	c.couple(pageID, slot)
	return nil
}

// MoveNext advances the cursor to the next key in ascending order.
func (c *Cursor) MoveNext() (base.Status, error) {
	if c.state == cursorNil {
		return base.CursorIsNil, ErrCursorNil
	}
	if c.state == cursorUncoupled {
		if err := c.recouple(); err != nil {
			return base.InternalError, err
		}
		if c.state == cursorNil {
			return base.KeyNotFound, ErrKeyNotFound
		}
	}

	n, err := c.tree.pager.Fetch(c.pageID)
	if err != nil {
		return base.InternalError, err
	}
	if c.slot+1 < int(n.NumKeys) {
		c.slot++
		return base.OK, nil
	}
	if n.Right == 0 {
		c.Close()
		return base.KeyNotFound, ErrKeyNotFound
	}
	right, err := c.tree.pager.Fetch(n.Right)
	if err != nil {
		return base.InternalError, err
	}
	if right.NumKeys == 0 {
		c.couple(n.Right, 0)
		c.Close()
		return base.KeyNotFound, ErrKeyNotFound
	}
	c.couple(n.Right, 0)
	return base.OK, nil
}
