package pipeline

import (
	"github.com/pkg/errors"

	"github.com/ironsheep/pixelator-mcp/internal/imaging"
)

// Context holds the results of one pipeline invocation keyed by step id,
// plus the source under OriginalKey. It only grows: entries are never
// replaced or removed.
type Context struct {
	order  []string
	images map[string]*imaging.Raster
}

func newContext(original *imaging.Raster) *Context {
	c := &Context{images: make(map[string]*imaging.Raster)}
	c.order = append(c.order, OriginalKey)
	c.images[OriginalKey] = original
	return c
}

// Get returns the result stored under id.
func (c *Context) Get(id string) (*imaging.Raster, bool) {
	r, ok := c.images[id]
	return r, ok
}

// Keys returns the stored ids in insertion order.
func (c *Context) Keys() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len is the number of stored results including the original.
func (c *Context) Len() int {
	return len(c.order)
}

func (c *Context) put(id string, r *imaging.Raster) error {
	if _, exists := c.images[id]; exists {
		return errors.Wrapf(ErrDuplicateStep, "%q", id)
	}
	c.order = append(c.order, id)
	c.images[id] = r
	return nil
}
