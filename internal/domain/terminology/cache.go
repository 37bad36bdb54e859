package terminology

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// conceptCache keeps recently read concepts by id plus a name index. A nil
// cache is valid and caches nothing.
type conceptCache struct {
	byID   *lru.Cache[int64, Concept]
	byName *lru.Cache[string, int64]
}

func newConceptCache(size int) (*conceptCache, error) {
	if size <= 0 {
		return nil, nil
	}
	byID, err := lru.New[int64, Concept](size)
	if err != nil {
		return nil, err
	}
	byName, err := lru.New[string, int64](size)
	if err != nil {
		return nil, err
	}
	return &conceptCache{byID: byID, byName: byName}, nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c *conceptCache) get(id int64) (*Concept, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.byID.Get(id)
	if !ok {
		return nil, false
	}
	return &v, true
}

func (c *conceptCache) getByName(name string) (*Concept, bool) {
	if c == nil {
		return nil, false
	}
	id, ok := c.byName.Get(nameKey(name))
	if !ok {
		return nil, false
	}
	return c.get(id)
}

func (c *conceptCache) put(concept *Concept) {
	if c == nil || concept == nil {
		return
	}
	c.byID.Add(concept.ID, *concept)
	c.byName.Add(nameKey(concept.Name), concept.ID)
}

func (c *conceptCache) invalidate(id int64) {
	if c == nil {
		return
	}
	if v, ok := c.byID.Peek(id); ok {
		c.byName.Remove(nameKey(v.Name))
	}
	c.byID.Remove(id)
}

func (c *conceptCache) purge() {
	if c == nil {
		return
	}
	c.byID.Purge()
	c.byName.Purge()
}
