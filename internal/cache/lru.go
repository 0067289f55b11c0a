package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/scmmishra/linklog/internal/models"
)

// LinkCache keeps recently resolved links by code. Links never change after
// creation, so entries are only ever evicted, never invalidated.
type LinkCache struct {
	c *lru.Cache[string, *models.Link]
}

func New(size int) (*LinkCache, error) {
	c, err := lru.New[string, *models.Link](size)
	if err != nil {
		return nil, err
	}
	return &LinkCache{c: c}, nil
}

func (lc *LinkCache) Get(code string) (*models.Link, bool) {
	return lc.c.Get(code)
}

func (lc *LinkCache) Set(code string, link *models.Link) {
	lc.c.Add(code, link)
}

func (lc *LinkCache) Len() int {
	return lc.c.Len()
}
