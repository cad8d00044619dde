package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/google/btree"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
)

// IndexEntry is one in-stock product as seen by the scanner
type IndexEntry struct {
	Sku  string `json:"sku"`
	ID   int64  `json:"id,string"`
	Name string `json:"name"`
}

func lessEntry(a, b IndexEntry) bool {
	return a.Sku < b.Sku
}

// Index keeps in-stock SKUs ordered for exact and prefix lookups
type Index struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[IndexEntry]
}

func NewIndex() *Index {
	return &Index{tree: btree.NewG[IndexEntry](16, lessEntry)}
}

// Rebuild replaces the index with every product currently in stock
func (x *Index) Rebuild(ctx context.Context, db *gorm.DB) error {
	var rows []domain.Product
	if err := db.WithContext(ctx).Select("id", "sku", "name").Find(&rows).Error; err != nil {
		return errors.Wrap(err, "load products for index")
	}
	tree := btree.NewG[IndexEntry](16, lessEntry)
	for _, p := range rows {
		tree.ReplaceOrInsert(IndexEntry{Sku: strings.ToUpper(p.Sku), ID: p.ID, Name: p.Name})
	}
	x.mu.Lock()
	x.tree = tree
	x.mu.Unlock()
	return nil
}

func (x *Index) Put(p domain.Product) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.tree.ReplaceOrInsert(IndexEntry{Sku: strings.ToUpper(p.Sku), ID: p.ID, Name: p.Name})
}

func (x *Index) Remove(sku string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.tree.Delete(IndexEntry{Sku: strings.ToUpper(sku)})
}

// Lookup finds an exact SKU
func (x *Index) Lookup(sku string) (IndexEntry, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.tree.Get(IndexEntry{Sku: strings.ToUpper(sku)})
}

// Prefix returns up to limit entries whose SKU starts with prefix, in SKU order
func (x *Index) Prefix(prefix string, limit int) []IndexEntry {
	prefix = strings.ToUpper(prefix)
	if limit <= 0 {
		limit = 20
	}
	out := make([]IndexEntry, 0, limit)
	x.mu.RLock()
	defer x.mu.RUnlock()
	x.tree.AscendGreaterOrEqual(IndexEntry{Sku: prefix}, func(e IndexEntry) bool {
		if !strings.HasPrefix(e.Sku, prefix) || len(out) >= limit {
			return false
		}
		out = append(out, e)
		return true
	})
	return out
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.tree.Len()
}
