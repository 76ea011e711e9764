package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// AgendaScraper is the live source the cache sits in front of.
type AgendaScraper interface {
	Scrape(ctx context.Context, eventoID string, notas map[string]ItemNote) ([]PautaItem, error)
}

// pautaEntry is one event's agenda held in the in-memory tier.
type pautaEntry struct {
	itens       []PautaItem
	lastUpdated string
	fetchedAt   time.Time
}

// PautaCache orchestrates the two cache tiers around the live scraper. The
// in-memory tier is a pure performance cache and may be dropped at any time;
// the durable tier is the source of truth for "last known good". State is
// private to the instance, so tests run against isolated caches.
type PautaCache struct {
	mu      sync.RWMutex
	entries map[string]pautaEntry
	ttl     time.Duration
	store   *Store
	scraper AgendaScraper
	now     func() time.Time
}

// NewPautaCache builds a cache over the given scraper and durable store.
func NewPautaCache(scraper AgendaScraper, store *Store, ttl time.Duration) *PautaCache {
	if ttl <= 0 {
		ttl = PautaCacheTTL
	}
	return &PautaCache{
		entries: make(map[string]pautaEntry),
		ttl:     ttl,
		store:   store,
		scraper: scraper,
		now:     time.Now,
	}
}

func (c *PautaCache) memoryGet(eventoID string) (pautaEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[eventoID]
	if !ok {
		return pautaEntry{}, false
	}
	if c.now().Sub(entry.fetchedAt) >= c.ttl {
		return pautaEntry{}, false
	}
	return entry, true
}

func (c *PautaCache) memoryPut(eventoID string, itens []PautaItem, lastUpdated string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[eventoID] = pautaEntry{itens: itens, lastUpdated: lastUpdated, fetchedAt: c.now()}
}

// Fetch returns the agenda for an event along with a staleness flag and the
// snapshot timestamp. fromCache is true only when the items come from the
// durable fallback (or when nothing at all is available); a memory hit or a
// successful scrape is fresh. The chain is: memory tier → live scrape →
// durable tier → explicit empty.
func (c *PautaCache) Fetch(ctx context.Context, eventoID string, forceReload bool) (itens []PautaItem, fromCache bool, lastUpdated string) {
	if !forceReload {
		if entry, ok := c.memoryGet(eventoID); ok {
			log.Printf("Agenda %s served from memory cache", eventoID)
			return entry.itens, false, entry.lastUpdated
		}
	}

	notas := map[string]ItemNote{}
	if c.store != nil {
		loaded, err := c.store.LoadNotas(ctx)
		if err != nil {
			// Notes are an overlay; scraping proceeds without them
			log.Printf("Failed to load notes: %v", err)
		} else {
			notas = loaded
		}
	}

	log.Printf("Scraping agenda for event %s", eventoID)
	scraped, err := c.scraper.Scrape(ctx, eventoID, notas)
	if err == nil {
		updated := c.now().Format(timestampLayout)
		if c.store != nil {
			if perr := c.store.PutCachedPauta(ctx, eventoID, scraped, updated); perr != nil {
				log.Printf("Failed to persist agenda %s: %v", eventoID, perr)
			}
		}
		c.memoryPut(eventoID, scraped, updated)
		log.Printf("Agenda %s scraped with %d items", eventoID, len(scraped))
		return scraped, false, updated
	}

	log.Printf("Scrape failed for event %s (%v), falling back to persistent cache", eventoID, err)
	if c.store != nil {
		cached, cerr := c.store.GetCachedPauta(ctx, eventoID)
		if cerr != nil {
			log.Printf("Persistent cache read failed for %s: %v", eventoID, cerr)
		} else if cached != nil {
			// The durable snapshot is the authoritative item list, but notes
			// may have changed since it was written
			MergeNotas(cached.Itens, notas)
			c.memoryPut(eventoID, cached.Itens, cached.LastUpdated)
			return cached.Itens, true, cached.LastUpdated
		}
	}

	log.Printf("No cached agenda available for event %s", eventoID)
	return []PautaItem{}, true, ""
}

// InvalidateAll drops the in-memory tier. Called after any note save, since
// notes may have changed for any cached event. The durable tier is untouched.
func (c *PautaCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]pautaEntry)
}

// Save persists one item's notes atomically, then invalidates the in-memory
// tier so the next fetch sees them.
func (c *PautaCache) Save(ctx context.Context, req SaveItemRequest) error {
	if c.store == nil {
		return fmt.Errorf("no store configured")
	}
	if err := c.store.SaveItemNotes(ctx, req); err != nil {
		return err
	}
	c.InvalidateAll()
	return nil
}
