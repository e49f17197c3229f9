// Package cache models a single-level set-associative cache with
// least-recently-used replacement.
package cache

import (
	"github.com/sarchlab/csim/cache/internal/tagging"
	"github.com/sarchlab/csim/hooking"
)

// HookPosAccess marks that the cache has finished one access. The hook detail
// is an AccessDetail.
var HookPosAccess = &hooking.HookPos{Name: "CacheAccess"}

// Line is a read-only view of one cache line.
type Line struct {
	Valid     bool   `json:"valid"`
	Tag       uint64 `json:"tag"`
	LastVisit uint64 `json:"last_visit"`
}

// Cache is a set-associative cache. It is not safe for concurrent use.
type Cache struct {
	hooking.HookableBase

	Name string

	geometry     Geometry
	tags         tagging.TagArray
	victimFinder tagging.VictimFinder
}

// Geometry returns the geometry that the cache was built with.
func (c *Cache) Geometry() Geometry {
	return c.geometry
}

// Decode returns the tag and the set index that an address maps to.
func (c *Cache) Decode(addr uint64) (tag uint64, setID int) {
	return c.tags.Decode(addr)
}

// Access looks up an address, filling or replacing a line on a miss, and
// marks the line holding the address as the most recently used one.
func (c *Cache) Access(addr uint64) Outcome {
	block, found := c.tags.Lookup(addr)
	if found {
		c.tags.Visit(block)
		c.invokeAccessHook(addr, block, Hit, 0)

		return Hit
	}

	tag, _ := c.tags.Decode(addr)
	set, _ := c.tags.GetSet(addr)
	victim := c.victimFinder.FindVictim(set)

	outcome := MissClean
	evictedTag := uint64(0)

	if victim.IsValid {
		outcome = MissEviction
		evictedTag = victim.Tag
	}

	victim.Tag = tag
	victim.IsValid = true
	c.tags.Update(victim)
	c.tags.Visit(victim)

	c.invokeAccessHook(addr, victim, outcome, evictedTag)

	return outcome
}

func (c *Cache) invokeAccessHook(
	addr uint64,
	block tagging.Block,
	outcome Outcome,
	evictedTag uint64,
) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosAccess,
		Item:   addr,
		Detail: AccessDetail{
			Address:    addr,
			Tag:        block.Tag,
			SetID:      block.SetID,
			WayID:      block.WayID,
			Outcome:    outcome,
			EvictedTag: evictedTag,
		},
	})
}

// Set returns a copy of the lines of one set. setID must be in
// [0, Geometry().NumSets()); Set panics otherwise.
func (c *Cache) Set(setID int) []Line {
	blocks := c.tags.Sets()[setID].Blocks
	lines := make([]Line, len(blocks))

	for i, b := range blocks {
		lines[i] = Line{
			Valid:     b.IsValid,
			Tag:       b.Tag,
			LastVisit: b.LastVisit,
		}
	}

	return lines
}

// NumValidLines counts the lines that currently hold a tag.
func (c *Cache) NumValidLines() int {
	n := 0

	for _, set := range c.tags.Sets() {
		for _, b := range set.Blocks {
			if b.IsValid {
				n++
			}
		}
	}

	return n
}

// Reset invalidates every line.
func (c *Cache) Reset() {
	c.tags.Reset()
}
