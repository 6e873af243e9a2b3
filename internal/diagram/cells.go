// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diagram

import (
	"log/slog"
	"sync"
)

// CellKey identifies a diagram occurrence: the owning message and the
// block's position within it.
type CellKey struct {
	Owner string
	Index int
}

// Cells keeps one Cell per diagram occurrence so that re-drawing a
// message does not re-render its diagrams.
type Cells struct {
	engine Engine
	logger *slog.Logger

	mu    sync.Mutex
	cells map[CellKey]*Cell
}

// NewCells creates an empty set rendering with engine.
func NewCells(engine Engine, logger *slog.Logger) *Cells {
	return &Cells{engine: engine, logger: logger, cells: make(map[CellKey]*Cell)}
}

// Get returns the cell for key, creating it when absent. created reports
// whether a new cell was made.
func (s *Cells) Get(key CellKey) (cell *Cell, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.cells[key]; ok {
		return c, false
	}
	c := NewCell(s.engine, s.logger)
	s.cells[key] = c
	return c, true
}

// Drop cancels and forgets every cell owned by owner.
func (s *Cells) Drop(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, c := range s.cells {
		if k.Owner == owner {
			c.Cancel()
			delete(s.cells, k)
		}
	}
}

// Reset cancels and forgets every cell.
func (s *Cells) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, c := range s.cells {
		c.Cancel()
		delete(s.cells, k)
	}
}

// Len returns the number of cells.
func (s *Cells) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cells)
}
