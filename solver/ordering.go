package solver

import "github.com/domino14/yonmoku/board"

// centerOut returns the columns of a board of the given width ordered from
// the center outwards, right of center first on even widths:
// 7 -> 3 4 2 5 1 6 0, 6 -> 3 4 2 5 1 0.
func centerOut(width int) []int {
	order := make([]int, 0, width)
	mid := width / 2
	order = append(order, mid)
	for k := 1; len(order) < width; k++ {
		if mid+k < width {
			order = append(order, mid+k)
		}
		if mid-k >= 0 {
			order = append(order, mid-k)
		}
	}
	return order
}

// MoveOrderer produces the order in which the search tries columns.
//
// The baseline is center-out, since central columns take part in more
// lines. With adaptive ordering on, columns that caused cutoffs at a given
// ply are tried earlier the next time that ply is searched.
type MoveOrderer struct {
	baseline []int
	// one scratch buffer per ply so recursive callers do not share.
	buffers [][]int

	adaptive         bool
	penalizeSiblings bool
	reorderCutoff    int
	history          [][]int
}

// NewMoveOrderer creates an orderer for boards of the given geometry.
func NewMoveOrderer(width, height int) *MoveOrderer {
	maxTurns := width * height
	o := &MoveOrderer{
		baseline:      centerOut(width),
		buffers:       make([][]int, maxTurns+1),
		history:       make([][]int, maxTurns+1),
		reorderCutoff: maxTurns,
	}
	for i := range o.buffers {
		o.buffers[i] = make([]int, 0, width)
		o.history[i] = make([]int, width)
	}
	return o
}

// SetAdaptive turns history-based reordering on for plies below
// reorderCutoff. With penalize, columns tried before a cutoff column lose a
// point each time.
func (o *MoveOrderer) SetAdaptive(on bool, reorderCutoff int, penalize bool) {
	o.adaptive = on
	o.reorderCutoff = reorderCutoff
	o.penalizeSiblings = penalize
}

// Reset forgets everything learned from previous searches.
func (o *MoveOrderer) Reset() {
	for _, h := range o.history {
		clear(h)
	}
}

// Order returns the playable columns of b in search order. The returned
// slice is reused by the next call at the same ply.
func (o *MoveOrderer) Order(b *board.Board) []int {
	ply := b.Turn()
	moves := o.buffers[ply][:0]
	for _, c := range o.baseline {
		if b.IsColumnPlayable(c) {
			moves = append(moves, c)
		}
	}
	if o.adaptive && ply < o.reorderCutoff {
		scores := o.history[ply]
		// stable insertion sort, descending by score. Ties keep the
		// baseline order.
		for i := 1; i < len(moves); i++ {
			m := moves[i]
			j := i - 1
			for ; j >= 0 && scores[moves[j]] < scores[m]; j-- {
				moves[j+1] = moves[j]
			}
			moves[j+1] = m
		}
	}
	o.buffers[ply] = moves
	return moves
}

// RecordCutoff notes that col caused a cutoff at ply after the columns in
// tried (which includes col as its last element) were searched.
func (o *MoveOrderer) RecordCutoff(ply, col int, tried []int) {
	if !o.adaptive || ply >= o.reorderCutoff {
		return
	}
	o.history[ply][col]++
	if o.penalizeSiblings {
		for _, c := range tried {
			if c != col {
				o.history[ply][c]--
			}
		}
	}
}

// HistoryScore returns the learned score of col at ply.
func (o *MoveOrderer) HistoryScore(ply, col int) int {
	return o.history[ply][col]
}
