package board

import "errors"

var (
	ErrDimensionTooSmall = errors.New("board dimensions must be at least 4x4")
	ErrSizeTooLarge      = errors.New("board does not fit in 64 bits")
	ErrOutOfRange        = errors.New("column out of range")
	ErrColumnFull        = errors.New("column is full")
	ErrInvalidUndoCount  = errors.New("invalid undo count")
	ErrInvalidMove       = errors.New("invalid move character")
	ErrGameOver          = errors.New("game is already over")
)
