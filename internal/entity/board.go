package entity

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-gateway/internal/apperror"
)

const BoardSize = 3

type Mark string

const (
	Empty  Mark = ""
	Cross  Mark = "x"
	Circle Mark = "o"
)

// MarshalJSON - an empty cell is sent as null.
func (that Mark) MarshalJSON() ([]byte, error) {
	if that == Empty {
		return []byte("null"), nil
	}

	return json.Marshal(string(that))
}

func (that *Mark) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*that = Empty
		return nil
	}

	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("failed to unmarshal mark: %w", err)
	}

	*that = Mark(value)

	return nil
}

// WinCombos - rows, columns, diagonals, as row-major indexes.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

type Cell struct {
	RowID  int  `json:"rowId"`
	ColID  int  `json:"colId"`
	Symbol Mark `json:"symbol"`
}

// Board is a 3x3 grid stored row-major. The zero value is not valid, use NewBoard.
type Board struct {
	cells [BoardSize * BoardSize]Cell
}

func NewBoard() Board {
	var board Board

	for row := 1; row <= BoardSize; row++ {
		for col := 1; col <= BoardSize; col++ {
			board.cells[index(row, col)] = Cell{RowID: row, ColID: col, Symbol: Empty}
		}
	}

	return board
}

func index(row, col int) int {
	return (row-1)*BoardSize + (col - 1)
}

func inRange(row, col int) bool {
	return row >= 1 && row <= BoardSize && col >= 1 && col <= BoardSize
}

// Mark - places symbol on an empty cell. A marked cell is never overwritten.
func (that *Board) Mark(row, col int, symbol Mark) error {
	if !inRange(row, col) {
		return fmt.Errorf("%w: row %d col %d", apperror.ErrInvalidCell, row, col)
	}

	cell := &that.cells[index(row, col)]
	if cell.Symbol != Empty {
		return apperror.ErrAlreadyMarked
	}

	cell.Symbol = symbol

	return nil
}

func (that *Board) At(row, col int) Mark {
	if !inRange(row, col) {
		return Empty
	}

	return that.cells[index(row, col)].Symbol
}

func (that *Board) IsFull() bool {
	for _, cell := range that.cells {
		if cell.Symbol == Empty {
			return false
		}
	}

	return true
}

// WinningLine - returns the symbol filling the first uniform triple in WinCombos order.
func (that *Board) WinningLine() (Mark, bool) {
	for _, combo := range WinCombos {
		a, b, c := that.cells[combo[0]].Symbol, that.cells[combo[1]].Symbol, that.cells[combo[2]].Symbol
		if a != Empty && a == b && b == c {
			return a, true
		}
	}

	return Empty, false
}

func (that *Board) Cells() []Cell {
	cells := make([]Cell, len(that.cells))
	copy(cells, that.cells[:])

	return cells
}
