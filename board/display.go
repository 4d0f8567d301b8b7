package board

import (
	"fmt"
	"strings"
)

var playerRunes = [2]byte{'W', 'B'}

// PlayerName returns "W" or "B".
func PlayerName(p int) string {
	return string(playerRunes[p])
}

func addText(lines []string, row int, hpad int, text string) {
	if row >= len(lines) {
		return
	}
	lines[row] = lines[row] + strings.Repeat(" ", hpad) + text
}

// ToDisplayText draws the board top row first, with column numbers
// underneath and the game state to the right.
func (b *Board) ToDisplayText() string {
	var sb strings.Builder
	lines := make([]string, 0, b.height+2)
	for row := b.height - 1; row >= 0; row-- {
		sb.Reset()
		for col := 0; col < b.width; col++ {
			switch b.Occupant(col, row) {
			case White:
				sb.WriteByte('W')
			case Black:
				sb.WriteByte('B')
			default:
				sb.WriteByte('.')
			}
		}
		lines = append(lines, sb.String())
	}
	sb.Reset()
	for col := 0; col < b.width; col++ {
		sb.WriteByte(byte('0' + col%10))
	}
	lines = append(lines, sb.String())

	hpadding := 3
	addText(lines, 0, hpadding, fmt.Sprintf("turn: %d, player: %s", b.turn,
		PlayerName(b.PlayerOnTurn())))
	addText(lines, 1, hpadding, "history: "+b.HistoryString())
	if w := b.Winner(); w != -1 {
		addText(lines, 3, hpadding, fmt.Sprintf("%s has won.", PlayerName(w)))
	} else if b.Full() {
		addText(lines, 3, hpadding, "Game is drawn.")
	}
	return strings.Join(lines, "\n")
}

// String is the board rows alone, top first.
func (b *Board) String() string {
	lines := strings.Split(b.ToDisplayText(), "\n")
	for i := range lines {
		if len(lines[i]) > b.width {
			lines[i] = lines[i][:b.width]
		}
	}
	return strings.Join(lines[:b.height], "\n")
}
