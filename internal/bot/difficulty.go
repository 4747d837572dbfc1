package bot

import (
	"fmt"
	"strings"

	"github.com/hiimzein/connect4/internal/models"
)

const ErrUnknownDifficulty models.Error = "unknown difficulty"

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

var Difficulties = []Difficulty{Easy, Medium, Hard}

func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case Easy, Medium, Hard:
		return d, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownDifficulty, s)
}

// DepthTable maps a difficulty to a search depth in plies.
type DepthTable map[Difficulty]int

func DefaultDepths() DepthTable {
	return DepthTable{
		Easy:   2,
		Medium: 4,
		Hard:   6,
	}
}

func (t DepthTable) Depth(d Difficulty) int {
	if depth, ok := t[d]; ok && depth > 0 {
		return depth
	}
	return DefaultDepths()[Medium]
}
