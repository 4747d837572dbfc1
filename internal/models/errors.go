package models

// Error is a constant error returned by the engine for invalid input.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrInvalidColumn Error = "invalid column"
	ErrColumnFull    Error = "column is full"
	ErrColumnEmpty   Error = "column is empty"
	ErrInvalidPlayer Error = "invalid player"
	ErrNotYourTurn   Error = "not your turn"
	ErrGameOver      Error = "game is already over"
	ErrNoLegalMove   Error = "no legal move"
	ErrInvalidBoard  Error = "invalid board encoding"
)
