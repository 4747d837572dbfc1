package book

import "context"

type bookTable interface {
	GetBookMove(ctx context.Context, key string) (int, bool, error)
	PutBookMove(ctx context.Context, key string, column int) error
}

// PostgresStore keeps the book in the move_book table.
type PostgresStore struct {
	db bookTable
}

func NewPostgresStore(db bookTable) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Get(ctx context.Context, key string) (int, bool, error) {
	col, found, err := p.db.GetBookMove(ctx, key)
	if err != nil || !found || !validColumn(col) {
		return 0, false, err
	}
	return col, true, nil
}

func (p *PostgresStore) Put(ctx context.Context, key string, col int) error {
	return p.db.PutBookMove(ctx, key, col)
}
