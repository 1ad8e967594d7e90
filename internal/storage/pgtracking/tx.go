package pgtracking

import (
	"context"

	trmpgx "github.com/avito-tech/go-transaction-manager/pgxv5"
	"github.com/avito-tech/go-transaction-manager/trm/manager"
	"github.com/avito-tech/go-transaction-manager/trm/settings"
	"github.com/jackc/pgx/v5"
)

type TxManager struct {
	m *manager.Manager
}

func NewTxManager(db trmpgx.Transactional) *TxManager {
	return &TxManager{m: manager.Must(trmpgx.NewDefaultFactory(db))}
}

// Do runs fn in a READ COMMITTED transaction. Order transitions rely on
// SELECT ... FOR UPDATE plus a status compare-and-swap, not on isolation.
func (t *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	s := trmpgx.MustSettings(
		settings.Must(),
		trmpgx.WithTxOptions(pgx.TxOptions{IsoLevel: pgx.ReadCommitted}),
	)
	return t.m.DoWithSettings(ctx, s, fn)
}
