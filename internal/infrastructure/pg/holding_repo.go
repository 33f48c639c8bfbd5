package pg

import (
	"context"
	"errors"
	"time"

	"holdings-pricer/internal/application"
	"holdings-pricer/internal/domain"
	"holdings-pricer/internal/infrastructure/logx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var _ application.HoldingRepo = (*HoldingRepo)(nil)

const uniqueViolation = "23505"

type HoldingRepo struct{ db *DB }

func NewHoldingRepo(db *DB) *HoldingRepo { return &HoldingRepo{db: db} }

const holdingCols = `id, symbol, quantity::float8, purchase_price::float8, purchase_date,
        current_price::float8, last_updated, created_at`

func scanHolding(row pgx.Row) (domain.Holding, error) {
	var h domain.Holding
	var sym string
	err := row.Scan(&h.ID, &sym, &h.Quantity, &h.PurchasePrice, &h.PurchaseDate,
		&h.CurrentPrice, &h.LastUpdated, &h.CreatedAt)
	h.Ticker = domain.Symbol(sym)
	return h, err
}

func (r *HoldingRepo) List(ctx context.Context) ([]domain.Holding, error) {
	q := `SELECT ` + holdingCols + ` FROM holdings ORDER BY symbol, created_at`
	rows, err := r.db.q(ctx).Query(ctx, q)
	if err != nil {
		logx.L().Error("sql.query_failed", zap.String("repo", "holding"), zap.String("operation", "List"), zap.Error(err))
		return nil, err
	}
	defer rows.Close()
	var out []domain.Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *HoldingRepo) Get(ctx context.Context, id string) (domain.Holding, error) {
	q := `SELECT ` + holdingCols + ` FROM holdings WHERE id=$1`
	h, err := scanHolding(r.db.q(ctx).QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Holding{}, application.ErrNotFound
	}
	if err != nil {
		logx.L().Error("sql.query_failed", zap.String("repo", "holding"), zap.String("operation", "Get"), zap.String("id", id), zap.Error(err))
		return domain.Holding{}, err
	}
	return h, nil
}

func (r *HoldingRepo) Create(ctx context.Context, h domain.Holding) error {
	const ins = `
        INSERT INTO holdings(id, symbol, quantity, purchase_price, purchase_date, current_price, last_updated, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	log := logx.L().With(
		zap.String("repo", "holding"),
		zap.String("operation", "Create"),
		zap.String("id", h.ID),
		zap.String("symbol", string(h.Ticker)),
	)
	_, err := r.db.q(ctx).Exec(ctx, ins, h.ID, string(h.Ticker), h.Quantity, h.PurchasePrice,
		h.PurchaseDate, h.CurrentPrice, h.LastUpdated, h.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		log.Warn("sql.duplicate_id")
		return application.ErrConflict
	}
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	log.Debug("sql.exec_success")
	return nil
}

func (r *HoldingRepo) Update(ctx context.Context, h domain.Holding) error {
	const up = `
        UPDATE holdings
        SET symbol=$2, quantity=$3, purchase_price=$4, purchase_date=$5,
            current_price=$6, last_updated=$7
        WHERE id=$1`
	tag, err := r.db.q(ctx).Exec(ctx, up, h.ID, string(h.Ticker), h.Quantity, h.PurchasePrice,
		h.PurchaseDate, h.CurrentPrice, h.LastUpdated)
	if err != nil {
		logx.L().Error("sql.exec_failed", zap.String("repo", "holding"), zap.String("operation", "Update"), zap.String("id", h.ID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return application.ErrNotFound
	}
	return nil
}

func (r *HoldingRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.q(ctx).Exec(ctx, `DELETE FROM holdings WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return application.ErrNotFound
	}
	return nil
}

// SavePrice only touches the price columns so a concurrent edit of the
// holding's other fields is not overwritten.
func (r *HoldingRepo) SavePrice(ctx context.Context, id string, price float64, at time.Time) error {
	const up = `UPDATE holdings SET current_price=$2, last_updated=$3 WHERE id=$1`
	tag, err := r.db.q(ctx).Exec(ctx, up, id, price, at)
	if err != nil {
		logx.L().Error("sql.exec_failed", zap.String("repo", "holding"), zap.String("operation", "SavePrice"), zap.String("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		logx.L().Warn("sql.exec_no_rows", zap.String("repo", "holding"), zap.String("operation", "SavePrice"), zap.String("id", id))
		return application.ErrNotFound
	}
	return nil
}
