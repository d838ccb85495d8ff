package repo

import (
	"context"
	"database/sql"
	"strings"

	domain "github.com/minshop/order-api/internal/entity"
	"github.com/minshop/order-api/internal/usecase"
)

// MySQLCartRepo is the read-only view into the cart subsystem: cart
// rows joined with live product name/price. Cart consumption happens
// inside the settlement transaction, not here.
type MySQLCartRepo struct{ db *sql.DB }

func NewMySQLCartRepo(db *sql.DB) *MySQLCartRepo { return &MySQLCartRepo{db: db} }

func (r *MySQLCartRepo) SelectedLines(ctx context.Context, userSeq int64, cartSeqs []int64) ([]domain.CartLine, error) {
	if len(cartSeqs) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(cartSeqs)+1)
	args = append(args, userSeq)
	for _, seq := range cartSeqs {
		args = append(args, seq)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT c.seq, c.quantity,
       p.seq, p.name, p.price, COALESCE(p.thumbnail_url,''),
       (c.quantity * p.price) AS line_total
FROM cart c
INNER JOIN products p ON p.seq = c.product_seq
WHERE c.user_seq = ? AND c.seq IN (`+placeholders(len(cartSeqs))+`)
ORDER BY c.seq DESC`, args...)
	if err != nil {
		return nil, usecase.Unavailable("read cart lines", err)
	}
	defer rows.Close()

	var items []domain.CartLine
	for rows.Next() {
		var it domain.CartLine
		if err := rows.Scan(&it.CartSeq, &it.Quantity,
			&it.ProductSeq, &it.ProductName, &it.UnitPrice, &it.ThumbnailURL,
			&it.LineTotal); err != nil {
			return nil, usecase.Unavailable("scan cart line", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, usecase.Unavailable("iterate cart lines", err)
	}
	return items, nil
}

// placeholders returns "?,?,...,?" with n markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

var _ usecase.CartStore = (*MySQLCartRepo)(nil)
