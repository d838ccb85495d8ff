package repo

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/minshop/order-api/internal/entity"
	"github.com/minshop/order-api/internal/usecase"
)

type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

// CreateWithLines inserts the order header and all lines in one
// transaction; header and lines never exist independently.
func (r *MySQLOrderRepo) CreateWithLines(ctx context.Context, o *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return usecase.Unavailable("begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
INSERT INTO orders
  (order_number,user_seq,items_total,shipping_fee,order_total,
   receiver_name,receiver_phone,zip_code,address1,address2,memo,
   status,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,NOW())`,
		o.OrderNumber, o.UserSeq, o.ItemsTotal, o.ShippingFee, o.OrderTotal,
		o.ReceiverName, o.ReceiverPhone, o.ZipCode, o.Address1,
		nullable(o.Address2), nullable(o.Memo), string(o.Status))
	if err != nil {
		return usecase.Unavailable("insert order", err)
	}
	orderSeq, err := res.LastInsertId()
	if err != nil {
		return usecase.Unavailable("order seq", err)
	}

	for i := range o.Lines {
		l := &o.Lines[i]
		res, err := tx.ExecContext(ctx, `
INSERT INTO order_items (order_seq,product_seq,product_name,unit_price,quantity,line_total)
VALUES (?,?,?,?,?,?)`,
			orderSeq, l.ProductSeq, l.ProductName, l.UnitPrice, l.Quantity, l.LineTotal)
		if err != nil {
			return usecase.Unavailable("insert order line", err)
		}
		if seq, err := res.LastInsertId(); err == nil {
			l.Seq = seq
		}
	}

	if err := tx.Commit(); err != nil {
		return usecase.Unavailable("commit order", err)
	}
	o.Seq = orderSeq
	return nil
}

func (r *MySQLOrderRepo) GetByNumber(ctx context.Context, userSeq int64, orderNumber string) (*domain.Order, error) {
	return r.get(ctx, userSeq, orderNumber, false)
}

func (r *MySQLOrderRepo) GetPaidDetail(ctx context.Context, userSeq int64, orderNumber string) (*domain.Order, error) {
	return r.get(ctx, userSeq, orderNumber, true)
}

func (r *MySQLOrderRepo) get(ctx context.Context, userSeq int64, orderNumber string, paidOnly bool) (*domain.Order, error) {
	q := `
SELECT seq,order_number,user_seq,items_total,shipping_fee,order_total,
       receiver_name,receiver_phone,zip_code,address1,
       COALESCE(address2,''),COALESCE(memo,''),
       status,COALESCE(pg_provider,''),COALESCE(payment_key,''),paid_at,created_at
FROM orders
WHERE order_number=? AND user_seq=?`
	if paidOnly {
		q += ` AND status='PAID'`
	}

	var o domain.Order
	var status string
	var paidAt sql.NullTime
	err := r.db.QueryRowContext(ctx, q, orderNumber, userSeq).Scan(
		&o.Seq, &o.OrderNumber, &o.UserSeq, &o.ItemsTotal, &o.ShippingFee, &o.OrderTotal,
		&o.ReceiverName, &o.ReceiverPhone, &o.ZipCode, &o.Address1,
		&o.Address2, &o.Memo,
		&status, &o.PGProvider, &o.PaymentKey, &paidAt, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrOrderNotFound
	}
	if err != nil {
		return nil, usecase.Unavailable("load order", err)
	}
	o.Status = domain.Status(status)
	if paidAt.Valid {
		t := paidAt.Time
		o.PaidAt = &t
	}

	// Most-recently-added line first.
	rows, err := r.db.QueryContext(ctx, `
SELECT seq,product_seq,product_name,unit_price,quantity,line_total
FROM order_items WHERE order_seq=? ORDER BY seq DESC`, o.Seq)
	if err != nil {
		return nil, usecase.Unavailable("load order lines", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.Seq, &l.ProductSeq, &l.ProductName, &l.UnitPrice, &l.Quantity, &l.LineTotal); err != nil {
			return nil, usecase.Unavailable("scan order line", err)
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, usecase.Unavailable("iterate order lines", err)
	}
	return &o, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
