package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	"github.com/trade-ham/marketplace-api/internal/domain/repository"
	"github.com/trade-ham/marketplace-api/pkg/apperror"
)

const productColumns = `id, name, description, price, status, seller_id, buyer_id, image_url, created_at, updated_at`

type ProductRepository struct {
	db DBTX
}

func NewProductRepository(db DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	p := &entity.Product{}
	var status string
	var buyer pgtype.Int8
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &status,
		&p.SellerID, &buyer, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = entity.ProductStatus(status)
	if buyer.Valid {
		id := buyer.Int64
		p.BuyerID = &id
	}
	return p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	if p.Status == "" {
		p.Status = entity.ProductStatusSell
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO products (name, description, price, status, seller_id, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, p.Name, p.Description, p.Price, string(p.Status), p.SellerID, p.ImageURL)

	return row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetByIDForUpdate takes a row-level exclusive lock (SELECT ... FOR UPDATE).
// A concurrent caller blocks here until the holder's transaction ends and then
// observes the committed row.
func (r *ProductRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r *ProductRepository) getOne(ctx context.Context, sql string, id int64) (*entity.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.New(apperror.CodeNotFound, "product %d", id)
		}
		return nil, err
	}
	return p, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *entity.Product) error {
	p.UpdatedAt = time.Now()

	res, err := r.db.Exec(ctx, `
		UPDATE products
		SET name = $1, description = $2, price = $3, image_url = $4, updated_at = $5
		WHERE id = $6 AND status = 'SELL'
	`, p.Name, p.Description, p.Price, p.ImageURL, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperror.New(apperror.CodeNotFound, "product %d not for sale", p.ID)
	}
	return nil
}

// MarkSold moves a SELL product to SOLD_OUT and records the buyer. The status
// predicate keeps the transition one-way even without the row lock.
func (r *ProductRepository) MarkSold(ctx context.Context, id, buyerID int64) error {
	res, err := r.db.Exec(ctx, `
		UPDATE products
		SET status = 'SOLD_OUT', buyer_id = $2, updated_at = now()
		WHERE id = $1 AND status = 'SELL'
	`, id, buyerID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperror.New(apperror.CodeAccessDenied, "product %d is not for sale", id)
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1 AND status = 'SELL'`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperror.New(apperror.CodeNotFound, "product %d not for sale", id)
	}
	return nil
}

func (r *ProductRepository) ListByStatus(ctx context.Context, status entity.ProductStatus) ([]*entity.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products WHERE status = $1 ORDER BY created_at DESC, id DESC`, string(status))
}

func (r *ProductRepository) ListBySeller(ctx context.Context, sellerID int64) ([]*entity.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products WHERE seller_id = $1 ORDER BY created_at DESC, id DESC`, sellerID)
}

func (r *ProductRepository) ListByBuyer(ctx context.Context, buyerID int64) ([]*entity.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products WHERE buyer_id = $1 ORDER BY created_at DESC, id DESC`, buyerID)
}

func (r *ProductRepository) ListByIDs(ctx context.Context, ids []int64) ([]*entity.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1) ORDER BY created_at DESC, id DESC`, ids)
}

// Search matches keyword case-insensitively against name or description of
// products still for sale, newest first.
func (r *ProductRepository) Search(ctx context.Context, keyword string) ([]*entity.Product, error) {
	pattern := "%" + escapeLike(keyword) + "%"
	return r.list(ctx, `SELECT `+productColumns+` FROM products WHERE (name ILIKE $1 OR description ILIKE $1) AND status = 'SELL' ORDER BY created_at DESC, id DESC`, pattern)
}

// list runs the product query and then resolves every referenced seller and
// buyer with a single batched users query: two round trips regardless of size.
func (r *ProductRepository) list(ctx context.Context, sql string, args ...any) ([]*entity.Product, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachUsers(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func collectProducts(rows pgx.Rows) ([]*entity.Product, error) {
	defer rows.Close()
	var out []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProductRepository) attachUsers(ctx context.Context, products []*entity.Product) error {
	ids := referencedUserIDs(products)
	if len(ids) == 0 {
		return nil
	}
	users, err := NewUserRepository(r.db).ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[int64]*entity.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, p := range products {
		p.Seller = byID[p.SellerID]
		if p.BuyerID != nil {
			p.Buyer = byID[*p.BuyerID]
		}
	}
	return nil
}

// referencedUserIDs returns seller and buyer ids in first-seen order, deduplicated.
func referencedUserIDs(products []*entity.Product) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	add := func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, p := range products {
		add(p.SellerID)
		if p.BuyerID != nil {
			add(*p.BuyerID)
		}
	}
	return ids
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ repository.ProductRepository = (*ProductRepository)(nil)
