package mysql

import (
	"context"
	"database/sql"

	"auction-platform/internal/domain"
)

// MySQLCatalogRepository serves the collection reads that sit behind the cache
// coordinator: products, categories and governorates.
type MySQLCatalogRepository struct {
	db *sql.DB
}

func NewMySQLCatalogRepository(db *sql.DB) *MySQLCatalogRepository {
	return &MySQLCatalogRepository{db: db}
}

const productColumns = `id, owner_id, COALESCE(auction_id, ''), category_id, name, price, status, created_at, updated_at`

func (r *MySQLCatalogRepository) GetAuctionProducts(ctx context.Context, auctionID string) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE auction_id = ? ORDER BY created_at DESC`
	return r.queryProducts(ctx, query, auctionID)
}

func (r *MySQLCatalogRepository) GetUserProducts(ctx context.Context, userID string) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE owner_id = ? ORDER BY created_at DESC`
	return r.queryProducts(ctx, query, userID)
}

func (r *MySQLCatalogRepository) GetUserAuctionProducts(ctx context.Context, auctionID, userID string) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE auction_id = ? AND owner_id = ? ORDER BY created_at DESC`
	return r.queryProducts(ctx, query, auctionID, userID)
}

func (r *MySQLCatalogRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.AuctionID, &p.CategoryID,
			&p.Name, &p.Price, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

func (r *MySQLCatalogRepository) GetCategories(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

func (r *MySQLCatalogRepository) GetGovernorates(ctx context.Context) ([]*domain.Governorate, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM governorates ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var governorates []*domain.Governorate
	for rows.Next() {
		var g domain.Governorate
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		governorates = append(governorates, &g)
	}
	return governorates, rows.Err()
}
