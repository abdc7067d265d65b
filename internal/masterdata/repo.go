package masterdata

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockpilot-erp/stockpilot/internal/platform/db"
)

// repo implements Repository against PostgreSQL.
type repo struct {
	db *pgxpool.Pool
}

// NewRepository creates a new master data repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repo{db: pool}
}

// wrapErr translates driver errors into domain errors.
func wrapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case db.IsUniqueViolation(err):
		return ErrCodeTaken
	case db.IsForeignKeyViolation(err):
		return ErrInUse
	default:
		return err
	}
}

func affected(tag interface{ RowsAffected() int64 }, err error) error {
	if err != nil {
		return wrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Product operations

func (r *repo) ListProducts(ctx context.Context, filters ListFilters) ([]Product, error) {
	query := `
		SELECT id, sku, name, description, category_id, brand_id, unit_id,
		       purchase_price, selling_price, margin_percent, current_quantity,
		       last_purchase_date, last_sale_date, is_active, created_at, updated_at
		FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR sku ILIKE '%' || $1 || '%')
		  AND ($2::BIGINT IS NULL OR category_id = $2)
		  AND ($3::BOOLEAN IS NULL OR is_active = $3)
		ORDER BY name
		LIMIT $4
	`
	limit := filters.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, query, filters.Search, filters.CategoryID, filters.IsActive, limit)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.CategoryID, &p.BrandID, &p.UnitID,
			&p.PurchasePrice, &p.SellingPrice, &p.MarginPercent, &p.CurrentQuantity,
			&p.LastPurchaseDate, &p.LastSaleDate, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repo) GetProduct(ctx context.Context, id int64) (Product, error) {
	query := `
		SELECT id, sku, name, description, category_id, brand_id, unit_id,
		       purchase_price, selling_price, margin_percent, current_quantity,
		       last_purchase_date, last_sale_date, is_active, created_at, updated_at
		FROM products WHERE id = $1
	`
	var p Product
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.SKU, &p.Name, &p.Description,
		&p.CategoryID, &p.BrandID, &p.UnitID, &p.PurchasePrice, &p.SellingPrice,
		&p.MarginPercent, &p.CurrentQuantity, &p.LastPurchaseDate, &p.LastSaleDate,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, wrapErr(err)
}

func (r *repo) CreateProduct(ctx context.Context, product Product) (Product, error) {
	query := `
		INSERT INTO products (sku, name, description, category_id, brand_id, unit_id, purchase_price, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, product.SKU, product.Name, product.Description,
		product.CategoryID, product.BrandID, product.UnitID, product.PurchasePrice, product.IsActive).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return Product{}, wrapErr(err)
	}
	return product, nil
}

func (r *repo) UpdateProduct(ctx context.Context, id int64, product Product) error {
	query := `
		UPDATE products SET sku = $1, name = $2, description = $3, category_id = $4,
		       brand_id = $5, unit_id = $6, is_active = $7, updated_at = NOW()
		WHERE id = $8
	`
	tag, err := r.db.Exec(ctx, query, product.SKU, product.Name, product.Description,
		product.CategoryID, product.BrandID, product.UnitID, product.IsActive, id)
	return affected(tag, err)
}

func (r *repo) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	return affected(tag, err)
}

// Category operations

func (r *repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *repo) CreateCategory(ctx context.Context, category Category) (Category, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, category.Name).
		Scan(&category.ID)
	return category, wrapErr(err)
}

func (r *repo) UpdateCategory(ctx context.Context, id int64, category Category) error {
	tag, err := r.db.Exec(ctx, `UPDATE categories SET name = $1 WHERE id = $2`, category.Name, id)
	return affected(tag, err)
}

func (r *repo) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	return affected(tag, err)
}

// Brand operations

func (r *repo) ListBrands(ctx context.Context) ([]Brand, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM brands ORDER BY name`)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var brands []Brand
	for rows.Next() {
		var b Brand
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, err
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

func (r *repo) CreateBrand(ctx context.Context, brand Brand) (Brand, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO brands (name) VALUES ($1) RETURNING id`, brand.Name).
		Scan(&brand.ID)
	return brand, wrapErr(err)
}

func (r *repo) UpdateBrand(ctx context.Context, id int64, brand Brand) error {
	tag, err := r.db.Exec(ctx, `UPDATE brands SET name = $1 WHERE id = $2`, brand.Name, id)
	return affected(tag, err)
}

func (r *repo) DeleteBrand(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM brands WHERE id = $1`, id)
	return affected(tag, err)
}

// Unit operations

func (r *repo) ListUnits(ctx context.Context) ([]Unit, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name FROM units ORDER BY code`)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.Code, &u.Name); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

func (r *repo) CreateUnit(ctx context.Context, unit Unit) (Unit, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO units (code, name) VALUES ($1, $2) RETURNING id`, unit.Code, unit.Name).
		Scan(&unit.ID)
	return unit, wrapErr(err)
}

func (r *repo) UpdateUnit(ctx context.Context, id int64, unit Unit) error {
	tag, err := r.db.Exec(ctx, `UPDATE units SET code = $1, name = $2 WHERE id = $3`, unit.Code, unit.Name, id)
	return affected(tag, err)
}

func (r *repo) DeleteUnit(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM units WHERE id = $1`, id)
	return affected(tag, err)
}

// Location operations

func (r *repo) ListLocations(ctx context.Context) ([]Location, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name, address, created_at, updated_at FROM locations ORDER BY name`)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.Address, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (r *repo) GetLocation(ctx context.Context, id int64) (Location, error) {
	var l Location
	err := r.db.QueryRow(ctx, `SELECT id, code, name, address, created_at, updated_at FROM locations WHERE id = $1`, id).
		Scan(&l.ID, &l.Code, &l.Name, &l.Address, &l.CreatedAt, &l.UpdatedAt)
	return l, wrapErr(err)
}

func (r *repo) CreateLocation(ctx context.Context, location Location) (Location, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO locations (code, name, address) VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, location.Code, location.Name, location.Address).
		Scan(&location.ID, &location.CreatedAt, &location.UpdatedAt)
	return location, wrapErr(err)
}

func (r *repo) UpdateLocation(ctx context.Context, id int64, location Location) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE locations SET code = $1, name = $2, address = $3, updated_at = NOW() WHERE id = $4
	`, location.Code, location.Name, location.Address, id)
	return affected(tag, err)
}

func (r *repo) DeleteLocation(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	return affected(tag, err)
}

// Shelf operations

func (r *repo) ListShelves(ctx context.Context, locationID int64) ([]Shelf, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, location_id, code, name FROM shelves WHERE location_id = $1 ORDER BY code
	`, locationID)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var shelves []Shelf
	for rows.Next() {
		var s Shelf
		if err := rows.Scan(&s.ID, &s.LocationID, &s.Code, &s.Name); err != nil {
			return nil, err
		}
		shelves = append(shelves, s)
	}
	return shelves, rows.Err()
}

func (r *repo) CreateShelf(ctx context.Context, shelf Shelf) (Shelf, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO shelves (location_id, code, name) VALUES ($1, $2, $3) RETURNING id
	`, shelf.LocationID, shelf.Code, shelf.Name).Scan(&shelf.ID)
	return shelf, wrapErr(err)
}

func (r *repo) DeleteShelf(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM shelves WHERE id = $1`, id)
	return affected(tag, err)
}

// Supplier operations

func (r *repo) ListSuppliers(ctx context.Context, filters ListFilters) ([]Supplier, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, code, name, phone, email, address, is_active, created_at, updated_at
		FROM suppliers
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR code ILIKE '%' || $1 || '%')
		  AND ($2::BOOLEAN IS NULL OR is_active = $2)
		ORDER BY name
	`, filters.Search, filters.IsActive)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		var s Supplier
		err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.Phone, &s.Email, &s.Address, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

func (r *repo) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	var s Supplier
	err := r.db.QueryRow(ctx, `
		SELECT id, code, name, phone, email, address, is_active, created_at, updated_at
		FROM suppliers WHERE id = $1
	`, id).Scan(&s.ID, &s.Code, &s.Name, &s.Phone, &s.Email, &s.Address, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, wrapErr(err)
}

func (r *repo) CreateSupplier(ctx context.Context, supplier Supplier) (Supplier, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO suppliers (code, name, phone, email, address, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, supplier.Code, supplier.Name, supplier.Phone, supplier.Email, supplier.Address, supplier.IsActive).
		Scan(&supplier.ID, &supplier.CreatedAt, &supplier.UpdatedAt)
	return supplier, wrapErr(err)
}

func (r *repo) UpdateSupplier(ctx context.Context, id int64, supplier Supplier) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE suppliers SET code = $1, name = $2, phone = $3, email = $4, address = $5, is_active = $6, updated_at = NOW()
		WHERE id = $7
	`, supplier.Code, supplier.Name, supplier.Phone, supplier.Email, supplier.Address, supplier.IsActive, id)
	return affected(tag, err)
}

func (r *repo) DeleteSupplier(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	return affected(tag, err)
}

// Customer operations

func (r *repo) ListCustomers(ctx context.Context, filters ListFilters) ([]Customer, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, code, name, phone, email, address, is_active, created_at, updated_at
		FROM customers
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR code ILIKE '%' || $1 || '%')
		  AND ($2::BOOLEAN IS NULL OR is_active = $2)
		ORDER BY name
	`, filters.Search, filters.IsActive)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Phone, &c.Email, &c.Address, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *repo) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	var c Customer
	err := r.db.QueryRow(ctx, `
		SELECT id, code, name, phone, email, address, is_active, created_at, updated_at
		FROM customers WHERE id = $1
	`, id).Scan(&c.ID, &c.Code, &c.Name, &c.Phone, &c.Email, &c.Address, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, wrapErr(err)
}

func (r *repo) CreateCustomer(ctx context.Context, customer Customer) (Customer, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO customers (code, name, phone, email, address, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, customer.Code, customer.Name, customer.Phone, customer.Email, customer.Address, customer.IsActive).
		Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
	return customer, wrapErr(err)
}

func (r *repo) UpdateCustomer(ctx context.Context, id int64, customer Customer) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE customers SET code = $1, name = $2, phone = $3, email = $4, address = $5, is_active = $6, updated_at = NOW()
		WHERE id = $7
	`, customer.Code, customer.Name, customer.Phone, customer.Email, customer.Address, customer.IsActive, id)
	return affected(tag, err)
}

func (r *repo) DeleteCustomer(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	return affected(tag, err)
}
