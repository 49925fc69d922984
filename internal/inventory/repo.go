package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sahyadri-hs/backoffice/internal/shared"
)

// Repository defines persistence for packages and products.
type Repository interface {
	ListPackages(ctx context.Context) ([]Package, error)
	GetPackage(ctx context.Context, id int64) (Package, error)
	CreatePackage(ctx context.Context, p Package) (Package, error)
	UpdatePackage(ctx context.Context, id int64, p Package) error
	DeletePackage(ctx context.Context, id int64) error

	ListProducts(ctx context.Context, packageID *int64) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, id int64, p Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

type repo struct {
	db *pgxpool.Pool
}

// NewRepository creates an inventory repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repo{db: db}
}

func (r *repo) ListPackages(ctx context.Context) ([]Package, error) {
	const q = `
		SELECT pk.id, pk.name, pk.type, count(pr.id), pk.created_at, pk.updated_at
		FROM packages pk
		LEFT JOIN products pr ON pr.package_id = pk.id
		GROUP BY pk.id
		ORDER BY pk.name`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var packages []Package
	for rows.Next() {
		var p Package
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &p.ProductCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		packages = append(packages, p)
	}
	return packages, rows.Err()
}

func (r *repo) GetPackage(ctx context.Context, id int64) (Package, error) {
	const q = `SELECT id, name, type, created_at, updated_at FROM packages WHERE id = $1`
	var p Package
	err := r.db.QueryRow(ctx, q, id).Scan(&p.ID, &p.Name, &p.Type, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Package{}, shared.ErrNotFound
		}
		return Package{}, err
	}
	return p, nil
}

func (r *repo) CreatePackage(ctx context.Context, p Package) (Package, error) {
	const q = `INSERT INTO packages (name, type) VALUES ($1, $2) RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, q, p.Name, p.Type).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Package{}, mapConstraint(err)
	}
	return p, nil
}

func (r *repo) UpdatePackage(ctx context.Context, id int64, p Package) error {
	const q = `UPDATE packages SET name = $2, type = $3, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, q, id, p.Name, p.Type)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repo) DeletePackage(ctx context.Context, id int64) error {
	var products int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM products WHERE package_id = $1`, id).Scan(&products); err != nil {
		return err
	}
	if products > 0 {
		return shared.ErrInUse
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM packages WHERE id = $1`, id)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repo) ListProducts(ctx context.Context, packageID *int64) ([]Product, error) {
	q := `
		SELECT pr.id, pr.package_id, pk.name, pr.name, pr.rate, pr.unit, pr.created_at, pr.updated_at
		FROM products pr
		JOIN packages pk ON pk.id = pr.package_id`
	args := []any{}
	if packageID != nil {
		q += ` WHERE pr.package_id = $1`
		args = append(args, *packageID)
	}
	q += ` ORDER BY pr.name`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.PackageID, &p.PackageName, &p.Name, &p.Rate, &p.Unit, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repo) GetProduct(ctx context.Context, id int64) (Product, error) {
	const q = `
		SELECT pr.id, pr.package_id, pk.name, pr.name, pr.rate, pr.unit, pr.created_at, pr.updated_at
		FROM products pr
		JOIN packages pk ON pk.id = pr.package_id
		WHERE pr.id = $1`
	var p Product
	err := r.db.QueryRow(ctx, q, id).Scan(&p.ID, &p.PackageID, &p.PackageName, &p.Name, &p.Rate, &p.Unit, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repo) CreateProduct(ctx context.Context, p Product) (Product, error) {
	const q = `
		INSERT INTO products (package_id, name, rate, unit)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, q, p.PackageID, p.Name, p.Rate, p.Unit).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, mapConstraint(err)
	}
	return p, nil
}

func (r *repo) UpdateProduct(ctx context.Context, id int64, p Product) error {
	const q = `
		UPDATE products SET package_id = $2, name = $3, rate = $4, unit = $5, updated_at = now()
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, q, id, p.PackageID, p.Name, p.Rate, p.Unit)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repo) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return shared.ErrDuplicate
		case "23503":
			return shared.ErrInUse
		}
	}
	return err
}
