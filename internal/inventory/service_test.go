package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sahyadri-hs/backoffice/internal/shared"
)

type memoryInventoryRepo struct {
	packages      map[int64]Package
	products      map[int64]Product
	nextPackageID int64
	nextProductID int64
}

func newMemoryInventoryRepo() *memoryInventoryRepo {
	return &memoryInventoryRepo{packages: make(map[int64]Package), products: make(map[int64]Product)}
}

func (r *memoryInventoryRepo) ListPackages(ctx context.Context) ([]Package, error) {
	var out []Package
	for id := int64(1); id <= r.nextPackageID; id++ {
		if pkg, ok := r.packages[id]; ok {
			for _, pr := range r.products {
				if pr.PackageID == id {
					pkg.ProductCount++
				}
			}
			out = append(out, pkg)
		}
	}
	return out, nil
}

func (r *memoryInventoryRepo) GetPackage(ctx context.Context, id int64) (Package, error) {
	pkg, ok := r.packages[id]
	if !ok {
		return Package{}, shared.ErrNotFound
	}
	return pkg, nil
}

func (r *memoryInventoryRepo) CreatePackage(ctx context.Context, p Package) (Package, error) {
	r.nextPackageID++
	p.ID = r.nextPackageID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.packages[p.ID] = p
	return p, nil
}

func (r *memoryInventoryRepo) UpdatePackage(ctx context.Context, id int64, p Package) error {
	if _, ok := r.packages[id]; !ok {
		return shared.ErrNotFound
	}
	p.ID = id
	r.packages[id] = p
	return nil
}

func (r *memoryInventoryRepo) DeletePackage(ctx context.Context, id int64) error {
	if _, ok := r.packages[id]; !ok {
		return shared.ErrNotFound
	}
	for _, pr := range r.products {
		if pr.PackageID == id {
			return shared.ErrInUse
		}
	}
	delete(r.packages, id)
	return nil
}

func (r *memoryInventoryRepo) ListProducts(ctx context.Context, packageID *int64) ([]Product, error) {
	var out []Product
	for id := int64(1); id <= r.nextProductID; id++ {
		pr, ok := r.products[id]
		if !ok {
			continue
		}
		if packageID != nil && pr.PackageID != *packageID {
			continue
		}
		out = append(out, pr)
	}
	return out, nil
}

func (r *memoryInventoryRepo) GetProduct(ctx context.Context, id int64) (Product, error) {
	pr, ok := r.products[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return pr, nil
}

func (r *memoryInventoryRepo) CreateProduct(ctx context.Context, p Product) (Product, error) {
	if _, ok := r.packages[p.PackageID]; !ok {
		return Product{}, shared.ErrInUse
	}
	r.nextProductID++
	p.ID = r.nextProductID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.products[p.ID] = p
	return p, nil
}

func (r *memoryInventoryRepo) UpdateProduct(ctx context.Context, id int64, p Product) error {
	if _, ok := r.products[id]; !ok {
		return shared.ErrNotFound
	}
	p.ID = id
	r.products[id] = p
	return nil
}

func (r *memoryInventoryRepo) DeleteProduct(ctx context.Context, id int64) error {
	if _, ok := r.products[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func TestCreatePackageDefaultsType(t *testing.T) {
	svc := NewService(newMemoryInventoryRepo())
	pkg, err := svc.CreatePackage(context.Background(), Package{Name: " Standard Menu "})
	require.NoError(t, err)
	require.Equal(t, "Standard Menu", pkg.Name)
	require.Equal(t, PackageCatering, pkg.Type)
}

func TestCreatePackageRejectsUnknownType(t *testing.T) {
	svc := NewService(newMemoryInventoryRepo())
	_, err := svc.CreatePackage(context.Background(), Package{Name: "Odd", Type: "snacks"})
	require.Error(t, err)
}

func TestCreateProductRejectsNegativeRate(t *testing.T) {
	repo := newMemoryInventoryRepo()
	svc := NewService(repo)
	pkg, err := svc.CreatePackage(context.Background(), Package{Name: "Drinks", Type: PackageColdDrink})
	require.NoError(t, err)

	_, err = svc.CreateProduct(context.Background(), Product{Name: "Cola", PackageID: pkg.ID, Rate: -5})
	require.Error(t, err)
}

func TestDeletePackageWithProducts(t *testing.T) {
	repo := newMemoryInventoryRepo()
	svc := NewService(repo)
	pkg, err := svc.CreatePackage(context.Background(), Package{Name: "Drinks", Type: PackageColdDrink})
	require.NoError(t, err)
	_, err = svc.CreateProduct(context.Background(), Product{Name: "Cola", PackageID: pkg.ID, Rate: 20})
	require.NoError(t, err)

	require.ErrorIs(t, svc.DeletePackage(context.Background(), pkg.ID), shared.ErrInUse)
}

func TestListProductsByPackage(t *testing.T) {
	repo := newMemoryInventoryRepo()
	svc := NewService(repo)
	pkg1, err := svc.CreatePackage(context.Background(), Package{Name: "Menu"})
	require.NoError(t, err)
	pkg2, err := svc.CreatePackage(context.Background(), Package{Name: "Drinks", Type: PackageColdDrink})
	require.NoError(t, err)
	_, err = svc.CreateProduct(context.Background(), Product{Name: "Thali", PackageID: pkg1.ID, Rate: 120})
	require.NoError(t, err)
	_, err = svc.CreateProduct(context.Background(), Product{Name: "Cola", PackageID: pkg2.ID, Rate: 20})
	require.NoError(t, err)

	products, err := svc.ListProducts(context.Background(), &pkg2.ID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "Cola", products[0].Name)
}
