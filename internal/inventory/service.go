package inventory

import (
	"context"
	"fmt"
	"strings"
)

// Service handles inventory business logic.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListPackages returns every package with product counts.
func (s *Service) ListPackages(ctx context.Context) ([]Package, error) {
	return s.repo.ListPackages(ctx)
}

// GetPackage fetches one package.
func (s *Service) GetPackage(ctx context.Context, id int64) (Package, error) {
	return s.repo.GetPackage(ctx, id)
}

// CreatePackage inserts a package with a known type.
func (s *Service) CreatePackage(ctx context.Context, p Package) (Package, error) {
	if err := normalizePackage(&p); err != nil {
		return Package{}, err
	}
	return s.repo.CreatePackage(ctx, p)
}

// UpdatePackage rewrites a package.
func (s *Service) UpdatePackage(ctx context.Context, id int64, p Package) error {
	if err := normalizePackage(&p); err != nil {
		return err
	}
	return s.repo.UpdatePackage(ctx, id, p)
}

// DeletePackage removes an empty package.
func (s *Service) DeletePackage(ctx context.Context, id int64) error {
	return s.repo.DeletePackage(ctx, id)
}

// ListProducts returns products, optionally limited to one package.
func (s *Service) ListProducts(ctx context.Context, packageID *int64) ([]Product, error) {
	return s.repo.ListProducts(ctx, packageID)
}

// GetProduct fetches one product.
func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// CreateProduct inserts a product.
func (s *Service) CreateProduct(ctx context.Context, p Product) (Product, error) {
	if err := normalizeProduct(&p); err != nil {
		return Product{}, err
	}
	return s.repo.CreateProduct(ctx, p)
}

// UpdateProduct rewrites a product.
func (s *Service) UpdateProduct(ctx context.Context, id int64, p Product) error {
	if err := normalizeProduct(&p); err != nil {
		return err
	}
	return s.repo.UpdateProduct(ctx, id, p)
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.DeleteProduct(ctx, id)
}

func normalizePackage(p *Package) error {
	p.Name = strings.TrimSpace(p.Name)
	switch p.Type {
	case PackageCatering, PackageExtra, PackageColdDrink:
	case "":
		p.Type = PackageCatering
	default:
		return fmt.Errorf("unknown package type %q", p.Type)
	}
	return nil
}

func normalizeProduct(p *Product) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Unit = strings.TrimSpace(p.Unit)
	if p.Rate < 0 {
		return fmt.Errorf("product rate must not be negative")
	}
	return nil
}
