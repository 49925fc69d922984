package inventory

import "time"

// Package types group products by how they are billed.
const (
	PackageCatering  = "catering"
	PackageExtra     = "extra"
	PackageColdDrink = "cold_drink"
)

// Package groups billable products, such as the standard catering menu or
// the cold drinks counter.
type Package struct {
	ID           int64
	Name         string
	Type         string
	ProductCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Product is one billable item inside a package.
type Product struct {
	ID          int64
	PackageID   int64
	PackageName string
	Name        string
	Rate        float64
	Unit        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
