package repository

import (
	"context"
	"errors"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
	"gorm.io/gorm"
)

// ProductRepository persists the product catalog and per-company prices.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// FindAll returns catalog entries, optionally filtered by status or search.
func (r *ProductRepository) FindAll(ctx context.Context, filters map[string]string) ([]entity.Product, error) {
	var items []entity.Product

	query := r.db.WithContext(ctx).Model(&entity.Product{})
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("product_name ILIKE ? OR cas_number ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	err := query.Order("product_name ASC").Find(&items).Error
	return items, err
}

// FindAllWithPrices returns catalog entries with their company prices.
func (r *ProductRepository) FindAllWithPrices(ctx context.Context) ([]entity.Product, error) {
	var items []entity.Product
	err := r.db.WithContext(ctx).
		Preload("Prices").
		Order("product_name ASC").
		Find(&items).Error
	return items, err
}

// FindByID loads one product.
func (r *ProductRepository) FindByID(ctx context.Context, id uint) (*entity.Product, error) {
	var p entity.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByName loads one product by its unique name.
func (r *ProductRepository) FindByName(ctx context.Context, name string) (*entity.Product, error) {
	var p entity.Product
	err := r.db.WithContext(ctx).Where("product_name = ?", name).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create stores a catalog entry.
func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Save persists catalog mutations.
func (r *ProductRepository) Save(ctx context.Context, p *entity.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// Delete removes a catalog entry and its prices.
func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&entity.ProductPrice{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.Product{}).Error
	})
}

// FindPrice loads the price row for one (product, company) pair.
func (r *ProductRepository) FindPrice(ctx context.Context, productID uint, company string) (*entity.ProductPrice, error) {
	var pp entity.ProductPrice
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND company = ?", productID, company).
		First(&pp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &pp, nil
}

// FindPriceByID loads one price row.
func (r *ProductRepository) FindPriceByID(ctx context.Context, id uint) (*entity.ProductPrice, error) {
	var pp entity.ProductPrice
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&pp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &pp, nil
}

// SavePrice persists one price row.
func (r *ProductRepository) SavePrice(ctx context.Context, pp *entity.ProductPrice) error {
	return r.db.WithContext(ctx).Save(pp).Error
}

// CreatePrice stores one price row.
func (r *ProductRepository) CreatePrice(ctx context.Context, pp *entity.ProductPrice) error {
	return r.db.WithContext(ctx).Create(pp).Error
}

// DeletePrice removes one price row.
func (r *ProductRepository) DeletePrice(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.ProductPrice{}).Error
}

// FindAllPrices returns all price rows with their product.
func (r *ProductRepository) FindAllPrices(ctx context.Context) ([]entity.ProductPrice, error) {
	var items []entity.ProductPrice
	err := r.db.WithContext(ctx).
		Preload("Product").
		Order("id ASC").
		Find(&items).Error
	return items, err
}
