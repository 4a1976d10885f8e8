package backend

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository is the persistence surface the backend service depends on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProduct(ctx context.Context, productID string) (*Product, error)
	FindCartLines(ctx context.Context, sessionID string) ([]CartLine, error)
	FindCartLine(ctx context.Context, sessionID, productID string) (*CartLine, error)
	SaveCartLine(ctx context.Context, line *CartLine) error
	DeleteCartLine(ctx context.Context, sessionID, productID string) error
	DeleteCartLines(ctx context.Context, sessionID string) error
	CreateOrder(ctx context.Context, order *OrderRecord) error
	FindOrder(ctx context.Context, orderID string) (*OrderRecord, error)
}

// ErrNoRecord is returned when a lookup finds nothing.
var ErrNoRecord = errors.New("record not found")

type repository struct {
	db *gorm.DB
}

// NewRepository builds a backend repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindProduct(ctx context.Context, productID string) (*Product, error) {
	var product Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoRecord
		}
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindCartLines(ctx context.Context, sessionID string) ([]CartLine, error) {
	var lines []CartLine
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) FindCartLine(ctx context.Context, sessionID, productID string) (*CartLine, error) {
	var line CartLine
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND product_id = ?", sessionID, productID).
		First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoRecord
		}
		return nil, err
	}
	return &line, nil
}

func (r *repository) SaveCartLine(ctx context.Context, line *CartLine) error {
	return r.db.WithContext(ctx).Save(line).Error
}

func (r *repository) DeleteCartLine(ctx context.Context, sessionID, productID string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ? AND product_id = ?", sessionID, productID).
		Delete(&CartLine{}).Error
}

func (r *repository) DeleteCartLines(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&CartLine{}).Error
}

func (r *repository) CreateOrder(ctx context.Context, order *OrderRecord) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindOrder(ctx context.Context, orderID string) (*OrderRecord, error) {
	var order OrderRecord
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoRecord
		}
		return nil, err
	}
	return &order, nil
}
