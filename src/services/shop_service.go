package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hossamsharif/shopledger/backend/src/database"
	"github.com/hossamsharif/shopledger/backend/src/logger"
	"github.com/hossamsharif/shopledger/backend/src/models"
	"github.com/hossamsharif/shopledger/backend/src/security/validation"
)

type shopServiceImpl struct {
	now func() time.Time
}

func NewShopService() ShopService {
	return &shopServiceImpl{now: time.Now}
}

func (s *shopServiceImpl) GetShop(shopID int64) (*models.Shop, error) {
	var shop models.Shop
	err := database.DB.QueryRow(`
		SELECT id, shop_code, name_ar, name_en, is_active, created_at, updated_at
		FROM shops WHERE id = ?`, shopID).
		Scan(&shop.ID, &shop.ShopCode, &shop.NameAr, &shop.NameEn, &shop.IsActive, &shop.CreatedAt, &shop.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("shop %d: %w", shopID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying shop %d: %w", shopID, err)
	}
	return &shop, nil
}

func (s *shopServiceImpl) CreateShop(input models.CreateShopInput) (*models.Shop, error) {
	shopCode := validation.CleanText(input.ShopCode)
	nameAr := validation.CleanText(input.NameAr)
	nameEn := validation.CleanText(input.NameEn)
	if shopCode == "" || nameAr == "" || nameEn == "" {
		return nil, fmt.Errorf("shop code and both names are required: %w", ErrInvalid)
	}

	now := s.now()
	res, err := database.DB.Exec(`
		INSERT INTO shops (shop_code, name_ar, name_en, is_active, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)`,
		shopCode, nameAr, nameEn, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("shop code %q already exists: %w", shopCode, ErrConflict)
		}
		return nil, fmt.Errorf("inserting shop: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new shop id: %w", err)
	}
	logger.L.Info("Shop created", "shopID", id, "shopCode", shopCode)
	return s.GetShop(id)
}
