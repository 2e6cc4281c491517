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

const yearColumns = `id, shop_id, name, start_date, end_date, opening_stock_value,
	closing_stock_value, is_current, is_closed, created_at, updated_at`

const dateLayout = "2006-01-02"

type financialYearServiceImpl struct {
	profit ProfitService
	now    func() time.Time
}

// NewFinancialYearService builds the year lifecycle service. The profit
// service is consulted for advisory closure validation only.
func NewFinancialYearService(profit ProfitService) FinancialYearService {
	return &financialYearServiceImpl{
		profit: profit,
		now:    time.Now,
	}
}

func scanFinancialYear(row interface{ Scan(...any) error }) (*models.FinancialYear, error) {
	var y models.FinancialYear
	var closing sql.NullFloat64
	err := row.Scan(&y.ID, &y.ShopID, &y.Name, &y.StartDate, &y.EndDate, &y.OpeningStockValue,
		&closing, &y.IsCurrent, &y.IsClosed, &y.CreatedAt, &y.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if closing.Valid {
		y.ClosingStockValue = &closing.Float64
	}
	return &y, nil
}

func (s *financialYearServiceImpl) GetFinancialYear(shopID, yearID int64) (*models.FinancialYear, error) {
	row := database.DB.QueryRow(`SELECT `+yearColumns+` FROM financial_years WHERE id = ? AND shop_id = ?`, yearID, shopID)
	year, err := scanFinancialYear(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("financial year %d: %w", yearID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying financial year %d: %w", yearID, err)
	}
	return year, nil
}

func (s *financialYearServiceImpl) ListFinancialYears(shopID int64) ([]models.FinancialYear, error) {
	rows, err := database.DB.Query(`SELECT `+yearColumns+` FROM financial_years WHERE shop_id = ? ORDER BY start_date DESC`, shopID)
	if err != nil {
		return nil, fmt.Errorf("querying financial years for shop %d: %w", shopID, err)
	}
	defer rows.Close()

	var years []models.FinancialYear
	for rows.Next() {
		y, err := scanFinancialYear(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning financial year: %w", err)
		}
		years = append(years, *y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating financial years: %w", err)
	}
	if years == nil {
		years = []models.FinancialYear{}
	}
	return years, nil
}

func validateDateRange(startDate, endDate string) error {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return fmt.Errorf("start date %q is not a valid date: %w", startDate, ErrInvalid)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return fmt.Errorf("end date %q is not a valid date: %w", endDate, ErrInvalid)
	}
	if !end.After(start) {
		return fmt.Errorf("end date must be after start date: %w", ErrInvalid)
	}
	return nil
}

// checkOverlap rejects a [startDate, endDate] range that intersects any
// existing year of the shop. excludeID skips the year being updated.
func (s *financialYearServiceImpl) checkOverlap(shopID int64, startDate, endDate string, excludeID int64) error {
	var count int
	err := database.DB.QueryRow(`
		SELECT COUNT(*) FROM financial_years
		WHERE shop_id = ? AND id != ? AND start_date <= ? AND end_date >= ?`,
		shopID, excludeID, endDate, startDate).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking year overlap: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("date range %s..%s overlaps an existing financial year: %w", startDate, endDate, ErrConflict)
	}
	return nil
}

func (s *financialYearServiceImpl) CreateFinancialYear(shopID int64, input models.CreateFinancialYearInput) (*models.FinancialYear, error) {
	name := validation.CleanText(input.Name)
	if name == "" {
		return nil, fmt.Errorf("year name is required: %w", ErrInvalid)
	}
	if input.OpeningStockValue < 0 {
		return nil, fmt.Errorf("opening stock value cannot be negative: %w", ErrInvalid)
	}
	if err := validateDateRange(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}
	if err := s.checkOverlap(shopID, input.StartDate, input.EndDate, 0); err != nil {
		return nil, err
	}

	// The new year becomes current automatically iff the shop has no current
	// year among its non-closed ones.
	var currentCount int
	err := database.DB.QueryRow(
		`SELECT COUNT(*) FROM financial_years WHERE shop_id = ? AND is_current = 1 AND is_closed = 0`,
		shopID).Scan(&currentCount)
	if err != nil {
		return nil, fmt.Errorf("counting current years: %w", err)
	}
	isCurrent := currentCount == 0

	now := s.now()
	res, err := database.DB.Exec(`
		INSERT INTO financial_years (shop_id, name, start_date, end_date, opening_stock_value,
			closing_stock_value, is_current, is_closed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NULL, ?, 0, ?, ?)`,
		shopID, name, input.StartDate, input.EndDate, input.OpeningStockValue, isCurrent, now, now)
	if err != nil {
		return nil, fmt.Errorf("inserting financial year: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new financial year id: %w", err)
	}
	logger.L.Info("Financial year created", "shopID", shopID, "yearID", id, "name", name, "isCurrent", isCurrent)
	return s.GetFinancialYear(shopID, id)
}

func (s *financialYearServiceImpl) UpdateFinancialYear(shopID, yearID int64, input models.UpdateFinancialYearInput) (*models.FinancialYear, error) {
	year, err := s.GetFinancialYear(shopID, yearID)
	if err != nil {
		return nil, err
	}
	if year.IsClosed {
		return nil, fmt.Errorf("financial year %d is closed: %w", yearID, ErrForbidden)
	}

	name := year.Name
	if input.Name != nil {
		name = validation.CleanText(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("year name cannot be empty: %w", ErrInvalid)
		}
	}
	startDate := year.StartDate
	endDate := year.EndDate
	if input.StartDate != nil {
		startDate = *input.StartDate
	}
	if input.EndDate != nil {
		endDate = *input.EndDate
	}
	if startDate != year.StartDate || endDate != year.EndDate {
		if err := validateDateRange(startDate, endDate); err != nil {
			return nil, err
		}
		if err := s.checkOverlap(shopID, startDate, endDate, yearID); err != nil {
			return nil, err
		}
	}

	_, err = database.DB.Exec(`
		UPDATE financial_years SET name = ?, start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ? AND shop_id = ?`,
		name, startDate, endDate, s.now(), yearID, shopID)
	if err != nil {
		return nil, fmt.Errorf("updating financial year %d: %w", yearID, err)
	}
	return s.GetFinancialYear(shopID, yearID)
}

// SetCurrentYear promotes a year to current. Every other year of the shop is
// demoted in the same transaction, so no observable state has zero or
// multiple current years.
func (s *financialYearServiceImpl) SetCurrentYear(shopID, yearID int64) error {
	year, err := s.GetFinancialYear(shopID, yearID)
	if err != nil {
		return err
	}
	if year.IsClosed {
		return fmt.Errorf("closed financial year %d cannot be current: %w", yearID, ErrForbidden)
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return fmt.Errorf("beginning set-current transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE financial_years SET is_current = 0 WHERE shop_id = ? AND id != ?`, shopID, yearID); err != nil {
		return fmt.Errorf("demoting other years: %w", err)
	}
	if _, err := tx.Exec(`UPDATE financial_years SET is_current = 1, updated_at = ? WHERE id = ? AND shop_id = ?`, s.now(), yearID, shopID); err != nil {
		return fmt.Errorf("promoting year %d: %w", yearID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing set-current: %w", err)
	}
	logger.L.Info("Current financial year changed", "shopID", shopID, "yearID", yearID)
	return nil
}

// writeStockValue applies one stock-value change and its audit row using the
// given transaction. The audit row is mandatory, never best-effort.
func (s *financialYearServiceImpl) writeStockValue(tx *sql.Tx, year *models.FinancialYear, field models.StockValueField, newValue float64, userID int64) error {
	var oldValue float64
	var column string
	switch field {
	case models.StockFieldOpening:
		oldValue = year.OpeningStockValue
		column = "opening_stock_value"
	case models.StockFieldClosing:
		if year.ClosingStockValue != nil {
			oldValue = *year.ClosingStockValue
		}
		column = "closing_stock_value"
	default:
		return fmt.Errorf("unknown stock value field %q: %w", field, ErrInvalid)
	}

	now := s.now()
	if _, err := tx.Exec(`
		INSERT INTO stock_value_history (financial_year_id, field_changed, old_value, new_value, changed_by, changed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		year.ID, field, oldValue, newValue, userID, now); err != nil {
		return fmt.Errorf("appending stock value history: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE financial_years SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		newValue, now, year.ID); err != nil {
		return fmt.Errorf("updating %s: %w", column, err)
	}
	return nil
}

func (s *financialYearServiceImpl) updateStockValue(shopID, yearID int64, field models.StockValueField, value float64, userID int64) error {
	if value < 0 {
		return fmt.Errorf("stock value cannot be negative: %w", ErrInvalid)
	}
	year, err := s.GetFinancialYear(shopID, yearID)
	if err != nil {
		return err
	}
	if year.IsClosed {
		return fmt.Errorf("financial year %d is closed: %w", yearID, ErrForbidden)
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return fmt.Errorf("beginning stock value transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.writeStockValue(tx, year, field, value, userID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing stock value update: %w", err)
	}
	s.profit.InvalidateShopCache(shopID)
	logger.L.Info("Stock value updated", "shopID", shopID, "yearID", yearID, "field", field, "newValue", value)
	return nil
}

func (s *financialYearServiceImpl) UpdateOpeningStockValue(shopID, yearID int64, value float64, userID int64) error {
	return s.updateStockValue(shopID, yearID, models.StockFieldOpening, value, userID)
}

func (s *financialYearServiceImpl) UpdateClosingStockValue(shopID, yearID int64, value float64, userID int64) error {
	return s.updateStockValue(shopID, yearID, models.StockFieldClosing, value, userID)
}

// BulkUpdateStockValues validates the whole batch before any write begins,
// then applies every update with its audit row inside one transaction. A
// failure midway rolls back the entire batch.
func (s *financialYearServiceImpl) BulkUpdateStockValues(shopID int64, updates []models.StockValueUpdate, userID int64) error {
	if len(updates) == 0 {
		return fmt.Errorf("empty update batch: %w", ErrInvalid)
	}

	years := make([]*models.FinancialYear, len(updates))
	for i, u := range updates {
		if u.NewValue < 0 {
			return fmt.Errorf("stock value for year %d cannot be negative: %w", u.FinancialYearID, ErrInvalid)
		}
		if u.Field != models.StockFieldOpening && u.Field != models.StockFieldClosing {
			return fmt.Errorf("unknown stock value field %q: %w", u.Field, ErrInvalid)
		}
		year, err := s.GetFinancialYear(shopID, u.FinancialYearID)
		if err != nil {
			return err
		}
		if year.IsClosed {
			return fmt.Errorf("financial year %d is closed: %w", u.FinancialYearID, ErrForbidden)
		}
		years[i] = year
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return fmt.Errorf("beginning bulk stock value transaction: %w", err)
	}
	defer tx.Rollback()

	for i, u := range updates {
		if err := s.writeStockValue(tx, years[i], u.Field, u.NewValue, userID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing bulk stock value update: %w", err)
	}
	s.profit.InvalidateShopCache(shopID)
	logger.L.Info("Bulk stock values updated", "shopID", shopID, "count", len(updates))
	return nil
}

// CloseFinancialYear closes a year irreversibly, capturing the final closing
// stock value and its audit row in one transaction. The current year cannot
// be closed; another year must be promoted first.
func (s *financialYearServiceImpl) CloseFinancialYear(shopID, yearID int64, closingStockValue float64, userID int64) error {
	if closingStockValue < 0 {
		return fmt.Errorf("closing stock value cannot be negative: %w", ErrInvalid)
	}
	year, err := s.GetFinancialYear(shopID, yearID)
	if err != nil {
		return err
	}
	if year.IsClosed {
		return fmt.Errorf("financial year %d is already closed: %w", yearID, ErrConflict)
	}
	if year.IsCurrent {
		return fmt.Errorf("financial year %d is the current year, promote another year first: %w", yearID, ErrForbidden)
	}

	// Advisory only: warnings are logged, the closure proceeds regardless.
	if closure, err := s.profit.ValidateYearClosure(shopID, yearID, closingStockValue); err != nil {
		logger.L.Warn("Closure validation failed to run", "shopID", shopID, "yearID", yearID, "error", err)
	} else if !closure.IsValid {
		logger.L.Warn("Closing year with validation warnings", "shopID", shopID, "yearID", yearID, "warnings", closure.Warnings)
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return fmt.Errorf("beginning close transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.writeStockValue(tx, year, models.StockFieldClosing, closingStockValue, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`UPDATE financial_years SET is_closed = 1, updated_at = ? WHERE id = ?`,
		s.now(), yearID); err != nil {
		return fmt.Errorf("marking year %d closed: %w", yearID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing year close: %w", err)
	}
	s.profit.InvalidateShopCache(shopID)
	logger.L.Info("Financial year closed", "shopID", shopID, "yearID", yearID, "closingStockValue", closingStockValue)
	return nil
}

// DeleteFinancialYear removes a year that is not closed, not current and has
// no postings. Anything else is refused.
func (s *financialYearServiceImpl) DeleteFinancialYear(shopID, yearID int64) error {
	year, err := s.GetFinancialYear(shopID, yearID)
	if err != nil {
		return err
	}
	if year.IsClosed {
		return fmt.Errorf("closed financial year %d cannot be deleted: %w", yearID, ErrForbidden)
	}
	if year.IsCurrent {
		return fmt.Errorf("current financial year %d cannot be deleted: %w", yearID, ErrForbidden)
	}

	var postingCount int
	if err := database.DB.QueryRow(`SELECT COUNT(*) FROM transactions WHERE financial_year_id = ?`, yearID).Scan(&postingCount); err != nil {
		return fmt.Errorf("counting postings of year %d: %w", yearID, err)
	}
	if postingCount > 0 {
		return fmt.Errorf("financial year %d has %d postings: %w", yearID, postingCount, ErrForbidden)
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return fmt.Errorf("beginning year delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM stock_value_history WHERE financial_year_id = ?`, yearID); err != nil {
		return fmt.Errorf("deleting stock value history of year %d: %w", yearID, err)
	}
	if _, err := tx.Exec(`DELETE FROM financial_years WHERE id = ? AND shop_id = ?`, yearID, shopID); err != nil {
		return fmt.Errorf("deleting financial year %d: %w", yearID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing year delete: %w", err)
	}
	s.profit.InvalidateShopCache(shopID)
	logger.L.Info("Financial year deleted", "shopID", shopID, "yearID", yearID)
	return nil
}

// ValidateTransactionYear is the posting-path gate: it passes only for an
// existing, non-closed year of the shop.
func (s *financialYearServiceImpl) ValidateTransactionYear(shopID, yearID int64) error {
	year, err := s.GetFinancialYear(shopID, yearID)
	if err != nil {
		return err
	}
	if year.IsClosed {
		return fmt.Errorf("financial year %d is closed: %w", yearID, ErrForbidden)
	}
	return nil
}

func (s *financialYearServiceImpl) ListStockValueHistory(shopID, yearID int64) ([]models.StockValueHistory, error) {
	if _, err := s.GetFinancialYear(shopID, yearID); err != nil {
		return nil, err
	}
	rows, err := database.DB.Query(`
		SELECT id, financial_year_id, field_changed, old_value, new_value, changed_by, changed_at
		FROM stock_value_history WHERE financial_year_id = ?
		ORDER BY changed_at DESC, id DESC`, yearID)
	if err != nil {
		return nil, fmt.Errorf("querying stock value history: %w", err)
	}
	defer rows.Close()

	var history []models.StockValueHistory
	for rows.Next() {
		var h models.StockValueHistory
		if err := rows.Scan(&h.ID, &h.FinancialYearID, &h.FieldChanged, &h.OldValue, &h.NewValue, &h.ChangedBy, &h.ChangedAt); err != nil {
			return nil, fmt.Errorf("scanning stock value history row: %w", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stock value history: %w", err)
	}
	if history == nil {
		history = []models.StockValueHistory{}
	}
	return history, nil
}
