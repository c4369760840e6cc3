package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/techupgradenow/edumanage/internal/models"
	"github.com/techupgradenow/edumanage/internal/utils"
	"github.com/techupgradenow/edumanage/pkg/logger"
	"github.com/techupgradenow/edumanage/pkg/response"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const scopeCondition = "(dc.institution_type_id = ? OR dc.institution_type_id IS NULL)"

// DropdownService is the read and write surface of the category/value
// taxonomy. Every successful write invalidates the bulk cache before it
// returns.
type DropdownService struct {
	db    *gorm.DB
	cache DropdownCache
	// epoch changes on every write; a bulk result computed across a change
	// is not cached. cacheMu orders cache stores against invalidation.
	epoch   atomic.Uint64
	cacheMu sync.Mutex
	loads   singleflight.Group
}

func NewDropdownService(db *gorm.DB, cache DropdownCache) *DropdownService {
	if cache == nil {
		cache = NoopDropdownCache{}
	}
	return &DropdownService{db: db, cache: cache}
}

// CategoryInfo is the public description of a category.
type CategoryInfo struct {
	ID           uint   `json:"id"`
	CategoryKey  string `json:"category_key"`
	CategoryName string `json:"category_name"`
	Description  string `json:"description"`
	IsSystem     bool   `json:"is_system"`
}

// CategorySummary is a category row as listed for an institution type.
type CategorySummary struct {
	CategoryInfo
	IsActive          bool    `json:"is_active"`
	InstitutionTypeID *uint   `json:"institution_type_id"`
	InstitutionType   *string `json:"institution_type"`
	ValueCount        int64   `json:"value_count"`
}

type ValueItem struct {
	ID           uint           `json:"id"`
	Value        string         `json:"value"`
	DisplayOrder int            `json:"display_order"`
	ParentID     *uint          `json:"parent_id"`
	Metadata     datatypes.JSON `json:"metadata"`
	IsActive     bool           `json:"is_active"`
}

// ValueRow is a value together with the category it belongs to.
type ValueRow struct {
	ValueItem
	CategoryID        uint   `json:"category_id"`
	CategoryKey       string `json:"category_key"`
	CategoryName      string `json:"category_name"`
	InstitutionTypeID *uint  `json:"institution_type_id"`
	ScopeID           uint   `json:"-"`
}

type ValueGroup struct {
	CategoryKey  string      `json:"category_key"`
	CategoryName string      `json:"category_name"`
	Values       []ValueItem `json:"values"`
}

type ValueFilter struct {
	CategoryKey string
	ParentID    *uint
	ActiveOnly  bool
}

// ValueListing holds either a flat list (a category key was given) or the
// values grouped by category key.
type ValueListing struct {
	Values []ValueRow
	Groups map[string]*ValueGroup
}

func (l *ValueListing) Grouped() bool {
	return l.Groups != nil
}

type CategoryValues struct {
	Category *CategoryInfo `json:"category"`
	Values   []ValueRow    `json:"values"`
}

type BulkValue struct {
	ID           uint           `json:"id"`
	Value        string         `json:"value"`
	DisplayOrder int            `json:"display_order"`
	ParentID     *uint          `json:"parent_id"`
	Metadata     datatypes.JSON `json:"metadata"`
}

type BulkCategory struct {
	CategoryID   uint        `json:"category_id"`
	CategoryKey  string      `json:"category_key"`
	CategoryName string      `json:"category_name"`
	IsSystem     bool        `json:"is_system"`
	Values       []BulkValue `json:"values"`
}

// AllDropdowns is the one-round-trip view of every active category visible
// to an institution type.
type AllDropdowns struct {
	InstitutionType string                   `json:"institution_type"`
	Dropdowns       map[string]*BulkCategory `json:"dropdowns"`
}

// ListCategories returns active categories visible to inst with their active
// value counts, ordered by name.
func (s *DropdownService) ListCategories(ctx context.Context, inst *Institution) ([]CategorySummary, error) {
	var out []CategorySummary
	err := s.db.WithContext(ctx).
		Table("dropdown_categories AS dc").
		Select(`dc.id, dc.category_key, dc.category_name, dc.description, dc.is_system, dc.is_active,
			dc.institution_type_id, it.name AS institution_type,
			(SELECT COUNT(*) FROM dropdown_values dv WHERE dv.category_id = dc.id AND dv.is_active = ?) AS value_count`, true).
		Joins("LEFT JOIN institution_types it ON it.id = dc.institution_type_id").
		Where(scopeCondition+" AND dc.is_active = ?", inst.ID, true).
		Order("dc.category_name, dc.id").
		Scan(&out).Error
	if err != nil {
		return nil, response.NewDataAccess("Error fetching categories", err)
	}
	if out == nil {
		out = []CategorySummary{}
	}
	return out, nil
}

// visibleCategories lists the active categories an institution type can see.
func visibleCategories(ctx context.Context, db *gorm.DB, institutionTypeID uint) ([]CategoryInfo, error) {
	out := []CategoryInfo{}
	err := db.WithContext(ctx).
		Table("dropdown_categories AS dc").
		Select("dc.id, dc.category_key, dc.category_name, dc.description, dc.is_system").
		Where(scopeCondition+" AND dc.is_active = ?", institutionTypeID, true).
		Order("dc.category_name, dc.id").
		Scan(&out).Error
	return out, err
}

// lookupCategory finds the active category for key as seen by inst. When the
// key exists both scoped to inst and shared, the scoped row wins.
func lookupCategory(ctx context.Context, db *gorm.DB, inst *Institution, key string) (*models.DropdownCategory, error) {
	var cat models.DropdownCategory
	err := db.WithContext(ctx).
		Table("dropdown_categories AS dc").
		Where("dc.category_key = ? AND "+scopeCondition+" AND dc.is_active = ?", key, inst.ID, true).
		Order("dc.scope_id DESC").
		Take(&cat).Error
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// GetCategoryByKey returns the category key resolves to for inst.
func (s *DropdownService) GetCategoryByKey(ctx context.Context, inst *Institution, key string) (*CategoryInfo, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, response.NewValidation("Category key is required")
	}

	cat, err := lookupCategory(ctx, s.db, inst, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("Category not found")
	}
	if err != nil {
		return nil, response.NewDataAccess("Error fetching dropdown", err)
	}
	return &CategoryInfo{
		ID:           cat.ID,
		CategoryKey:  cat.CategoryKey,
		CategoryName: cat.CategoryName,
		Description:  cat.Description,
		IsSystem:     cat.IsSystem,
	}, nil
}

// ByCategory returns one category and its active values.
func (s *DropdownService) ByCategory(ctx context.Context, inst *Institution, key string) (*CategoryValues, error) {
	info, err := s.GetCategoryByKey(ctx, inst, key)
	if err != nil {
		return nil, err
	}
	values, err := s.categoryValues(ctx, info.ID, nil, true)
	if err != nil {
		return nil, response.NewDataAccess("Error fetching dropdown", err)
	}
	return &CategoryValues{Category: info, Values: values}, nil
}

func (s *DropdownService) valueQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("dropdown_values AS dv").
		Select(`dv.id, dv.value, dv.display_order, dv.parent_id, dv.metadata, dv.is_active,
			dc.id AS category_id, dc.category_key, dc.category_name, dc.institution_type_id, dc.scope_id`).
		Joins("JOIN dropdown_categories dc ON dc.id = dv.category_id")
}

func (s *DropdownService) categoryValues(ctx context.Context, categoryID uint, parentID *uint, activeOnly bool) ([]ValueRow, error) {
	q := s.valueQuery(ctx).Where("dv.category_id = ?", categoryID)
	if parentID != nil {
		q = q.Where("dv.parent_id = ?", *parentID)
	}
	if activeOnly {
		q = q.Where("dv.is_active = ?", true)
	}

	rows := []ValueRow{}
	if err := q.Order("dv.display_order, dv.value").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListValues lists values visible to inst. With a category key the result is
// a flat list ordered by display order then text; without one the values are
// grouped by category key.
func (s *DropdownService) ListValues(ctx context.Context, inst *Institution, filter *ValueFilter) (*ValueListing, error) {
	if filter == nil {
		filter = &ValueFilter{ActiveOnly: true}
	}
	key := strings.TrimSpace(filter.CategoryKey)

	if key != "" {
		cat, err := lookupCategory(ctx, s.db, inst, key)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ValueListing{Values: []ValueRow{}}, nil
		}
		if err != nil {
			return nil, response.NewDataAccess("Error fetching dropdown values", err)
		}
		rows, err := s.categoryValues(ctx, cat.ID, filter.ParentID, filter.ActiveOnly)
		if err != nil {
			return nil, response.NewDataAccess("Error fetching dropdown values", err)
		}
		return &ValueListing{Values: rows}, nil
	}

	q := s.valueQuery(ctx).Where(scopeCondition, inst.ID)
	if filter.ParentID != nil {
		q = q.Where("dv.parent_id = ?", *filter.ParentID)
	}
	if filter.ActiveOnly {
		q = q.Where("dv.is_active = ?", true)
	}

	var rows []ValueRow
	if err := q.Order("dc.category_name, dv.display_order, dv.value").Scan(&rows).Error; err != nil {
		return nil, response.NewDataAccess("Error fetching dropdown values", err)
	}

	winners := make(map[string]ValueRow)
	for _, r := range rows {
		if w, ok := winners[r.CategoryKey]; !ok || r.ScopeID > w.ScopeID {
			winners[r.CategoryKey] = r
		}
	}

	groups := make(map[string]*ValueGroup)
	for _, r := range rows {
		if winners[r.CategoryKey].CategoryID != r.CategoryID {
			continue
		}
		g, ok := groups[r.CategoryKey]
		if !ok {
			g = &ValueGroup{CategoryKey: r.CategoryKey, CategoryName: r.CategoryName, Values: []ValueItem{}}
			groups[r.CategoryKey] = g
		}
		g.Values = append(g.Values, r.ValueItem)
	}
	return &ValueListing{Groups: groups}, nil
}

type bulkRow struct {
	CategoryID   uint
	CategoryKey  string
	CategoryName string
	IsSystem     bool
	ScopeID      uint
	ValueID      *uint
	Value        *string
	DisplayOrder *int
	ParentID     *uint
	Metadata     datatypes.JSON
}

// BulkFetchAll returns every active category visible to inst with its active
// values, categories without values included. Results are served from the
// cache when present; concurrent misses for one type share a single query.
//
// Entries are keyed by type id, so names that fall back to the default type
// share its entry; the returned copy carries the requested name.
func (s *DropdownService) BulkFetchAll(ctx context.Context, inst *Institution) (*AllDropdowns, error) {
	if cached, ok := s.cache.Get(ctx, inst.ID); ok {
		return withTypeName(cached, inst.Name), nil
	}

	// a load started before a write must not be joined by a read that
	// starts after it
	epoch := s.epoch.Load()
	key := fmt.Sprintf("%d:%d", inst.ID, epoch)
	v, err, _ := s.loads.Do(key, func() (interface{}, error) {
		return s.loadAll(context.WithoutCancel(ctx), inst, epoch)
	})
	if err != nil {
		return nil, err
	}
	return withTypeName(v.(*AllDropdowns), inst.Name), nil
}

func withTypeName(all *AllDropdowns, name string) *AllDropdowns {
	if all.InstitutionType == name {
		return all
	}
	out := *all
	out.InstitutionType = name
	return &out
}

func (s *DropdownService) loadAll(ctx context.Context, inst *Institution, epoch uint64) (*AllDropdowns, error) {

	var rows []bulkRow
	err := s.db.WithContext(ctx).
		Table("dropdown_categories AS dc").
		Select(`dc.id AS category_id, dc.category_key, dc.category_name, dc.is_system, dc.scope_id,
			dv.id AS value_id, dv.value, dv.display_order, dv.parent_id, dv.metadata`).
		Joins("LEFT JOIN dropdown_values dv ON dv.category_id = dc.id AND dv.is_active = ?", true).
		Where(scopeCondition+" AND dc.is_active = ?", inst.ID, true).
		Order("dc.scope_id DESC, dc.category_name, dv.display_order, dv.value").
		Scan(&rows).Error
	if err != nil {
		return nil, response.NewDataAccess("Error fetching dropdowns", err)
	}

	all := &AllDropdowns{InstitutionType: inst.Name, Dropdowns: make(map[string]*BulkCategory)}
	for _, r := range rows {
		cat, ok := all.Dropdowns[r.CategoryKey]
		if !ok {
			cat = &BulkCategory{
				CategoryID:   r.CategoryID,
				CategoryKey:  r.CategoryKey,
				CategoryName: r.CategoryName,
				IsSystem:     r.IsSystem,
				Values:       []BulkValue{},
			}
			all.Dropdowns[r.CategoryKey] = cat
		}
		// scoped rows sort first and shadow a shared category with the same key
		if cat.CategoryID != r.CategoryID || r.ValueID == nil {
			continue
		}
		v := BulkValue{ID: *r.ValueID, ParentID: r.ParentID, Metadata: r.Metadata}
		if r.Value != nil {
			v.Value = *r.Value
		}
		if r.DisplayOrder != nil {
			v.DisplayOrder = *r.DisplayOrder
		}
		cat.Values = append(cat.Values, v)
	}

	s.cacheMu.Lock()
	if s.epoch.Load() == epoch {
		s.cache.Set(ctx, inst.ID, all)
	}
	s.cacheMu.Unlock()
	return all, nil
}

type AddValueRequest struct {
	CategoryKey string         `json:"category_key" binding:"required"`
	Value       string         `json:"value" binding:"required"`
	ParentID    *uint          `json:"parent_id"`
	Metadata    datatypes.JSON `json:"metadata"`
}

type AddValueResponse struct {
	ID           uint   `json:"id"`
	Value        string `json:"value"`
	CategoryKey  string `json:"category_key"`
	CategoryName string `json:"category_name"`
}

// AddValue appends a value to the category key resolves to for inst, with
// display order one past the current maximum.
func (s *DropdownService) AddValue(ctx context.Context, inst *Institution, req *AddValueRequest) (*AddValueResponse, error) {
	key := strings.TrimSpace(req.CategoryKey)
	value := strings.TrimSpace(req.Value)
	if key == "" {
		return nil, response.NewValidation("Category key is required")
	}
	if value == "" {
		return nil, response.NewValidation("Value cannot be empty")
	}

	cat, err := lookupCategory(ctx, s.db, inst, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("Invalid category")
	}
	if err != nil {
		return nil, response.NewDataAccess("Error adding value", err)
	}

	duplicate := response.NewConflict("This value already exists in " + cat.CategoryName)
	row := models.DropdownValue{
		CategoryID: cat.ID,
		Value:      value,
		ValueKey:   utils.ValueKey(value),
		ParentID:   req.ParentID,
		Metadata:   normalizeMetadata(req.Metadata),
		IsActive:   true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.DropdownValue{}).
			Where("category_id = ? AND value_key = ?", cat.ID, row.ValueKey).
			Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			return duplicate
		}

		if req.ParentID != nil {
			if err := checkParent(tx, cat.ID, *req.ParentID); err != nil {
				return err
			}
		}

		var maxOrder int
		if err := tx.Model(&models.DropdownValue{}).
			Where("category_id = ?", cat.ID).
			Select("COALESCE(MAX(display_order), 0)").
			Scan(&maxOrder).Error; err != nil {
			return err
		}
		row.DisplayOrder = maxOrder + 1

		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, writeError(err, duplicate, "Error adding value")
	}

	s.invalidate(ctx)
	return &AddValueResponse{
		ID:           row.ID,
		Value:        row.Value,
		CategoryKey:  cat.CategoryKey,
		CategoryName: cat.CategoryName,
	}, nil
}

func checkParent(tx *gorm.DB, categoryID, parentID uint) error {
	var count int64
	if err := tx.Model(&models.DropdownValue{}).
		Where("id = ? AND category_id = ?", parentID, categoryID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return response.NewValidation("Parent value must belong to the same category")
	}
	return nil
}

func normalizeMetadata(m datatypes.JSON) datatypes.JSON {
	if len(m) == 0 || string(m) == "null" {
		return nil
	}
	return m
}

type AddCategoryRequest struct {
	CategoryKey       string `json:"category_key" binding:"required"`
	CategoryName      string `json:"category_name" binding:"required"`
	InstitutionTypeID *uint  `json:"institution_type_id"`
	Description       string `json:"description"`
}

// AddCategory creates a non-system category. The key is normalized first;
// uniqueness is checked on the normalized key within its scope.
func (s *DropdownService) AddCategory(ctx context.Context, req *AddCategoryRequest) (*models.DropdownCategory, error) {
	key := utils.NormalizeCategoryKey(req.CategoryKey)
	name := strings.TrimSpace(req.CategoryName)
	if key == "" || name == "" {
		return nil, response.NewValidation("Category key and name cannot be empty")
	}

	duplicate := response.NewConflict("A category with this key already exists")
	cat := models.DropdownCategory{
		CategoryKey:       key,
		CategoryName:      name,
		InstitutionTypeID: req.InstitutionTypeID,
		Description:       strings.TrimSpace(req.Description),
		IsSystem:          false,
		IsActive:          true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.InstitutionTypeID != nil {
			var count int64
			if err := tx.Model(&models.InstitutionType{}).Where("id = ?", *req.InstitutionTypeID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return response.NewValidation("Invalid institution type")
			}
		}

		var exists int64
		if err := tx.Model(&models.DropdownCategory{}).
			Where("category_key = ? AND scope_id = ?", key, models.CategoryScope(req.InstitutionTypeID)).
			Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			return duplicate
		}
		return tx.Create(&cat).Error
	})
	if err != nil {
		return nil, writeError(err, duplicate, "Error creating category")
	}

	s.invalidate(ctx)
	return &cat, nil
}

type UpdateValueRequest struct {
	ID           uint            `json:"id" binding:"required"`
	Value        *string         `json:"value"`
	DisplayOrder *int            `json:"display_order"`
	IsActive     *bool           `json:"is_active"`
	Metadata     *datatypes.JSON `json:"metadata"`
}

// UpdateValue applies a partial update. A changed value is checked for
// duplicates within the row's own category.
func (s *DropdownService) UpdateValue(ctx context.Context, req *UpdateValueRequest) (*models.DropdownValue, error) {
	if req.ID == 0 {
		return nil, response.NewValidation("Value ID is required")
	}

	updates := map[string]interface{}{}
	if req.Value != nil {
		value := strings.TrimSpace(*req.Value)
		if value == "" {
			return nil, response.NewValidation("Value cannot be empty")
		}
		updates["value"] = value
		updates["value_key"] = utils.ValueKey(value)
	}
	if req.DisplayOrder != nil {
		updates["display_order"] = *req.DisplayOrder
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Metadata != nil {
		updates["metadata"] = normalizeMetadata(*req.Metadata)
	}
	if len(updates) == 0 {
		return nil, response.NewValidation("No fields to update")
	}

	duplicate := response.NewConflict("This value already exists")
	var row models.DropdownValue

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, req.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("Value not found")
			}
			return err
		}

		if valueKey, ok := updates["value_key"]; ok {
			var exists int64
			if err := tx.Model(&models.DropdownValue{}).
				Where("category_id = ? AND value_key = ? AND id <> ?", row.CategoryID, valueKey, row.ID).
				Count(&exists).Error; err != nil {
				return err
			}
			if exists > 0 {
				return duplicate
			}
		}

		if err := tx.Model(&row).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&row, req.ID).Error
	})
	if err != nil {
		return nil, writeError(err, duplicate, "Error updating value")
	}

	s.invalidate(ctx)
	return &row, nil
}

// DeleteValue deactivates a value. Deleting an inactive value succeeds.
func (s *DropdownService) DeleteValue(ctx context.Context, id uint) error {
	if id == 0 {
		return response.NewValidation("Value ID is required")
	}

	res := s.db.WithContext(ctx).Model(&models.DropdownValue{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return response.NewDataAccess("Error deleting value", res.Error)
	}
	if res.RowsAffected == 0 {
		// mysql reports zero rows when nothing changed, so confirm existence
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.DropdownValue{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return response.NewDataAccess("Error deleting value", err)
		}
		if count == 0 {
			return response.NewNotFound("Value not found")
		}
	}

	s.invalidate(ctx)
	return nil
}

// DeleteCategory deactivates a non-system category and all of its values in
// one transaction.
func (s *DropdownService) DeleteCategory(ctx context.Context, id uint) error {
	if id == 0 {
		return response.NewValidation("Category ID is required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cat models.DropdownCategory
		if err := tx.Select("id", "is_system").First(&cat, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("Category not found")
			}
			return err
		}
		if cat.IsSystem {
			return response.NewForbidden("System categories cannot be deleted")
		}

		if err := tx.Model(&models.DropdownCategory{}).Where("id = ?", id).Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.DropdownValue{}).Where("category_id = ?", id).Update("is_active", false).Error
	})
	if err != nil {
		return writeError(err, nil, "Error deleting category")
	}

	s.invalidate(ctx)
	return nil
}

func (s *DropdownService) invalidate(ctx context.Context) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.epoch.Add(1)
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.Warn().Err(err).Msg("[Dropdown] cache invalidation failed")
	}
}

// writeError maps a failed write to the error taxonomy: AppErrors pass
// through, unique violations become conflict.
func writeError(err error, conflict *response.AppError, msg string) error {
	var appErr *response.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		if conflict != nil {
			return conflict
		}
		return response.NewConflict("Duplicate entry")
	}
	return response.NewDataAccess(msg, fmt.Errorf("%s: %w", strings.ToLower(msg), err))
}
