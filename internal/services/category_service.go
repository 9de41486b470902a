package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "myfund/internal/errors"
	"myfund/internal/logger"
	"myfund/internal/models"
	"myfund/internal/pagination"
)

type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new category service instance.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a category with an optional initial set of
// subcategories. Category names are unique per owner; the check runs over
// decoded names because the stored values may be encrypted.
func (s *categoryService) CreateCategory(userID uint, name string, subCategoryNames []string) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Category name is required")
	}

	taken, err := s.nameTaken(userID, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.ErrDuplicateCategoryName
	}

	category := &models.Category{
		UserID: userID,
		Name:   name,
	}
	for _, subName := range subCategoryNames {
		if subName == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Subcategory name is required")
		}
		category.SubCategories = append(category.SubCategories, models.SubCategory{Name: subName})
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("category created",
		"category_id", category.ID,
		"user_id", userID,
		"subcategories", len(category.SubCategories),
	)
	return category, nil
}

// GetUserCategories returns the user's categories with their subcategories,
// paginated.
func (s *categoryService) GetUserCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	query := s.db.Model(&models.Category{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := query.Scopes(pagination.Paginate(page)).
		Preload("SubCategories").
		Order("id ASC").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(categories, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetCategoryByID returns a category owned by the user, subcategories
// included.
func (s *categoryService) GetCategoryByID(userID, categoryID uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.Preload("SubCategories").
		Where("id = ? AND user_id = ?", categoryID, userID).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory renames a category and merges in new subcategories by name.
// Existing subcategories are kept; names already present are not duplicated.
func (s *categoryService) UpdateCategory(userID, categoryID uint, name string, subCategoryNames []string) (*models.Category, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}

	if name != "" && name != category.Name {
		taken, err := s.nameTaken(userID, name, category.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.ErrDuplicateCategoryName
		}
	}

	existing := make(map[string]bool, len(category.SubCategories))
	for _, sub := range category.SubCategories {
		existing[sub.Name] = true
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if name != "" && name != category.Name {
			if err := tx.Model(category).Select("Name").
				Updates(models.Category{Name: name}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		for _, subName := range subCategoryNames {
			if subName == "" || existing[subName] {
				continue
			}
			existing[subName] = true
			sub := models.SubCategory{CategoryID: category.ID, Name: subName}
			if err := tx.Create(&sub).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetCategoryByID(userID, categoryID)
}

// DeleteCategory removes a category and its subcategories. Transactions that
// referenced the category stay in the ledger with their links cleared, so
// budget totals are unaffected.
func (s *categoryService) DeleteCategory(userID, categoryID uint) error {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		clearLinks := map[string]interface{}{"category_id": nil, "sub_category_id": nil}
		if err := tx.Model(&models.Expense{}).
			Where("user_id = ? AND category_id = ?", userID, category.ID).
			Updates(clearLinks).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.Income{}).
			Where("user_id = ? AND category_id = ?", userID, category.ID).
			Updates(clearLinks).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("category_id = ?", category.ID).Delete(&models.SubCategory{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Get().Infow("category deleted",
		"category_id", categoryID,
		"user_id", userID,
	)
	return nil
}

// DeleteSubCategory removes one subcategory and clears it from transactions
// that referenced it. The transactions keep their category link.
func (s *categoryService) DeleteSubCategory(userID, categoryID, subCategoryID uint) error {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return err
	}

	var target *models.SubCategory
	for i := range category.SubCategories {
		if category.SubCategories[i].ID == subCategoryID {
			target = &category.SubCategories[i]
			break
		}
	}
	if target == nil {
		return apperrors.ErrSubCategoryNotFound
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		clearLinks := map[string]interface{}{"sub_category_id": nil}
		if err := tx.Model(&models.Expense{}).
			Where("user_id = ? AND sub_category_id = ?", userID, target.ID).
			Updates(clearLinks).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.Income{}).
			Where("user_id = ? AND sub_category_id = ?", userID, target.ID).
			Updates(clearLinks).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(target).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// ValidateCategoryLink enforces the linkage rule for transactions: either no
// category information at all, or a category/subcategory pair where the
// subcategory belongs to the category and the category belongs to the user.
// Exactly one of the two present is never valid.
func (s *categoryService) ValidateCategoryLink(userID uint, categoryID, subCategoryID *uint) error {
	if categoryID == nil && subCategoryID == nil {
		return nil
	}
	if categoryID == nil || subCategoryID == nil {
		return apperrors.ErrInvalidCategoryLink
	}

	category, err := s.GetCategoryByID(userID, *categoryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrCategoryNotFound) {
			return apperrors.ErrInvalidCategoryLink
		}
		return err
	}

	for _, sub := range category.SubCategories {
		if sub.ID == *subCategoryID {
			return nil
		}
	}
	return apperrors.ErrInvalidCategoryLink
}

// nameTaken reports whether another of the user's categories already uses
// the name. Stored names may be encrypted with a per-value nonce, so this
// cannot be a SQL equality filter; the comparison happens after decoding.
func (s *categoryService) nameTaken(userID uint, name string, excludeID uint) (bool, error) {
	var categories []models.Category
	if err := s.db.Where("user_id = ?", userID).Find(&categories).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, c := range categories {
		if c.ID != excludeID && c.Name == name {
			return true, nil
		}
	}
	return false, nil
}
