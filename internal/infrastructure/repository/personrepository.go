package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/shared/db"
	"dinnerd/internal/shared/logger"
)

// PersonFilter narrows people queries. Nil fields are ignored.
type PersonFilter struct {
	MinCreated  *int64
	MaxCreated  *int64
	MinModified *int64
	MaxModified *int64
	Email       *string
	Gender      *models.Gender
	Group       *models.Group
	Title       *string
	Surname     *string
	Forename    *string
	Postcode    *string
	Street      *string
	City        *string
	Country     *string
	Offset      *int
	Limit       *int
}

type PersonRepository interface {
	Create(ctx context.Context, person *models.PersonModel) error
	GetByID(ctx context.Context, id uint) (*models.PersonModel, error)
	GetByEmail(ctx context.Context, email string) (*models.PersonModel, error)
	Query(ctx context.Context, filter PersonFilter) ([]models.PersonModel, error)
	Update(ctx context.Context, person *models.PersonModel) error
	ReplacePhones(ctx context.Context, personID uint, phones []models.PersonPhone) error
	Delete(ctx context.Context, id uint) error
}

type PersonRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewPersonRepository(database *gorm.DB, log logger.Interface) PersonRepository {
	return &PersonRepositoryImpl{
		db:     database,
		logger: log,
	}
}

func (r *PersonRepositoryImpl) Create(ctx context.Context, person *models.PersonModel) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(person).Error; err != nil {
		r.logger.Errorw("failed to create person", "error", err, "email", person.Email)
		return fmt.Errorf("failed to create person: %w", err)
	}

	r.logger.Infow("person created", "person_id", person.ID, "email", person.Email)
	return nil
}

func (r *PersonRepositoryImpl) GetByID(ctx context.Context, id uint) (*models.PersonModel, error) {
	var person models.PersonModel
	err := db.GetTxFromContext(ctx, r.db).Preload("Phones").First(&person, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get person by ID", "error", err, "person_id", id)
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return &person, nil
}

func (r *PersonRepositoryImpl) GetByEmail(ctx context.Context, email string) (*models.PersonModel, error) {
	var person models.PersonModel
	err := db.GetTxFromContext(ctx, r.db).Where("email = ?", email).First(&person).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get person by email", "error", err)
		return nil, fmt.Errorf("failed to get person by email: %w", err)
	}
	return &person, nil
}

func (r *PersonRepositoryImpl) Query(ctx context.Context, filter PersonFilter) ([]models.PersonModel, error) {
	query := db.GetTxFromContext(ctx, r.db).Model(&models.PersonModel{}).Preload("Phones")

	query = applyTimestampRange(query, filter.MinCreated, filter.MaxCreated, filter.MinModified, filter.MaxModified)

	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.Gender != nil {
		query = query.Where("gender = ?", *filter.Gender)
	}
	if filter.Group != nil {
		query = query.Where("group_alias = ?", *filter.Group)
	}
	if filter.Title != nil {
		query = query.Where("title = ?", *filter.Title)
	}
	if filter.Surname != nil {
		query = query.Where("surname = ?", *filter.Surname)
	}
	if filter.Forename != nil {
		query = query.Where("forename = ?", *filter.Forename)
	}
	if filter.Postcode != nil {
		query = query.Where("postcode = ?", *filter.Postcode)
	}
	if filter.Street != nil {
		query = query.Where("street = ?", *filter.Street)
	}
	if filter.City != nil {
		query = query.Where("city = ?", *filter.City)
	}
	if filter.Country != nil {
		query = query.Where("country = ?", *filter.Country)
	}
	if filter.Offset != nil {
		query = query.Offset(*filter.Offset)
	}
	if filter.Limit != nil {
		query = query.Limit(*filter.Limit)
	}

	var people []models.PersonModel
	if err := query.Order("surname asc, forename asc, email asc").Find(&people).Error; err != nil {
		r.logger.Errorw("failed to query people", "error", err)
		return nil, fmt.Errorf("failed to query people: %w", err)
	}
	return people, nil
}

func (r *PersonRepositoryImpl) Update(ctx context.Context, person *models.PersonModel) error {
	result := db.GetTxFromContext(ctx, r.db).Model(&models.PersonModel{}).
		Where("id = ? AND version = ?", person.ID, person.Version).
		Updates(map[string]interface{}{
			"email":            person.Email,
			"gender":           person.Gender,
			"group_alias":      person.Group,
			"title":            person.Name.Title,
			"surname":          person.Name.Family,
			"forename":         person.Name.Given,
			"postcode":         person.Address.Postcode,
			"street":           person.Address.Street,
			"city":             person.Address.City,
			"country":          person.Address.Country,
			"password_hash":    person.PasswordHash,
			"avatar_reference": person.AvatarID,
			"version":          person.Version + 1,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update person", "error", result.Error, "person_id", person.ID)
		return fmt.Errorf("failed to update person: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}

	person.Version++
	return nil
}

// ReplacePhones swaps the person's phone set for the given one.
func (r *PersonRepositoryImpl) ReplacePhones(ctx context.Context, personID uint, phones []models.PersonPhone) error {
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("person_id = ?", personID).Delete(&models.PersonPhone{}).Error; err != nil {
		r.logger.Errorw("failed to clear person phones", "error", err, "person_id", personID)
		return fmt.Errorf("failed to clear person phones: %w", err)
	}
	for i := range phones {
		phones[i].ID = 0
		phones[i].PersonID = personID
	}
	if len(phones) > 0 {
		if err := tx.Create(&phones).Error; err != nil {
			r.logger.Errorw("failed to insert person phones", "error", err, "person_id", personID)
			return fmt.Errorf("failed to insert person phones: %w", err)
		}
	}
	return nil
}

// Delete removes the person together with the owned phone and access-plan
// rows. The database cascades are mirrored here for stores that lack them.
func (r *PersonRepositoryImpl) Delete(ctx context.Context, id uint) error {
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("person_id = ?", id).Delete(&models.PersonPhone{}).Error; err != nil {
		return fmt.Errorf("failed to delete person phones: %w", err)
	}

	var planIDs []uint
	if err := tx.Model(&models.AccessPlanModel{}).Where("tenant_id = ?", id).Pluck("id", &planIDs).Error; err != nil {
		return fmt.Errorf("failed to collect tenant access plans: %w", err)
	}
	if len(planIDs) > 0 {
		if err := tx.Where("access_plan_id IN ?", planIDs).Delete(&models.AccessCounterModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete access counters: %w", err)
		}
		if err := tx.Where("tenant_id = ?", id).Delete(&models.AccessPlanModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete access plans: %w", err)
		}
	}

	if err := tx.Delete(&models.PersonModel{}, id).Error; err != nil {
		r.logger.Errorw("failed to delete person", "error", err, "person_id", id)
		return fmt.Errorf("failed to delete person: %w", err)
	}

	r.logger.Infow("person deleted", "person_id", id)
	return nil
}
