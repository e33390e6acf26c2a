package repository

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/facette/natsort"
	"gorm.io/gorm"

	"github.com/camden-git/loreboardbackend/database"
	"github.com/camden-git/loreboardbackend/models"
)

// ErrDuplicateAlias is returned when an entity already carries the alias (case-insensitive).
var ErrDuplicateAlias = errors.New("alias already exists for this entity")

// EntityRepository handles database operations for Character, Place, Item and their aliases
type EntityRepository struct {
	DB *gorm.DB
}

// NewEntityRepository creates a new instance of EntityRepository
func NewEntityRepository(db *gorm.DB) *EntityRepository {
	return &EntityRepository{DB: db}
}

func preloadAliases(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// Create inserts a new entity row
func (r *EntityRepository) Create(entity models.Entity) error {
	if err := r.DB.Create(entity).Error; err != nil {
		return fmt.Errorf("failed to create %s %s: %w", entity.Type(), entity.GetName(), err)
	}
	return nil
}

// GetByID retrieves an entity by type and ID, preloading Aliases
func (r *EntityRepository) GetByID(entityType models.EntityType, id uint) (models.Entity, error) {
	entity, err := models.NewEntity(entityType)
	if err != nil {
		return nil, err
	}
	err = r.DB.Preload("Aliases", preloadAliases).First(entity, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get %s by ID %d: %w", entityType, id, err)
	}
	return entity, nil
}

func listOf[T any, PT interface {
	*T
	models.Entity
}](db *gorm.DB) ([]models.Entity, error) {
	var rows []T
	if err := db.Preload("Aliases", preloadAliases).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Entity, len(rows))
	for i := range rows {
		out[i] = PT(&rows[i])
	}
	return out, nil
}

func (r *EntityRepository) find(entityType models.EntityType, db *gorm.DB) ([]models.Entity, error) {
	switch entityType {
	case models.EntityTypeCharacter:
		return listOf[models.Character](db)
	case models.EntityTypePlace:
		return listOf[models.Place](db)
	case models.EntityTypeItem:
		return listOf[models.Item](db)
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidEntityType, entityType)
	}
}

// List retrieves all entities of one type with their aliases in the requested order
func (r *EntityRepository) List(entityType models.EntityType, sortOrder string) ([]models.Entity, error) {
	if !database.IsValidSortOrder(sortOrder) {
		sortOrder = database.DefaultSortOrder
	}
	entities, err := r.find(entityType, r.DB.Order(database.OrderClause(sortOrder)))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", entityType.Plural(), err)
	}
	if sortOrder == database.SortNameNat {
		sort.SliceStable(entities, func(i, j int) bool {
			return natsort.Compare(strings.ToLower(entities[i].GetName()), strings.ToLower(entities[j].GetName()))
		})
	}
	return entities, nil
}

// ListAllWithAliases returns every character, then place, then item, each in
// insertion order. This is the order detection reports matches in.
func (r *EntityRepository) ListAllWithAliases() ([]models.Entity, error) {
	var all []models.Entity
	for _, t := range models.EntityTypes {
		entities, err := r.find(t, r.DB.Order("id ASC"))
		if err != nil {
			return nil, fmt.Errorf("failed to load %s for detection: %w", t.Plural(), err)
		}
		all = append(all, entities...)
	}
	return all, nil
}

// FindByIDs returns entities of every type whose ID is in ids. IDs are not
// unique across tables, so one ID may yield up to three entities.
func (r *EntityRepository) FindByIDs(ids []uint) ([]models.Entity, error) {
	if len(ids) == 0 {
		return []models.Entity{}, nil
	}
	var all []models.Entity
	for _, t := range models.EntityTypes {
		entities, err := r.find(t, r.DB.Where("id IN ?", ids).Order("id ASC"))
		if err != nil {
			return nil, fmt.Errorf("failed to find %s by IDs: %w", t.Plural(), err)
		}
		all = append(all, entities...)
	}
	return all, nil
}

// Update writes the entity's name and all attribute fields
func (r *EntityRepository) Update(entity models.Entity) error {
	if entity.GetID() == 0 {
		return fmt.Errorf("cannot update unsaved %s %s", entity.Type(), entity.GetName())
	}
	values := map[string]interface{}{
		"name":       entity.GetName(),
		"updated_at": time.Now(),
	}
	for field, value := range models.AttributesOf(entity) {
		values[field] = value
	}

	result := r.DB.Model(entity).Updates(values)
	if result.Error != nil {
		return fmt.Errorf("failed to update %s ID %d: %w", entity.Type(), entity.GetID(), result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes an entity and its aliases in one transaction
func (r *EntityRepository) Delete(entityType models.EntityType, id uint) error {
	entity, err := models.NewEntity(entityType)
	if err != nil {
		return err
	}
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entity_type = ? AND entity_id = ?", entityType, id).Delete(&models.Alias{}).Error; err != nil {
			return fmt.Errorf("failed to delete aliases of %s ID %d: %w", entityType, id, err)
		}
		result := tx.Delete(entity, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete %s ID %d: %w", entityType, id, result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *EntityRepository) exists(entityType models.EntityType, id uint) (bool, error) {
	entity, err := models.NewEntity(entityType)
	if err != nil {
		return false, err
	}
	var count int64
	if err := r.DB.Model(entity).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check %s ID %d: %w", entityType, id, err)
	}
	return count > 0, nil
}

// AddAlias adds a new alias for an existing entity
func (r *EntityRepository) AddAlias(alias *models.Alias) error {
	ok, err := r.exists(alias.EntityType, alias.EntityID)
	if err != nil {
		return err
	}
	if !ok {
		return gorm.ErrRecordNotFound
	}

	var dupes int64
	err = r.DB.Model(&models.Alias{}).
		Where("entity_type = ? AND entity_id = ? AND LOWER(alias) = LOWER(?)", alias.EntityType, alias.EntityID, alias.Name).
		Count(&dupes).Error
	if err != nil {
		return fmt.Errorf("failed to check alias '%s' for %s ID %d: %w", alias.Name, alias.EntityType, alias.EntityID, err)
	}
	if dupes > 0 {
		return fmt.Errorf("alias '%s' for %s ID %d: %w", alias.Name, alias.EntityType, alias.EntityID, ErrDuplicateAlias)
	}

	if err := r.DB.Create(alias).Error; err != nil {
		return fmt.Errorf("failed to add alias '%s' for %s ID %d: %w", alias.Name, alias.EntityType, alias.EntityID, err)
	}
	return nil
}

// ListAliases retrieves all aliases for a given entity
func (r *EntityRepository) ListAliases(entityType models.EntityType, entityID uint) ([]models.Alias, error) {
	aliases := []models.Alias{}
	err := r.DB.Where("entity_type = ? AND entity_id = ?", entityType, entityID).Order("id ASC").Find(&aliases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases for %s ID %d: %w", entityType, entityID, err)
	}
	return aliases, nil
}

// DeleteAlias removes an alias by its ID, scoped to the owning entity
func (r *EntityRepository) DeleteAlias(entityType models.EntityType, entityID, aliasID uint) error {
	result := r.DB.Where("id = ? AND entity_type = ? AND entity_id = ?", aliasID, entityType, entityID).Delete(&models.Alias{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete alias ID %d: %w", aliasID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Search looks entities up by name or alias substring
func (r *EntityRepository) Search(query string, entityType models.EntityType) ([]database.SearchHit, error) {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB from GORM: %w", err)
	}
	return database.SearchEntities(sqlDB, query, entityType)
}
