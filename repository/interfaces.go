package repository

import (
	"github.com/camden-git/loreboardbackend/database"
	"github.com/camden-git/loreboardbackend/models"
)

// EntityRepositoryInterface defines the methods for character/place/item and alias data operations
type EntityRepositoryInterface interface {
	Create(entity models.Entity) error
	GetByID(entityType models.EntityType, id uint) (models.Entity, error)
	List(entityType models.EntityType, sortOrder string) ([]models.Entity, error)
	ListAllWithAliases() ([]models.Entity, error)
	FindByIDs(ids []uint) ([]models.Entity, error)
	Update(entity models.Entity) error
	Delete(entityType models.EntityType, id uint) error

	AddAlias(alias *models.Alias) error
	ListAliases(entityType models.EntityType, entityID uint) ([]models.Alias, error)
	DeleteAlias(entityType models.EntityType, entityID, aliasID uint) error

	Search(query string, entityType models.EntityType) ([]database.SearchHit, error)
}
