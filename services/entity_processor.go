package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/camden-git/loreboardbackend/database"
	"github.com/camden-git/loreboardbackend/detection"
	"github.com/camden-git/loreboardbackend/llm"
	"github.com/camden-git/loreboardbackend/models"
	"github.com/camden-git/loreboardbackend/repository"
)

// Change event types published after writes.
const (
	EventEntityCreated = "entity.created"
	EventEntityUpdated = "entity.updated"
	EventEntityDeleted = "entity.deleted"
	EventAliasAdded    = "alias.added"
	EventAliasDeleted  = "alias.deleted"
)

// DefaultBulkConcurrency bounds concurrent model calls during a bulk update.
const DefaultBulkConcurrency = 4

var commonWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "but": {}, "or": {}, "nor": {}, "for": {}, "yet": {}, "so": {},
}

// Notifier receives change events. realtime.Hub implements it.
type Notifier interface {
	Publish(eventType string, entityType models.EntityType, entityID uint, payload interface{})
}

// DetectionIndex serves a compiled detection dictionary and is told when it
// goes stale. workers.DictionaryCache implements it.
type DetectionIndex interface {
	Dictionary() (*detection.Dictionary, error)
	Invalidate()
}

// AttributeExtractor is the model-facing side of the processor.
type AttributeExtractor interface {
	ExtractAttributes(ctx context.Context, t models.EntityType, name, passage string) (models.Attributes, error)
	UpdateAttributes(ctx context.Context, t models.EntityType, name string, existing models.Attributes, passage, category string) (models.Attributes, error)
	ExtractUpdates(ctx context.Context, t models.EntityType, name, text string) (models.Attributes, error)
}

var _ AttributeExtractor = (*llm.Extractor)(nil)

// ProcessorOptions tunes an EntityProcessor. Zero values select defaults.
type ProcessorOptions struct {
	Window          ContextWindow
	BulkConcurrency int
	Index           DetectionIndex
	Notifier        Notifier
	Logger          *zap.Logger
}

// EntityProcessor implements entity creation, updates, detection and the
// CRUD operations behind the HTTP API.
type EntityProcessor struct {
	repo            repository.EntityRepositoryInterface
	extractor       AttributeExtractor
	window          ContextWindow
	bulkConcurrency int
	index           DetectionIndex
	notifier        Notifier
	log             *zap.Logger
}

// NewEntityProcessor creates a new entity processor
func NewEntityProcessor(repo repository.EntityRepositoryInterface, extractor AttributeExtractor, opts ProcessorOptions) *EntityProcessor {
	p := &EntityProcessor{
		repo:            repo,
		extractor:       extractor,
		window:          opts.Window,
		bulkConcurrency: opts.BulkConcurrency,
		index:           opts.Index,
		notifier:        opts.Notifier,
		log:             opts.Logger,
	}
	if p.window == (ContextWindow{}) {
		p.window = DefaultContextWindow
	}
	if p.bulkConcurrency <= 0 {
		p.bulkConcurrency = DefaultBulkConcurrency
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	return p
}

// CandidateLoader returns a function listing every entity as a detection
// candidate, for use by a DetectionIndex.
func CandidateLoader(repo repository.EntityRepositoryInterface) func() ([]detection.Candidate, error) {
	return func() ([]detection.Candidate, error) {
		entities, err := repo.ListAllWithAliases()
		if err != nil {
			return nil, err
		}
		candidates := make([]detection.Candidate, 0, len(entities))
		for _, e := range entities {
			candidates = append(candidates, detection.CandidateFrom(e))
		}
		return candidates, nil
	}
}

// CreateEntity extracts attributes for name from the paragraphs around
// position and stores the new entity.
func (p *EntityProcessor) CreateEntity(ctx context.Context, t models.EntityType, name, selectedText string, position int) (models.Entity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	passage := p.window.Paragraphs(selectedText, position)
	if !detection.Contains(passage, name) {
		return nil, fmt.Errorf("%w: '%s' does not appear in the selected text", ErrNameNotInContext, name)
	}
	if isCommonWord(name) {
		return nil, fmt.Errorf("%w: '%s'", ErrCommonWord, name)
	}

	attrs, err := p.extractor.ExtractAttributes(ctx, t, name, passage)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	entity, err := models.BuildEntity(t, name, attrs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := p.repo.Create(entity); err != nil {
		return nil, err
	}

	if t == models.EntityTypeCharacter {
		if parts := strings.Fields(name); len(parts) > 1 {
			alias := &models.Alias{EntityType: t, EntityID: entity.GetID(), Name: parts[0]}
			if err := p.repo.AddAlias(alias); err != nil {
				p.log.Warn("failed to add first-name alias",
					zap.String("entity_type", string(t)),
					zap.Uint("entity_id", entity.GetID()),
					zap.String("alias", parts[0]),
					zap.Error(err))
			}
		}
	}

	stored, err := p.GetEntity(t, entity.GetID())
	if err != nil {
		return nil, err
	}

	p.log.Info("entity created",
		zap.String("entity_type", string(t)),
		zap.Uint("entity_id", stored.GetID()),
		zap.String("name", stored.GetName()))
	p.changed(EventEntityCreated, stored)
	return stored, nil
}

func isCommonWord(name string) bool {
	if len([]rune(name)) > 3 {
		return false
	}
	_, ok := commonWords[strings.ToLower(name)]
	return ok
}

// UpdateEntity merges new information found in selectedText into an existing
// entity. With a category only that field is asked for.
func (p *EntityProcessor) UpdateEntity(ctx context.Context, t models.EntityType, id uint, selectedText, category string) (models.Entity, error) {
	entity, err := p.GetEntity(t, id)
	if err != nil {
		return nil, err
	}

	if !mentions(selectedText, entity) {
		return nil, fmt.Errorf("%w: neither '%s' nor its aliases appear in the selected text", ErrNameNotInContext, entity.GetName())
	}

	category = strings.TrimSpace(category)
	if category != "" && !t.HasField(category) {
		return nil, fmt.Errorf("%w: '%s' for %s. Must be one of: %s", ErrInvalidCategory, category, t, strings.Join(t.Fields(), ", "))
	}

	updates, err := p.extractor.UpdateAttributes(ctx, t, entity.GetName(), models.AttributesOf(entity), selectedText, category)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	changed := MergeAttributes(entity, updates)
	if len(changed) == 0 {
		return entity, nil
	}
	if err := p.repo.Update(entity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entityNotFound(t, id)
		}
		return nil, err
	}

	p.log.Info("entity updated",
		zap.String("entity_type", string(t)),
		zap.Uint("entity_id", id),
		zap.Strings("fields", changed))
	p.changed(EventEntityUpdated, entity)
	return entity, nil
}

func mentions(text string, e models.Entity) bool {
	if detection.Contains(text, e.GetName()) {
		return true
	}
	for _, alias := range e.GetAliases() {
		if detection.Contains(text, alias.Name) {
			return true
		}
	}
	return false
}

// DetectEntities reports every known name and alias occurring in text.
func (p *EntityProcessor) DetectEntities(text string) ([]detection.DetectedEntity, error) {
	dict, err := p.dictionary()
	if err != nil {
		return nil, err
	}
	return dict.Detect(text), nil
}

func (p *EntityProcessor) dictionary() (*detection.Dictionary, error) {
	if p.index != nil {
		return p.index.Dictionary()
	}
	candidates, err := CandidateLoader(p.repo)()
	if err != nil {
		return nil, fmt.Errorf("failed to load detection candidates: %w", err)
	}
	return detection.Compile(candidates)
}

// EntityRef addresses one entity unambiguously.
type EntityRef struct {
	Type models.EntityType `json:"type"`
	ID   uint              `json:"id"`
}

// BulkUpdateRequest selects the entities refreshed from Text. Entities wins
// over EntityIDs; with neither, the entities detected in Text are used.
type BulkUpdateRequest struct {
	Text      string
	EntityIDs []uint
	Entities  []EntityRef
}

// GroupedEntities keys entities by plural type name.
type GroupedEntities map[string][]models.Entity

func newGroupedEntities() GroupedEntities {
	g := make(GroupedEntities, len(models.EntityTypes))
	for _, t := range models.EntityTypes {
		g[t.Plural()] = []models.Entity{}
	}
	return g
}

// BulkUpdate asks the model for new information about each target entity and
// merges what comes back. Failures for a single entity are logged and skipped.
func (p *EntityProcessor) BulkUpdate(ctx context.Context, req BulkUpdateRequest) (GroupedEntities, error) {
	targets, err := p.bulkTargets(req)
	if err != nil {
		return nil, err
	}

	updates := make([]models.Attributes, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.bulkConcurrency)
	for i, target := range targets {
		g.Go(func() error {
			attrs, err := p.extractor.ExtractUpdates(gctx, target.Type(), target.GetName(), req.Text)
			if err != nil {
				p.log.Warn("bulk update skipped entity",
					zap.String("entity_type", string(target.Type())),
					zap.Uint("entity_id", target.GetID()),
					zap.Error(err))
				return nil
			}
			updates[i] = attrs
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := newGroupedEntities()
	for i, target := range targets {
		if !updates[i].HasContent() {
			continue
		}
		if len(MergeAttributes(target, updates[i])) == 0 {
			continue
		}
		if err := p.repo.Update(target); err != nil {
			p.log.Warn("bulk update failed to save entity",
				zap.String("entity_type", string(target.Type())),
				zap.Uint("entity_id", target.GetID()),
				zap.Error(err))
			continue
		}
		key := target.Type().Plural()
		result[key] = append(result[key], target)
		p.changed(EventEntityUpdated, target)
	}

	p.log.Info("bulk update finished",
		zap.Int("targets", len(targets)),
		zap.Int("characters", len(result[models.EntityTypeCharacter.Plural()])),
		zap.Int("places", len(result[models.EntityTypePlace.Plural()])),
		zap.Int("items", len(result[models.EntityTypeItem.Plural()])))
	return result, nil
}

func (p *EntityProcessor) bulkTargets(req BulkUpdateRequest) ([]models.Entity, error) {
	switch {
	case len(req.Entities) > 0:
		targets := make([]models.Entity, 0, len(req.Entities))
		seen := make(map[EntityRef]bool, len(req.Entities))
		for _, ref := range req.Entities {
			if _, err := models.ParseEntityType(string(ref.Type)); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrValidation, err)
			}
			if seen[ref] {
				continue
			}
			seen[ref] = true
			e, err := p.repo.GetByID(ref.Type, ref.ID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				p.log.Warn("bulk update target not found", zap.String("entity_type", string(ref.Type)), zap.Uint("entity_id", ref.ID))
				continue
			}
			if err != nil {
				return nil, err
			}
			targets = append(targets, e)
		}
		return targets, nil

	case len(req.EntityIDs) > 0:
		return p.repo.FindByIDs(req.EntityIDs)

	default:
		detected, err := p.DetectEntities(req.Text)
		if err != nil {
			return nil, err
		}
		var targets []models.Entity
		seen := make(map[EntityRef]bool)
		for _, d := range detected {
			ref := EntityRef{Type: d.Type, ID: d.ID}
			if seen[ref] {
				continue
			}
			seen[ref] = true
			e, err := p.repo.GetByID(d.Type, d.ID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			targets = append(targets, e)
		}
		return targets, nil
	}
}

// GetEntity loads an entity with its aliases.
func (p *EntityProcessor) GetEntity(t models.EntityType, id uint) (models.Entity, error) {
	entity, err := p.repo.GetByID(t, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entityNotFound(t, id)
		}
		return nil, err
	}
	return entity, nil
}

// ListEntities groups entities by type. An empty t lists all three types.
func (p *EntityProcessor) ListEntities(t models.EntityType, sortOrder string) (GroupedEntities, error) {
	if sortOrder == "" {
		sortOrder = database.DefaultSortOrder
	}
	if !database.IsValidSortOrder(sortOrder) {
		return nil, fmt.Errorf("%w: invalid sort order '%s'", ErrValidation, sortOrder)
	}

	types := models.EntityTypes
	if t != "" {
		types = []models.EntityType{t}
	}

	result := make(GroupedEntities, len(types))
	for _, et := range types {
		entities, err := p.repo.List(et, sortOrder)
		if err != nil {
			return nil, err
		}
		result[et.Plural()] = entities
	}
	return result, nil
}

// DeleteEntity removes an entity and its aliases.
func (p *EntityProcessor) DeleteEntity(t models.EntityType, id uint) error {
	if err := p.repo.Delete(t, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entityNotFound(t, id)
		}
		return err
	}
	p.log.Info("entity deleted", zap.String("entity_type", string(t)), zap.Uint("entity_id", id))
	p.invalidate()
	p.publish(EventEntityDeleted, t, id, nil)
	return nil
}

// AddAlias attaches a new alias and returns all aliases of the entity.
func (p *EntityProcessor) AddAlias(t models.EntityType, id uint, alias string) ([]models.Alias, error) {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return nil, fmt.Errorf("%w: alias is required", ErrValidation)
	}

	if err := p.repo.AddAlias(&models.Alias{EntityType: t, EntityID: id, Name: alias}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entityNotFound(t, id)
		}
		return nil, err
	}
	aliases, err := p.repo.ListAliases(t, id)
	if err != nil {
		return nil, err
	}
	p.invalidate()
	p.publish(EventAliasAdded, t, id, aliases)
	return aliases, nil
}

// ListAliases returns the aliases of an existing entity.
func (p *EntityProcessor) ListAliases(t models.EntityType, id uint) ([]models.Alias, error) {
	entity, err := p.GetEntity(t, id)
	if err != nil {
		return nil, err
	}
	aliases := entity.GetAliases()
	if aliases == nil {
		aliases = []models.Alias{}
	}
	return aliases, nil
}

// DeleteAlias removes one alias and returns the remaining ones.
func (p *EntityProcessor) DeleteAlias(t models.EntityType, id, aliasID uint) ([]models.Alias, error) {
	if err := p.repo.DeleteAlias(t, id, aliasID); err != nil {
		return nil, p.mapNotFound(err, ErrAliasNotFound)
	}
	aliases, err := p.repo.ListAliases(t, id)
	if err != nil {
		return nil, err
	}
	p.invalidate()
	p.publish(EventAliasDeleted, t, id, aliases)
	return aliases, nil
}

// SearchEntities finds entities whose name or alias contains query.
func (p *EntityProcessor) SearchEntities(query string, t models.EntityType) ([]database.SearchHit, error) {
	return p.repo.Search(query, t)
}

// entityNotFound reads like "Character with ID 3 not found".
func entityNotFound(t models.EntityType, id uint) error {
	return fmt.Errorf("%w: %s with ID %d not found", ErrEntityNotFound, t.Title(), id)
}

func (p *EntityProcessor) mapNotFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func (p *EntityProcessor) changed(eventType string, e models.Entity) {
	p.invalidate()
	p.publish(eventType, e.Type(), e.GetID(), e)
}

func (p *EntityProcessor) invalidate() {
	if p.index != nil {
		p.index.Invalidate()
	}
}

func (p *EntityProcessor) publish(eventType string, t models.EntityType, id uint, payload interface{}) {
	if p.notifier != nil {
		p.notifier.Publish(eventType, t, id, payload)
	}
}
