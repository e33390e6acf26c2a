package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/camden-git/loreboardbackend/database"
	"github.com/camden-git/loreboardbackend/detection"
	"github.com/camden-git/loreboardbackend/llm"
	"github.com/camden-git/loreboardbackend/models"
	"github.com/camden-git/loreboardbackend/repository"
)

// fakeLLM answers by looking for a substring of the system prompt.
type fakeLLM struct {
	mu      sync.Mutex
	replies map[string]string
	failFor string
	calls   []llm.CompletionRequest
}

func (f *fakeLLM) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.failFor != "" && strings.Contains(req.System, f.failFor) {
		return "", errors.New("provider unavailable")
	}
	for needle, reply := range f.replies {
		if strings.Contains(req.System, needle) {
			return reply, nil
		}
	}
	return "{}", nil
}

type recordedEvent struct {
	Type       string
	EntityType models.EntityType
	EntityID   uint
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) Publish(eventType string, entityType models.EntityType, entityID uint, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{eventType, entityType, entityID})
}

type countingIndex struct {
	load        func() ([]detection.Candidate, error)
	invalidated int
}

func (c *countingIndex) Dictionary() (*detection.Dictionary, error) {
	candidates, err := c.load()
	if err != nil {
		return nil, err
	}
	return detection.Compile(candidates)
}

func (c *countingIndex) Invalidate() { c.invalidated++ }

type fixture struct {
	proc     *EntityProcessor
	repo     *repository.EntityRepository
	llm      *fakeLLM
	notifier *recordingNotifier
	index    *countingIndex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.InitGormDB(filepath.Join(t.TempDir(), "loreboard.db"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateModels(db))
	t.Cleanup(func() { _ = database.Close(db) })

	repo := repository.NewEntityRepository(db)
	f := &fixture{
		repo:     repo,
		llm:      &fakeLLM{replies: map[string]string{}},
		notifier: &recordingNotifier{},
		index:    &countingIndex{load: CandidateLoader(repo)},
	}
	f.proc = NewEntityProcessor(repo, llm.NewExtractor(f.llm), ProcessorOptions{
		Notifier:        f.notifier,
		Index:           f.index,
		BulkConcurrency: 2,
	})
	return f
}

func (f *fixture) seed(t *testing.T, et models.EntityType, name string, attrs models.Attributes, aliases ...string) models.Entity {
	t.Helper()
	e, err := models.BuildEntity(et, name, attrs)
	require.NoError(t, err)
	require.NoError(t, f.repo.Create(e))
	for _, a := range aliases {
		require.NoError(t, f.repo.AddAlias(&models.Alias{EntityType: et, EntityID: e.GetID(), Name: a}))
	}
	return e
}

func TestCreateEntity(t *testing.T) {
	f := newFixture(t)
	f.llm.replies["name is Elena Vance"] = `{"physical":"tall, dark hair","personality":"guarded","mood":"tired"}`

	e, err := f.proc.CreateEntity(context.Background(), models.EntityTypeCharacter, " Elena Vance ", "Elena Vance pushed open the tavern door.", 0)
	require.NoError(t, err)

	assert.NotZero(t, e.GetID())
	assert.Equal(t, "Elena Vance", e.GetName())
	got, _ := e.Attribute("physical")
	assert.Equal(t, "tall, dark hair", got)
	got, _ = e.Attribute("goals")
	assert.Equal(t, "", got)
	assert.Equal(t, []string{"Elena"}, models.AliasNames(e.GetAliases()))

	require.Len(t, f.llm.calls, 1)
	assert.Equal(t, "Here is the text context:\n\nElena Vance pushed open the tavern door.", f.llm.calls[0].User)
	assert.Equal(t, []recordedEvent{{EventEntityCreated, models.EntityTypeCharacter, e.GetID()}}, f.notifier.events)
	assert.Equal(t, 1, f.index.invalidated)
}

func TestCreateEntity_NoAutomaticAliasForPlaces(t *testing.T) {
	f := newFixture(t)
	e, err := f.proc.CreateEntity(context.Background(), models.EntityTypePlace, "Iron Gate", "They passed the Iron Gate at dusk.", 0)
	require.NoError(t, err)
	assert.Empty(t, e.GetAliases())
}

func TestCreateEntity_UsesParagraphsAroundPosition(t *testing.T) {
	f := newFixture(t)
	ps := []string{
		strings.Repeat("The road was long. ", 15),
		strings.Repeat("Rain fell on the hills. ", 15),
		"Mara drew the Dawnblade from its sheath.",
		strings.Repeat("Night came quickly. ", 15),
		strings.Repeat("Wolves howled far away. ", 15),
	}
	text := strings.Join(ps, "\n\n")
	pos := strings.Index(text, "Dawnblade")

	_, err := f.proc.CreateEntity(context.Background(), models.EntityTypeItem, "Dawnblade", text, pos)
	require.NoError(t, err)

	require.Len(t, f.llm.calls, 1)
	user := f.llm.calls[0].User
	assert.Contains(t, user, ps[1])
	assert.Contains(t, user, ps[3])
	assert.NotContains(t, user, "The road was long.")
	assert.NotContains(t, user, "Wolves howled")
}

func TestCreateEntity_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.proc.CreateEntity(ctx, models.EntityTypeCharacter, "  ", "anything", 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.proc.CreateEntity(ctx, models.EntityTypeCharacter, "Zed", "Nobody is here.", 0)
	assert.ErrorIs(t, err, ErrNameNotInContext)

	_, err = f.proc.CreateEntity(ctx, models.EntityTypeItem, "The", "The sword gleamed.", 0)
	assert.ErrorIs(t, err, ErrCommonWord)

	f.llm.failFor = "Mara"
	_, err = f.proc.CreateEntity(ctx, models.EntityTypeCharacter, "Mara", "Mara laughed.", 0)
	assert.ErrorIs(t, err, ErrExtraction)

	f.llm.failFor = ""
	f.llm.replies["Greyspire"] = "I could not find anything."
	_, err = f.proc.CreateEntity(ctx, models.EntityTypePlace, "Greyspire", "Greyspire loomed.", 0)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.ErrorIs(t, err, llm.ErrInvalidResponse)

	listed, err := f.proc.ListEntities("", "")
	require.NoError(t, err)
	for _, key := range []string{"characters", "places", "items"} {
		assert.Empty(t, listed[key])
	}
	assert.Empty(t, f.notifier.events)
}

func TestUpdateEntity_Category(t *testing.T) {
	f := newFixture(t)
	e := f.seed(t, models.EntityTypeCharacter, "Elena Vance", models.Attributes{"physical": "Tall."}, "Lena")
	f.llm.replies["'physical' category ONLY"] = "A fresh scar crosses her cheek."

	updated, err := f.proc.UpdateEntity(context.Background(), models.EntityTypeCharacter, e.GetID(), "Lena touched the fresh scar.", "physical")
	require.NoError(t, err)

	got, _ := updated.Attribute("physical")
	assert.Equal(t, "Tall.\n\nA fresh scar crosses her cheek.", got)
	assert.False(t, f.llm.calls[0].JSON)

	stored, err := f.proc.GetEntity(models.EntityTypeCharacter, e.GetID())
	require.NoError(t, err)
	got, _ = stored.Attribute("physical")
	assert.Equal(t, "Tall.\n\nA fresh scar crosses her cheek.", got)
	assert.Equal(t, []recordedEvent{{EventEntityUpdated, models.EntityTypeCharacter, e.GetID()}}, f.notifier.events)
}

func TestUpdateEntity_GeneralKeepsExistingValues(t *testing.T) {
	f := newFixture(t)
	e := f.seed(t, models.EntityTypeItem, "Dawnblade", models.Attributes{"origin": "Forged in the north.", "function": "A sword."})
	f.llm.replies["Dawnblade"] = `{"ownership":"Mara carries it now.","origin":"forged in the north"}`

	updated, err := f.proc.UpdateEntity(context.Background(), models.EntityTypeItem, e.GetID(), "Mara now carries the Dawnblade.", "")
	require.NoError(t, err)

	attrs := models.AttributesOf(updated)
	assert.Equal(t, "Mara carries it now.", attrs["ownership"])
	assert.Equal(t, "Forged in the north.", attrs["origin"])
	assert.Equal(t, "A sword.", attrs["function"])
	assert.True(t, f.llm.calls[0].JSON)
	assert.Contains(t, f.llm.calls[0].System, "origin: Forged in the north.")
}

func TestUpdateEntity_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.seed(t, models.EntityTypePlace, "Greyspire", nil)

	_, err := f.proc.UpdateEntity(ctx, models.EntityTypePlace, e.GetID()+100, "Greyspire", "")
	assert.ErrorIs(t, err, ErrEntityNotFound)
	assert.Contains(t, err.Error(), fmt.Sprintf("Place with ID %d not found", e.GetID()+100))

	_, err = f.proc.UpdateEntity(ctx, models.EntityTypePlace, e.GetID(), "A quiet valley.", "")
	assert.ErrorIs(t, err, ErrNameNotInContext)

	_, err = f.proc.UpdateEntity(ctx, models.EntityTypePlace, e.GetID(), "Greyspire at dawn.", "goals")
	assert.ErrorIs(t, err, ErrInvalidCategory)

	assert.Empty(t, f.llm.calls)
}

func TestDetectEntities(t *testing.T) {
	f := newFixture(t)
	elena := f.seed(t, models.EntityTypeCharacter, "Elena Vance", nil, "Lena")
	tower := f.seed(t, models.EntityTypePlace, "Greyspire", nil)
	f.seed(t, models.EntityTypeItem, "Dawnblade", nil)

	found, err := f.proc.DetectEntities("At Greyspire, Lena met Elena Vance's brother.")
	require.NoError(t, err)

	assert.Equal(t, []detection.DetectedEntity{
		{ID: elena.GetID(), Name: "Elena Vance", Type: models.EntityTypeCharacter, Position: 23},
		{ID: elena.GetID(), Name: "Elena Vance", Type: models.EntityTypeCharacter, Position: 14, AliasUsed: "Lena"},
		{ID: tower.GetID(), Name: "Greyspire", Type: models.EntityTypePlace, Position: 3},
	}, found)

	none, err := f.proc.DetectEntities("Nothing here.")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestBulkUpdate_DetectedEntities(t *testing.T) {
	f := newFixture(t)
	elena := f.seed(t, models.EntityTypeCharacter, "Elena Vance", models.Attributes{"goals": "Find her brother."}, "Lena")
	f.seed(t, models.EntityTypePlace, "Greyspire", nil)
	f.seed(t, models.EntityTypeItem, "Dawnblade", nil)

	f.llm.replies["name is Elena Vance"] = `{"goals":"Reclaim the Dawnblade."}`
	f.llm.failFor = "name is Greyspire"

	result, err := f.proc.BulkUpdate(context.Background(), BulkUpdateRequest{
		Text: "Lena stood below Greyspire. Elena Vance swore to reclaim it.",
	})
	require.NoError(t, err)

	require.Len(t, result["characters"], 1)
	assert.Empty(t, result["places"])
	assert.NotNil(t, result["items"])
	assert.Empty(t, result["items"])

	stored, err := f.proc.GetEntity(models.EntityTypeCharacter, elena.GetID())
	require.NoError(t, err)
	goals, _ := stored.Attribute("goals")
	assert.Equal(t, "Find her brother.\n\nReclaim the Dawnblade.", goals)

	// Elena is detected by name and alias but asked about once.
	var elenaCalls int
	for _, c := range f.llm.calls {
		if strings.Contains(c.System, "name is Elena Vance") {
			elenaCalls++
		}
	}
	assert.Equal(t, 1, elenaCalls)
	assert.Len(t, f.llm.calls, 2)
}

func TestBulkUpdate_ExplicitTargets(t *testing.T) {
	f := newFixture(t)
	mara := f.seed(t, models.EntityTypeCharacter, "Mara", nil)
	blade := f.seed(t, models.EntityTypeItem, "Dawnblade", nil)
	f.llm.replies["name is Mara"] = `{"relationships":"Sister of Elena."}`
	f.llm.replies["name is Dawnblade"] = `{"ownership":"Mara."}`

	text := "Mara, sister of Elena, lifted the blade."

	result, err := f.proc.BulkUpdate(context.Background(), BulkUpdateRequest{
		Text:     text,
		Entities: []EntityRef{{Type: models.EntityTypeItem, ID: blade.GetID()}, {Type: models.EntityTypeItem, ID: 999}},
	})
	require.NoError(t, err)
	assert.Empty(t, result["characters"])
	require.Len(t, result["items"], 1)
	assert.Equal(t, blade.GetID(), result["items"][0].GetID())

	// Both tables hold ID 1, so an ID list selects both rows.
	require.Equal(t, mara.GetID(), blade.GetID())
	result, err = f.proc.BulkUpdate(context.Background(), BulkUpdateRequest{Text: text, EntityIDs: []uint{mara.GetID()}})
	require.NoError(t, err)
	assert.Len(t, result["characters"], 1)
	assert.Empty(t, result["items"], "ownership is already recorded")

	_, err = f.proc.BulkUpdate(context.Background(), BulkUpdateRequest{Text: text, Entities: []EntityRef{{Type: "ship", ID: 1}}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListEntities(t *testing.T) {
	f := newFixture(t)
	f.seed(t, models.EntityTypeCharacter, "chapter 10", nil)
	f.seed(t, models.EntityTypeCharacter, "chapter 2", nil)
	f.seed(t, models.EntityTypePlace, "Greyspire", nil)

	all, err := f.proc.ListEntities("", "name_nat")
	require.NoError(t, err)
	require.Len(t, all["characters"], 2)
	assert.Equal(t, "chapter 2", all["characters"][0].GetName())
	assert.Len(t, all["places"], 1)
	assert.Empty(t, all["items"])

	places, err := f.proc.ListEntities(models.EntityTypePlace, "")
	require.NoError(t, err)
	assert.Len(t, places, 1, "a filtered listing only carries its own key")
	assert.Len(t, places["places"], 1)
	assert.NotContains(t, places, "characters")

	items, err := f.proc.ListEntities(models.EntityTypeItem, "")
	require.NoError(t, err)
	require.Contains(t, items, "items")
	assert.NotNil(t, items["items"])
	assert.Empty(t, items["items"])

	_, err = f.proc.ListEntities("", "sideways")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteEntity(t *testing.T) {
	f := newFixture(t)
	e := f.seed(t, models.EntityTypeCharacter, "Elena", nil, "Lena")

	require.NoError(t, f.proc.DeleteEntity(models.EntityTypeCharacter, e.GetID()))
	_, err := f.proc.GetEntity(models.EntityTypeCharacter, e.GetID())
	assert.ErrorIs(t, err, ErrEntityNotFound)

	err = f.proc.DeleteEntity(models.EntityTypeCharacter, e.GetID())
	assert.ErrorIs(t, err, ErrEntityNotFound)
	assert.Contains(t, err.Error(), fmt.Sprintf("Character with ID %d not found", e.GetID()))
	assert.Equal(t, []recordedEvent{{EventEntityDeleted, models.EntityTypeCharacter, e.GetID()}}, f.notifier.events)

	found, err := f.proc.DetectEntities("Lena waved.")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestAliases(t *testing.T) {
	f := newFixture(t)
	e := f.seed(t, models.EntityTypeCharacter, "Elena Vance", nil)

	aliases, err := f.proc.AddAlias(models.EntityTypeCharacter, e.GetID(), " Lena ")
	require.NoError(t, err)
	require.Len(t, aliases, 1)
	assert.Equal(t, "Lena", aliases[0].Name)

	_, err = f.proc.AddAlias(models.EntityTypeCharacter, e.GetID(), "LENA")
	assert.ErrorIs(t, err, ErrDuplicateAlias)

	_, err = f.proc.AddAlias(models.EntityTypeCharacter, e.GetID(), "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.proc.AddAlias(models.EntityTypePlace, e.GetID(), "Lena")
	assert.ErrorIs(t, err, ErrEntityNotFound)

	aliases, err = f.proc.AddAlias(models.EntityTypeCharacter, e.GetID(), "The Captain")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lena", "The Captain"}, models.AliasNames(aliases))

	listed, err := f.proc.ListAliases(models.EntityTypeCharacter, e.GetID())
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	_, err = f.proc.ListAliases(models.EntityTypeItem, 42)
	assert.ErrorIs(t, err, ErrEntityNotFound)

	remaining, err := f.proc.DeleteAlias(models.EntityTypeCharacter, e.GetID(), aliases[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"The Captain"}, models.AliasNames(remaining))

	_, err = f.proc.DeleteAlias(models.EntityTypeCharacter, e.GetID(), aliases[0].ID)
	assert.ErrorIs(t, err, ErrAliasNotFound)

	assert.Equal(t, 3, f.index.invalidated)
}

func TestSearchEntities(t *testing.T) {
	f := newFixture(t)
	f.seed(t, models.EntityTypeCharacter, "Elena Vance", nil, "Lena")
	f.seed(t, models.EntityTypePlace, "Lenwick", nil)

	hits, err := f.proc.SearchEntities("len", "")
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = f.proc.SearchEntities("len", models.EntityTypePlace)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Lenwick", hits[0].Name)
}
