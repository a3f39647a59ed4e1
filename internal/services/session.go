package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/openlearn-backend/internal/data/repos"
	types "github.com/yungbote/openlearn-backend/internal/domain"
	"github.com/yungbote/openlearn-backend/internal/observability"
	"github.com/yungbote/openlearn-backend/internal/platform/dbctx"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
	"github.com/yungbote/openlearn-backend/internal/platform/wikipedia"
)

const (
	wikipediaSummaryLimit = 600
	enrichmentParallelism = 4
)

// Enricher looks up a short external summary for a concept. It never fails;
// an empty Summary means nothing was found.
type Enricher interface {
	FetchSummary(ctx context.Context, topic string) wikipedia.Summary
}

type CreateSessionInput struct {
	Title     string  `json:"title"`
	Objective *string `json:"objective"`
	// MaterialIDs holds whatever the client sent; ids are coerced and
	// validated by CreateSession.
	MaterialIDs []any `json:"material_ids"`
}

type SessionMaterialView struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

type PrerequisiteView struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Description      *string `json:"description"`
	ParentID         *int64  `json:"parent_id"`
	WikipediaSummary *string `json:"wikipedia_summary"`
	WikipediaURL     *string `json:"wikipedia_url"`
}

type SessionView struct {
	ID            int64                 `json:"id"`
	Title         string                `json:"title"`
	Objective     *string               `json:"objective"`
	CreatedAt     time.Time             `json:"created_at"`
	Materials     []SessionMaterialView `json:"materials"`
	Prerequisites []PrerequisiteView    `json:"prerequisites"`
}

type SessionSummary struct {
	ID                int64   `json:"id"`
	Title             string  `json:"title"`
	Objective         *string `json:"objective"`
	MaterialCount     int64   `json:"material_count"`
	PrerequisiteCount int64   `json:"prerequisite_count"`
}

type SessionService interface {
	CreateSession(ctx context.Context, userID int64, in CreateSessionInput) (*SessionView, error)
	ListSessions(ctx context.Context, userID int64) ([]SessionSummary, error)
	GetSession(ctx context.Context, userID, sessionID int64) (*SessionView, error)
	DeleteSession(ctx context.Context, userID, sessionID int64) error
}

type sessionService struct {
	db           *gorm.DB
	log          *logger.Logger
	materialRepo repos.LearningMaterialRepo
	sessionRepo  repos.LearningSessionRepo
	linkRepo     repos.SessionMaterialRepo
	nodeRepo     repos.PrerequisiteNodeRepo
	synthesizer  PrerequisiteSynthesizer
	enricher     Enricher
}

func NewSessionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	materialRepo repos.LearningMaterialRepo,
	sessionRepo repos.LearningSessionRepo,
	linkRepo repos.SessionMaterialRepo,
	nodeRepo repos.PrerequisiteNodeRepo,
	synthesizer PrerequisiteSynthesizer,
	enricher Enricher,
) SessionService {
	return &sessionService{
		db:           db,
		log:          baseLog.With("service", "SessionService"),
		materialRepo: materialRepo,
		sessionRepo:  sessionRepo,
		linkRepo:     linkRepo,
		nodeRepo:     nodeRepo,
		synthesizer:  synthesizer,
		enricher:     enricher,
	}
}

func (ss *sessionService) CreateSession(ctx context.Context, userID int64, in CreateSessionInput) (*SessionView, error) {
	view, err := ss.createSession(ctx, userID, in)
	observability.Current().IncSessionCreate(sessionOutcome(err))
	return view, err
}

func (ss *sessionService) createSession(ctx context.Context, userID int64, in CreateSessionInput) (*SessionView, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalidInput("title required")
	}
	if len(in.MaterialIDs) == 0 {
		return nil, invalidInput("at least one material required")
	}
	ids, err := normalizeMaterialIDs(in.MaterialIDs)
	if err != nil {
		return nil, err
	}
	objective := trimmedOrNil(in.Objective)

	owned, err := ss.materialRepo.GetByOwnerAndIDs(dbctx.Context{Ctx: ctx}, userID, ids)
	if err != nil {
		return nil, err
	}
	if len(owned) != len(ids) {
		return nil, ErrMaterialsNotFound
	}
	byID := make(map[int64]*types.LearningMaterial, len(owned))
	for _, m := range owned {
		byID[m.ID] = m
	}
	descriptors := make([]MaterialDescriptor, 0, len(ids))
	for _, id := range ids {
		descriptors = append(descriptors, MaterialDescriptor{Filename: byID[id].Filename})
	}

	suggestions, err := ss.synthesizer.GenerateTree(ctx, title, objective, descriptors)
	if err != nil {
		return nil, err
	}
	unique := uniqueSuggestions(suggestions)
	summaries := ss.enrich(ctx, unique)

	session := &types.LearningSession{OwnerID: userID, Title: title, Objective: objective}
	var nodes []*types.PrerequisiteNode

	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		if _, err := ss.sessionRepo.Create(dbc, []*types.LearningSession{session}); err != nil {
			return err
		}
		links := make([]*types.SessionMaterial, 0, len(ids))
		for _, id := range ids {
			links = append(links, &types.SessionMaterial{SessionID: session.ID, MaterialID: id})
		}
		if _, err := ss.linkRepo.Create(dbc, links); err != nil {
			return err
		}

		nodes = make([]*types.PrerequisiteNode, 0, len(unique))
		for i, s := range unique {
			nodes = append(nodes, &types.PrerequisiteNode{
				SessionID:        session.ID,
				Name:             s.Name,
				Description:      nonEmpty(s.Description),
				WikipediaSummary: nonEmpty(truncateSummary(summaries[i].Extract)),
				WikipediaURL:     nonEmpty(summaries[i].URL),
			})
		}
		if _, err := ss.nodeRepo.Create(dbc, nodes); err != nil {
			return err
		}
		return ss.linkParents(dbc, suggestions, nodes)
	})
	if err != nil {
		ss.log.Error("create session failed", "user_id", userID, "error", err.Error())
		return nil, err
	}

	ss.log.Info("session created", "user_id", userID, "session_id", session.ID, "materials", len(ids), "prerequisites", len(nodes))
	return buildSessionView(session, owned, nodes), nil
}

// linkParents resolves parent names against the persisted batch. A parent
// that is the child itself, or already descends from it, is ignored.
func (ss *sessionService) linkParents(dbc dbctx.Context, suggestions []Suggestion, nodes []*types.PrerequisiteNode) error {
	byName := make(map[string]*types.PrerequisiteNode, len(nodes))
	byID := make(map[int64]*types.PrerequisiteNode, len(nodes))
	for _, n := range nodes {
		byName[nameKey(n.Name)] = n
		byID[n.ID] = n
	}

	for _, s := range suggestions {
		if s.Parent == nil {
			continue
		}
		child := byName[nameKey(s.Name)]
		parent := byName[nameKey(*s.Parent)]
		if child == nil || parent == nil || child.ID == parent.ID {
			continue
		}
		if descendsFrom(byID, parent, child.ID) {
			continue
		}
		if err := ss.nodeRepo.SetParent(dbc, child.ID, parent.ID); err != nil {
			return err
		}
		pid := parent.ID
		child.ParentID = &pid
	}
	return nil
}

func descendsFrom(byID map[int64]*types.PrerequisiteNode, node *types.PrerequisiteNode, ancestorID int64) bool {
	seen := map[int64]bool{}
	for cur := node; cur != nil && cur.ParentID != nil; cur = byID[*cur.ParentID] {
		if *cur.ParentID == ancestorID {
			return true
		}
		if seen[cur.ID] {
			return false
		}
		seen[cur.ID] = true
	}
	return false
}

// enrich looks every suggestion up concurrently. Results line up with the
// input by index.
func (ss *sessionService) enrich(ctx context.Context, suggestions []Suggestion) []wikipedia.Summary {
	out := make([]wikipedia.Summary, len(suggestions))
	if ss.enricher == nil {
		return out
	}
	var g errgroup.Group
	g.SetLimit(enrichmentParallelism)
	for i := range suggestions {
		g.Go(func() error {
			out[i] = ss.safeFetch(ctx, suggestions[i].Name)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (ss *sessionService) safeFetch(ctx context.Context, topic string) (s wikipedia.Summary) {
	defer func() {
		if r := recover(); r != nil {
			ss.log.Warn("enrichment panicked", "topic", topic, "panic", r)
			s = wikipedia.Summary{}
		}
	}()
	return ss.enricher.FetchSummary(ctx, topic)
}

func (ss *sessionService) ListSessions(ctx context.Context, userID int64) ([]SessionSummary, error) {
	dbc := dbctx.Context{Ctx: ctx}
	sessions, err := ss.sessionRepo.ListByOwner(dbc, userID)
	if err != nil {
		return nil, err
	}
	out := make([]SessionSummary, 0, len(sessions))
	if len(sessions) == 0 {
		return out, nil
	}
	ids := make([]int64, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	materialCounts, err := ss.linkRepo.CountBySessionIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	nodeCounts, err := ss.nodeRepo.CountBySessionIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	for _, s := range sessions {
		out = append(out, SessionSummary{
			ID:                s.ID,
			Title:             s.Title,
			Objective:         s.Objective,
			MaterialCount:     materialCounts[s.ID],
			PrerequisiteCount: nodeCounts[s.ID],
		})
	}
	return out, nil
}

func (ss *sessionService) GetSession(ctx context.Context, userID, sessionID int64) (*SessionView, error) {
	dbc := dbctx.Context{Ctx: ctx}
	session, err := ss.sessionRepo.GetByOwnerAndID(dbc, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	links, err := ss.linkRepo.GetBySessionIDs(dbc, []int64{session.ID})
	if err != nil {
		return nil, err
	}
	materialIDs := make([]int64, 0, len(links))
	for _, l := range links {
		materialIDs = append(materialIDs, l.MaterialID)
	}
	var materials []*types.LearningMaterial
	if len(materialIDs) > 0 {
		if materials, err = ss.materialRepo.GetByIDs(dbc, materialIDs); err != nil {
			return nil, err
		}
	}
	nodes, err := ss.nodeRepo.GetBySessionIDs(dbc, []int64{session.ID})
	if err != nil {
		return nil, err
	}
	return buildSessionView(session, materials, nodes), nil
}

func (ss *sessionService) DeleteSession(ctx context.Context, userID, sessionID int64) error {
	session, err := ss.sessionRepo.GetByOwnerAndID(dbctx.Context{Ctx: ctx}, userID, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	return ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		ids := []int64{session.ID}
		if err := ss.nodeRepo.DeleteBySessionIDs(dbc, ids); err != nil {
			return err
		}
		if err := ss.linkRepo.DeleteBySessionIDs(dbc, ids); err != nil {
			return err
		}
		return ss.sessionRepo.DeleteByIDs(dbc, ids)
	})
}

func buildSessionView(session *types.LearningSession, materials []*types.LearningMaterial, nodes []*types.PrerequisiteNode) *SessionView {
	view := &SessionView{
		ID:            session.ID,
		Title:         session.Title,
		Objective:     session.Objective,
		CreatedAt:     session.CreatedAt,
		Materials:     make([]SessionMaterialView, 0, len(materials)),
		Prerequisites: make([]PrerequisiteView, 0, len(nodes)),
	}
	for _, m := range materials {
		view.Materials = append(view.Materials, SessionMaterialView{ID: m.ID, Filename: m.Filename, Status: m.Status})
	}
	sort.Slice(view.Materials, func(i, j int) bool { return view.Materials[i].ID < view.Materials[j].ID })

	for _, n := range nodes {
		view.Prerequisites = append(view.Prerequisites, PrerequisiteView{
			ID:               n.ID,
			Name:             n.Name,
			Description:      n.Description,
			ParentID:         n.ParentID,
			WikipediaSummary: n.WikipediaSummary,
			WikipediaURL:     n.WikipediaURL,
		})
	}
	sort.SliceStable(view.Prerequisites, func(i, j int) bool {
		a, b := view.Prerequisites[i], view.Prerequisites[j]
		pa, pb := parentOrZero(a.ParentID), parentOrZero(b.ParentID)
		if pa != pb {
			return pa < pb
		}
		return a.ID < b.ID
	})
	return view
}

func parentOrZero(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

// uniqueSuggestions keeps the first suggestion per case-insensitive name.
func uniqueSuggestions(in []Suggestion) []Suggestion {
	seen := make(map[string]struct{}, len(in))
	out := make([]Suggestion, 0, len(in))
	for _, s := range in {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			continue
		}
		key := nameKey(s.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func truncateSummary(text string) string {
	if utf8.RuneCountInString(text) <= wikipediaSummaryLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:wikipediaSummaryLimit-3]) + "..."
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// normalizeMaterialIDs coerces client-supplied ids to positive integers,
// dropping repeats but keeping first-seen order.
func normalizeMaterialIDs(raw []any) ([]int64, error) {
	seen := make(map[int64]struct{}, len(raw))
	out := make([]int64, 0, len(raw))
	for _, v := range raw {
		id, ok := coerceID(v)
		if !ok || id <= 0 {
			return nil, invalidInput("material ids must be positive integers")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func coerceID(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return uintID(uint64(t))
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		return uintID(t)
	case float32:
		return floatID(float64(t))
	case float64:
		return floatID(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return floatID(f)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func uintID(u uint64) (int64, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}

func floatID(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func sessionOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrMaterialsNotFound):
		return "materials_not_found"
	case errors.Is(err, ErrSynthesisFailure):
		return "synthesis_failed"
	default:
		return "error"
	}
}
