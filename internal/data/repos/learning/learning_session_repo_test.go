package learning

import (
	"context"
	"testing"

	"github.com/yungbote/openlearn-backend/internal/data/repos/testutil"
	types "github.com/yungbote/openlearn-backend/internal/domain"
	"github.com/yungbote/openlearn-backend/internal/platform/dbctx"
)

func TestSessionReposCountsAndOwnership(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	log := testutil.Logger(t)

	sessions := NewLearningSessionRepo(db, log)
	links := NewSessionMaterialRepo(db, log)
	nodes := NewPrerequisiteNodeRepo(db, log)

	owner := testutil.SeedUser(t, ctx, db, "owner@example.com")
	other := testutil.SeedUser(t, ctx, db, "other@example.com")
	m1 := testutil.SeedMaterial(t, ctx, db, owner.ID, "a.pdf")
	m2 := testutil.SeedMaterial(t, ctx, db, owner.ID, "b.pdf")

	first := testutil.SeedSession(t, ctx, db, owner.ID, "first")
	second := testutil.SeedSession(t, ctx, db, owner.ID, "second")

	if _, err := links.Create(dbc, []*types.SessionMaterial{
		{SessionID: second.ID, MaterialID: m1.ID},
		{SessionID: second.ID, MaterialID: m2.ID},
	}); err != nil {
		t.Fatalf("links.Create: %v", err)
	}
	created, err := nodes.Create(dbc, []*types.PrerequisiteNode{
		{SessionID: second.ID, Name: "Vectors"},
		{SessionID: second.ID, Name: "Matrices"},
	})
	if err != nil {
		t.Fatalf("nodes.Create: %v", err)
	}
	if created[0].ID >= created[1].ID {
		t.Fatalf("node ids: want ascending got=%d,%d", created[0].ID, created[1].ID)
	}
	if err := nodes.SetParent(dbc, created[1].ID, created[0].ID); err != nil {
		t.Fatalf("SetParent: %v", err)
	}

	list, err := sessions.ListByOwner(dbc, owner.ID)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListByOwner: err=%v len=%d", err, len(list))
	}
	if list[0].ID != second.ID {
		t.Fatalf("ListByOwner order: want first=%d got=%d", second.ID, list[0].ID)
	}

	mc, err := links.CountBySessionIDs(dbc, []int64{first.ID, second.ID})
	if err != nil {
		t.Fatalf("links.CountBySessionIDs: %v", err)
	}
	if mc[second.ID] != 2 || mc[first.ID] != 0 {
		t.Fatalf("material counts: want 2/0 got=%d/%d", mc[second.ID], mc[first.ID])
	}
	nc, err := nodes.CountBySessionIDs(dbc, []int64{second.ID})
	if err != nil || nc[second.ID] != 2 {
		t.Fatalf("nodes.CountBySessionIDs: err=%v count=%d", err, nc[second.ID])
	}

	stored, err := nodes.GetBySessionIDs(dbc, []int64{second.ID})
	if err != nil || len(stored) != 2 {
		t.Fatalf("GetBySessionIDs: err=%v len=%d", err, len(stored))
	}
	if stored[1].ParentID == nil || *stored[1].ParentID != created[0].ID {
		t.Fatalf("parent: want=%d got=%v", created[0].ID, stored[1].ParentID)
	}

	if s, err := sessions.GetByOwnerAndID(dbc, other.ID, second.ID); err != nil || s != nil {
		t.Fatalf("GetByOwnerAndID foreign: want nil got=%v err=%v", s, err)
	}
	if s, err := sessions.GetByOwnerAndID(dbc, owner.ID, second.ID); err != nil || s == nil {
		t.Fatalf("GetByOwnerAndID own: err=%v row=%v", err, s)
	}

	if err := nodes.DeleteBySessionIDs(dbc, []int64{second.ID}); err != nil {
		t.Fatalf("nodes.DeleteBySessionIDs: %v", err)
	}
	if err := links.DeleteBySessionIDs(dbc, []int64{second.ID}); err != nil {
		t.Fatalf("links.DeleteBySessionIDs: %v", err)
	}
	if err := sessions.DeleteByIDs(dbc, []int64{second.ID}); err != nil {
		t.Fatalf("DeleteByIDs: %v", err)
	}
	if n := testutil.Count(t, db, &types.PrerequisiteNode{}); n != 0 {
		t.Fatalf("nodes after delete: want=0 got=%d", n)
	}
	if n := testutil.Count(t, db, &types.LearningSession{}); n != 1 {
		t.Fatalf("sessions after delete: want=1 got=%d", n)
	}
}
