package world

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/pixil98/go-testutil"
)

func sequentialIds(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func TestStore_SetMergesInsteadOfReplacing(t *testing.T) {
	s := NewStore(WithIdGenerator(sequentialIds("a")))

	s.Set("p1", KindPlayer, "conn-1", Attributes{X: Float(1), Y: Float(2)})
	att, ok := s.Attach("p1", Attributes{Extra: map[string]json.RawMessage{"shape": json.RawMessage(`"hat"`)}})
	if !ok {
		t.Fatal("expected attach to succeed")
	}

	e, created := s.Set("p1", KindPlayer, "conn-1", Attributes{X: Float(5)})

	testutil.AssertEqual(t, "created", created, false)
	testutil.AssertEqual(t, "x", *e.Attrs.X, 5.0)
	testutil.AssertEqual(t, "y", *e.Attrs.Y, 2.0)
	testutil.AssertEqual(t, "attachment count", len(e.Attachments()), 1)
	testutil.AssertEqual(t, "attachment id", e.Attachments()[0].Id, att.Id)
}

func TestStore_SetPreservesExtraKeys(t *testing.T) {
	s := NewStore()

	var initial Attributes
	if err := json.Unmarshal([]byte(`{"x":1,"color":"red","size":[1,2,3]}`), &initial); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	s.Set("b1", KindPart, "", initial)

	var patch Attributes
	if err := json.Unmarshal([]byte(`{"color":"blue"}`), &patch); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	e, _ := s.Set("b1", KindPart, "", patch)

	testutil.AssertEqual(t, "x", *e.Attrs.X, 1.0)
	testutil.AssertEqual(t, "color", string(e.Attrs.Extra["color"]), `"blue"`)
	testutil.AssertEqual(t, "size", string(e.Attrs.Extra["size"]), `[1,2,3]`)
}

func TestStore_Set(t *testing.T) {
	tests := map[string]struct {
		id       string
		kind     Kind
		owner    string
		expId    string
		expOwner string
	}{
		"server assigns id when absent": {
			kind:  KindPart,
			expId: "id1",
		},
		"client id is kept": {
			id:    "mine",
			kind:  KindPart,
			expId: "mine",
		},
		"persistent kinds have no owner": {
			id:    "block",
			kind:  KindPart,
			owner: "conn-1",
			expId: "block",
		},
		"transient kinds record owner": {
			id:       "arm",
			kind:     KindAvatarPart,
			owner:    "conn-1",
			expId:    "arm",
			expOwner: "conn-1",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := NewStore(WithIdGenerator(sequentialIds("id")))

			e, created := s.Set(tt.id, tt.kind, tt.owner, Attributes{})

			testutil.AssertEqual(t, "created", created, true)
			testutil.AssertEqual(t, "id", e.Id, tt.expId)
			testutil.AssertEqual(t, "owner", e.Owner, tt.expOwner)
			testutil.AssertEqual(t, "len", s.Len(), 1)
		})
	}
}

func TestStore_GeneratedIdsSkipCollisions(t *testing.T) {
	ids := []string{"dup", "dup", "fresh"}
	i := 0
	s := NewStore(WithIdGenerator(func() string {
		id := ids[i]
		i++
		return id
	}))

	first, _ := s.Set("", KindPart, "", Attributes{})
	second, _ := s.Set("", KindPart, "", Attributes{})

	testutil.AssertEqual(t, "first", first.Id, "dup")
	testutil.AssertEqual(t, "second", second.Id, "fresh")
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	s := NewStore()
	s.Set("b1", KindPart, "", Attributes{})

	_, ok := s.Delete("b1")
	testutil.AssertEqual(t, "first delete", ok, true)

	_, ok = s.Delete("b1")
	testutil.AssertEqual(t, "second delete", ok, false)

	_, ok = s.Delete("never-existed")
	testutil.AssertEqual(t, "unknown delete", ok, false)
	testutil.AssertEqual(t, "len", s.Len(), 0)
}

func TestStore_Attachments(t *testing.T) {
	s := NewStore(WithIdGenerator(sequentialIds("att")))
	s.Set("p1", KindPlayer, "conn-1", Attributes{})
	s.Set("b1", KindPart, "", Attributes{})

	_, ok := s.Attach("missing", Attributes{})
	testutil.AssertEqual(t, "attach to missing owner", ok, false)

	_, ok = s.Attach("b1", Attributes{})
	testutil.AssertEqual(t, "attach to world part", ok, false)

	a, ok := s.Attach("p1", Attributes{X: Float(1), Name: String("hat")})
	testutil.AssertEqual(t, "attach", ok, true)

	updated, ok := s.UpdateAttachment("p1", a.Id, Attributes{X: Float(3)})
	testutil.AssertEqual(t, "update", ok, true)
	testutil.AssertEqual(t, "updated x", *updated.Attrs.X, 3.0)
	testutil.AssertEqual(t, "name kept", *updated.Attrs.Name, "hat")

	_, ok = s.UpdateAttachment("p1", "nope", Attributes{X: Float(3)})
	testutil.AssertEqual(t, "update missing attachment", ok, false)

	testutil.AssertEqual(t, "delete missing attachment", s.DeleteAttachment("p1", "nope"), false)
	testutil.AssertEqual(t, "delete attachment", s.DeleteAttachment("p1", a.Id), true)

	e, _ := s.Get("p1")
	testutil.AssertEqual(t, "attachments left", len(e.Attachments()), 0)
}

func TestStore_DeletingPlayerDropsAttachments(t *testing.T) {
	s := NewStore()
	s.Set("p1", KindPlayer, "conn-1", Attributes{})
	a, _ := s.Attach("p1", Attributes{})

	s.Delete("p1")

	_, ok := s.UpdateAttachment("p1", a.Id, Attributes{X: Float(1)})
	testutil.AssertEqual(t, "update after owner deleted", ok, false)

	s.Set("p1", KindPlayer, "conn-2", Attributes{})
	e, _ := s.Get("p1")
	testutil.AssertEqual(t, "attachments on recreated player", len(e.Attachments()), 0)
}

func TestStore_SnapshotIsOrderedCopy(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"c", "a", "b"} {
		s.Set(id, KindPart, "", Attributes{X: Float(1)})
	}

	snap := s.Snapshot()
	snap[0].Attrs.X = Float(99)

	var ids []string
	for _, e := range snap {
		ids = append(ids, e.Id)
	}
	testutil.AssertEqual(t, "order", fmt.Sprint(ids), "[c a b]")

	live, _ := s.Get("c")
	testutil.AssertEqual(t, "live unchanged", *live.Attrs.X, 1.0)
}
