package memory

import (
	"context"
	"testing"

	"github.com/brightforge/portal/internal/store/core"
)

func TestUserConflict(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := &core.User{Username: "alice", Email: "alice@example.com", PasswordHash: "h", Role: core.RoleClient}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == "" {
		t.Fatal("create no asignó ID")
	}

	dup := &core.User{Username: "ALICE", Email: "otra@example.com"}
	if err := s.CreateUser(ctx, dup); err != core.ErrConflict {
		t.Fatalf("username duplicado: got %v, want ErrConflict", err)
	}
	dup = &core.User{Username: "otra", Email: "Alice@Example.com"}
	if err := s.CreateUser(ctx, dup); err != core.ErrConflict {
		t.Fatalf("email duplicado: got %v, want ErrConflict", err)
	}
}

func TestClientExternalIDLookup(t *testing.T) {
	s := New()
	ctx := context.Background()

	ext := "9001"
	c := &core.Client{Name: "Acme", FreshbooksID: &ext}
	if err := s.CreateClient(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetClientByExternalID(ctx, "freshbooks", "9001")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ID != c.ID {
		t.Fatalf("lookup devolvió %s, want %s", got.ID, c.ID)
	}

	if _, err := s.GetClientByExternalID(ctx, "freshbooks", "nope"); err != core.ErrNotFound {
		t.Fatalf("lookup inexistente: got %v, want ErrNotFound", err)
	}
}

func TestCopySemantics(t *testing.T) {
	s := New()
	ctx := context.Background()

	c := &core.Client{Name: "Original"}
	if err := s.CreateClient(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, _ := s.GetClient(ctx, c.ID)
	got.Name = "Mutado"

	again, _ := s.GetClient(ctx, c.ID)
	if again.Name != "Original" {
		t.Fatalf("mutar la copia leída no debe tocar el storage: got %q", again.Name)
	}
}

func TestActivityNewestFirstWithLimit(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, action := range []string{"a", "b", "c"} {
		if err := s.AppendActivity(ctx, &core.Activity{Action: action}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	out, err := s.ListActivity(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("limit: got %d, want 2", len(out))
	}
	if out[0].Action != "c" || out[1].Action != "b" {
		t.Fatalf("orden: got %s,%s; want c,b", out[0].Action, out[1].Action)
	}
}

func TestContentBlockUpsertAndOrder(t *testing.T) {
	s := New()
	ctx := context.Background()

	_ = s.UpsertContentBlock(ctx, &core.ContentBlock{Key: "b", Title: "dos", SortOrder: 2})
	_ = s.UpsertContentBlock(ctx, &core.ContentBlock{Key: "a", Title: "uno", SortOrder: 1})
	_ = s.UpsertContentBlock(ctx, &core.ContentBlock{Key: "a", Title: "uno v2", SortOrder: 1})

	out, err := s.ListContentBlocks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("upsert duplicó: got %d bloques", len(out))
	}
	if out[0].Key != "a" || out[0].Title != "uno v2" {
		t.Fatalf("orden/upsert: got key=%s title=%q", out[0].Key, out[0].Title)
	}
}

func TestListInvoicesFilterByClient(t *testing.T) {
	s := New()
	ctx := context.Background()

	_ = s.CreateInvoice(ctx, &core.Invoice{ClientID: "c1", Number: "1"})
	_ = s.CreateInvoice(ctx, &core.Invoice{ClientID: "c2", Number: "2"})

	out, err := s.ListInvoices(ctx, "c1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 || out[0].Number != "1" {
		t.Fatalf("filtro por client: got %d facturas", len(out))
	}

	all, _ := s.ListInvoices(ctx, "")
	if len(all) != 2 {
		t.Fatalf("sin filtro: got %d facturas", len(all))
	}
}
