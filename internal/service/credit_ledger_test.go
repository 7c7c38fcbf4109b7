package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erfajc97/anko-back/internal/model"
	"github.com/erfajc97/anko-back/internal/notify"
)

func TestConsumeRefundRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.store.addUser(t, "ana@example.com", model.RoleUser)
	up := f.store.addCredits(t, user.ID, 4, 4, f.store.now.AddDate(0, 0, -1))

	consumed, err := f.ledger.ConsumeClass(ctx, user.ID)
	if err != nil {
		t.Fatalf("ConsumeClass: %v", err)
	}
	if consumed.ID != up.ID || consumed.RemainingCredits != 3 {
		t.Fatalf("unexpected package after consume: %+v", consumed)
	}
	refunded, err := f.ledger.RefundClass(ctx, user.ID)
	if err != nil {
		t.Fatalf("RefundClass: %v", err)
	}
	if refunded.ID != up.ID || refunded.RemainingCredits != 4 {
		t.Fatalf("unexpected package after refund: %+v", refunded)
	}
}

func TestRefundNeverExceedsPurchasedCredits(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser(t, "ana@example.com", model.RoleUser)
	f.store.addCredits(t, user.ID, 4, 4, f.store.now.AddDate(0, 0, -1))

	_, err := f.ledger.RefundClass(context.Background(), user.ID)
	if !errors.Is(err, ErrNoRefundablePackage) {
		t.Fatalf("expected ErrNoRefundablePackage, got %v", err)
	}
	if got := f.store.remaining(user.ID); got != 4 {
		t.Errorf("credits changed to %d", got)
	}
}

func TestRefundPrefersNewestPackage(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser(t, "ana@example.com", model.RoleUser)
	older := f.store.addCredits(t, user.ID, 4, 2, f.store.now.AddDate(0, 0, -10))
	newer := f.store.addCredits(t, user.ID, 8, 6, f.store.now.AddDate(0, 0, -1))

	refunded, err := f.ledger.RefundClass(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("RefundClass: %v", err)
	}
	if refunded.ID != newer.ID {
		t.Errorf("refunded %s, want newest %s", refunded.ID, newer.ID)
	}
	if got := f.store.userPackage(older.ID).RemainingCredits; got != 2 {
		t.Errorf("older package touched: %d", got)
	}
}

func TestConsumeSkipsExpiredAndEmptyPackages(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser(t, "ana@example.com", model.RoleUser)
	f.store.addCredits(t, user.ID, 4, 4, f.store.now.AddDate(0, 0, -40))
	f.store.addCredits(t, user.ID, 4, 0, f.store.now.AddDate(0, 0, -5))
	live := f.store.addCredits(t, user.ID, 4, 2, f.store.now.AddDate(0, 0, -1))

	consumed, err := f.ledger.ConsumeClass(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ConsumeClass: %v", err)
	}
	if consumed.ID != live.ID {
		t.Errorf("consumed %s, want %s", consumed.ID, live.ID)
	}

	avail, err := f.ledger.Available(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Available: %v", err)
	}
	if avail.TotalAvailable != 1 || len(avail.Packages) != 1 {
		t.Errorf("unexpected availability: %+v", avail)
	}
}

func TestConsumeWithoutCredits(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser(t, "ana@example.com", model.RoleUser)
	_, err := f.ledger.ConsumeClass(context.Background(), user.ID)
	if !errors.Is(err, ErrNoAvailableCredits) {
		t.Fatalf("expected ErrNoAvailableCredits, got %v", err)
	}
	if KindOf(err) != KindBadRequest {
		t.Errorf("expected bad request kind, got %s", KindOf(err))
	}
}

func TestGrantSnapshotsCatalogCredits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.store.addUser(t, "ana@example.com", model.RoleUser)
	cp := f.store.addPackage(t, "Ten pack", 10, 12000)

	up, err := f.ledger.Grant(ctx, user.ID, cp.ID, model.SourcePurchase)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if up.TotalCredits != 10 || up.RemainingCredits != 10 {
		t.Errorf("unexpected credits: %+v", up)
	}
	if !up.ExpiresAt.Equal(f.store.now.AddDate(0, 0, 30)) {
		t.Errorf("expires at %v", up.ExpiresAt)
	}

	// editing the catalog later leaves the purchase untouched
	cp.ClassCredits = 20
	if _, err := f.store.UpdatePackage(ctx, &cp); err != nil {
		t.Fatalf("UpdatePackage: %v", err)
	}
	if got := f.store.userPackage(up.ID).TotalCredits; got != 10 {
		t.Errorf("total credits followed the catalog: %d", got)
	}

	if _, err := f.ledger.Grant(ctx, user.ID, "missing", model.SourceAdmin); !errors.Is(err, ErrPackageNotFound) {
		t.Errorf("expected ErrPackageNotFound, got %v", err)
	}
}

func TestAssignPackageByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff := f.store.addUser(t, "admin@example.com", model.RoleAdmin)
	user := f.store.addUser(t, "ana@example.com", model.RoleUser)
	cp := f.store.addPackage(t, "Four pack", 4, 5000)

	if _, err := f.ledger.Assign(ctx, principal(user), AssignPackageInput{PackageID: cp.ID, UserID: user.ID}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	up, err := f.ledger.Assign(ctx, admin(staff), AssignPackageInput{PackageID: cp.ID, Email: " ANA@example.com "})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if up.UserID != user.ID || up.Source != model.SourceAdmin {
		t.Errorf("unexpected package: %+v", up)
	}
	if got := f.notifier.templates(); len(got) != 1 || got[0] != notify.TemplatePackagePurchase {
		t.Errorf("emails = %v", got)
	}
	if _, err := f.ledger.Assign(ctx, admin(staff), AssignPackageInput{PackageID: cp.ID, Email: "nobody@example.com"}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateUserPackageBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff := f.store.addUser(t, "admin@example.com", model.RoleAdmin)
	user := f.store.addUser(t, "ana@example.com", model.RoleUser)
	up := f.store.addCredits(t, user.ID, 4, 1, f.store.now.AddDate(0, 0, -1))

	tooMany := 5
	if _, err := f.ledger.Update(ctx, admin(staff), up.ID, UpdateUserPackageInput{RemainingCredits: &tooMany}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	early := up.PurchasedAt.Add(-time.Hour)
	if _, err := f.ledger.Update(ctx, admin(staff), up.ID, UpdateUserPackageInput{ExpiresAt: &early}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	three := 3
	updated, err := f.ledger.Update(ctx, admin(staff), up.ID, UpdateUserPackageInput{RemainingCredits: &three})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.RemainingCredits != 3 {
		t.Errorf("remaining = %d", updated.RemainingCredits)
	}

	if _, err := f.ledger.Get(ctx, model.Principal{ID: "someone-else", Role: model.RoleUser}, up.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if err := f.ledger.Delete(ctx, admin(staff), up.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.ledger.Get(ctx, admin(staff), up.ID); !errors.Is(err, ErrUserPackageNotFound) {
		t.Errorf("expected ErrUserPackageNotFound, got %v", err)
	}
}
