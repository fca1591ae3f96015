package settings_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/raysh454/nyxguard/internal/logging"
	"github.com/raysh454/nyxguard/internal/settings"
	"github.com/raysh454/nyxguard/internal/store"
)

func newService(t *testing.T) (*settings.Service, *store.MemoryKV) {
	t.Helper()
	kv := store.NewMemoryKV()
	return settings.NewService(kv, logging.NewNopLogger()), kv
}

func TestService_LoadDefaults(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)

	got, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, settings.Defaults()) {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestService_LoadUnreadableRecord(t *testing.T) {
	t.Parallel()
	svc, kv := newService(t)
	ctx := context.Background()

	_ = kv.Set(ctx, settings.StoreKey, []byte("{not json"))

	got, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, settings.Defaults()) {
		t.Fatalf("expected defaults for unreadable record, got %+v", got)
	}
}

func TestService_SaveNormalizes(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	ctx := context.Background()

	in := settings.Defaults()
	in.LowMax = 120
	in.MediumMax = 5
	in.Allowlist = []string{"example.com"}
	in.Denylist = []string{"example.com"}

	saved, err := svc.Save(ctx, in)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.LowMax != 98 || saved.MediumMax != 99 {
		t.Errorf("thresholds = (%d, %d)", saved.LowMax, saved.MediumMax)
	}
	if len(saved.Denylist) != 0 {
		t.Errorf("Denylist should lose the allowlisted domain, got %v", saved.Denylist)
	}

	loaded, _ := svc.Load(ctx)
	if !reflect.DeepEqual(loaded, saved) {
		t.Fatalf("Load after Save mismatch:\n got %+v\nwant %+v", loaded, saved)
	}
}

func TestService_UpdateDomainLists(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	ctx := context.Background()

	deny := []string{"evil.test", "shared.test"}
	if _, err := svc.UpdateDomainLists(ctx, settings.DomainListsUpdate{Denylist: &deny}); err != nil {
		t.Fatalf("update deny: %v", err)
	}

	allow := []string{"Shared.test"}
	got, err := svc.UpdateDomainLists(ctx, settings.DomainListsUpdate{Allowlist: &allow})
	if err != nil {
		t.Fatalf("update allow: %v", err)
	}

	if !reflect.DeepEqual(got.Allowlist, []string{"shared.test"}) {
		t.Errorf("Allowlist = %v", got.Allowlist)
	}
	if !reflect.DeepEqual(got.Denylist, []string{"evil.test"}) {
		t.Errorf("Denylist = %v, untouched list should keep entries minus allowlist", got.Denylist)
	}
}

func TestService_AddDomainMovesBetweenLists(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	ctx := context.Background()

	got, err := svc.AddDomain(ctx, settings.ListDeny, "https://www.Tricky.example/login")
	if err != nil {
		t.Fatalf("AddDomain deny: %v", err)
	}
	if !reflect.DeepEqual(got.Denylist, []string{"tricky.example"}) {
		t.Fatalf("Denylist = %v", got.Denylist)
	}

	got, err = svc.AddDomain(ctx, settings.ListAllow, "tricky.example")
	if err != nil {
		t.Fatalf("AddDomain allow: %v", err)
	}
	if !reflect.DeepEqual(got.Allowlist, []string{"tricky.example"}) || len(got.Denylist) != 0 {
		t.Fatalf("expected domain moved to allowlist, got allow=%v deny=%v", got.Allowlist, got.Denylist)
	}

	got, err = svc.AddDomain(ctx, settings.ListDeny, "tricky.example")
	if err != nil {
		t.Fatalf("AddDomain deny again: %v", err)
	}
	if len(got.Allowlist) != 0 || !reflect.DeepEqual(got.Denylist, []string{"tricky.example"}) {
		t.Fatalf("expected domain moved to denylist, got allow=%v deny=%v", got.Allowlist, got.Denylist)
	}
}

func TestService_AddDomainErrors(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.AddDomain(ctx, settings.ListAllow, "not a domain"); !errors.Is(err, settings.ErrInvalidDomain) {
		t.Errorf("expected ErrInvalidDomain, got %v", err)
	}
	if _, err := svc.AddDomain(ctx, settings.List("grey"), "example.com"); !errors.Is(err, settings.ErrInvalidList) {
		t.Errorf("expected ErrInvalidList, got %v", err)
	}
}

func TestService_AddDomainConcurrent(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.AddDomain(ctx, settings.ListAllow, fmt.Sprintf("site%d.test", i)); err != nil {
				t.Errorf("AddDomain: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, _ := svc.Load(ctx)
	if len(got.Allowlist) != n {
		t.Fatalf("expected %d domains, got %d (%v)", n, len(got.Allowlist), got.Allowlist)
	}
}

func TestService_ImportDomainLines(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	ctx := context.Background()

	_, _ = svc.AddDomain(ctx, settings.ListDeny, "old.test")

	sum, err := svc.ImportDomainLines(ctx, settings.ListDeny, "a.test\nhttp://b.test\nc.test\n")
	if err != nil {
		t.Fatalf("ImportDomainLines: %v", err)
	}

	if !reflect.DeepEqual(sum.Settings.Denylist, []string{"a.test", "c.test"}) {
		t.Errorf("import should replace the list, got %v", sum.Settings.Denylist)
	}
	if !reflect.DeepEqual(sum.Invalid, []string{"http://b.test"}) {
		t.Errorf("Invalid = %v", sum.Invalid)
	}
	if msg := sum.Message(); !strings.Contains(msg, "http://b.test") || !strings.Contains(msg, "denylist") {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestService_Reset(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	ctx := context.Background()

	s := settings.Defaults()
	s.Sensitivity = 1.4
	_, _ = svc.Save(ctx, s)

	got, err := svc.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if !reflect.DeepEqual(got, settings.Defaults()) {
		t.Fatalf("Reset returned %+v", got)
	}
}

func TestParseList(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]settings.List{
		"allow": settings.ListAllow, "Allowlist": settings.ListAllow,
		"deny": settings.ListDeny, " denylist ": settings.ListDeny,
	} {
		got, err := settings.ParseList(in)
		if err != nil || got != want {
			t.Errorf("ParseList(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := settings.ParseList("block"); !errors.Is(err, settings.ErrInvalidList) {
		t.Errorf("expected ErrInvalidList, got %v", err)
	}
}
