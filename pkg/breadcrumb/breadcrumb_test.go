package breadcrumb

import (
	"context"
	"fmt"
	"testing"

	"github.com/ashvinparmar897/atc-drive-web/pkg/models"
)

type fakeFetcher struct {
	folders map[string]models.Folder
	calls   int
}

func (f *fakeFetcher) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	f.calls++
	folder, ok := f.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s not found", id)
	}
	return &folder, nil
}

func crumbNames(crumbs []models.Crumb) []string {
	names := make([]string, 0, len(crumbs))
	for _, c := range crumbs {
		names = append(names, c.Name)
	}
	return names
}

func TestBuild_NilFolderIsRootOnly(t *testing.T) {
	b := New(&fakeFetcher{}, 0)
	crumbs := b.Build(context.Background(), nil)
	if len(crumbs) != 1 {
		t.Fatalf("expected 1 crumb, got %d", len(crumbs))
	}
	if crumbs[0].ID != models.RootID || crumbs[0].Name != models.RootName {
		t.Errorf("expected root sentinel, got %+v", crumbs[0])
	}
}

func TestBuild_WalksToRoot(t *testing.T) {
	f := &fakeFetcher{folders: map[string]models.Folder{
		"2": {ID: "2", Name: "2024", ParentID: ""},
	}}
	b := New(f, 0)

	current := &models.Folder{ID: "5", Name: "Reports", ParentID: "2"}
	crumbs := b.Build(context.Background(), current)

	want := []string{models.RootName, "2024", "Reports"}
	got := crumbNames(crumbs)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("crumb %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestBuild_PartialChainOnFetchFailure(t *testing.T) {
	// The middle ancestor resolves but its parent does not; the chain
	// truncates there instead of failing navigation.
	f := &fakeFetcher{folders: map[string]models.Folder{
		"2": {ID: "2", Name: "2024", ParentID: "missing"},
	}}
	b := New(f, 0)

	current := &models.Folder{ID: "5", Name: "Reports", ParentID: "2"}
	crumbs := b.Build(context.Background(), current)

	got := crumbNames(crumbs)
	want := []string{models.RootName, "2024", "Reports"}
	if len(got) != len(want) {
		t.Fatalf("expected partial chain %v, got %v", want, got)
	}
	if crumbs[0].ID != models.RootID {
		t.Error("partial chain must still start at the root sentinel")
	}
}

func TestBuild_SelfParentDoesNotLoop(t *testing.T) {
	f := &fakeFetcher{folders: map[string]models.Folder{
		"1": {ID: "1", Name: "Loop", ParentID: "1"},
	}}
	b := New(f, 0)

	current := &models.Folder{ID: "1", Name: "Loop", ParentID: "1"}
	crumbs := b.Build(context.Background(), current)

	if len(crumbs) != 2 {
		t.Fatalf("expected root + folder, got %v", crumbNames(crumbs))
	}
	if f.calls != 0 {
		t.Errorf("self-parent should be caught before any fetch, got %d calls", f.calls)
	}
}

func TestBuild_CycleDetection(t *testing.T) {
	f := &fakeFetcher{folders: map[string]models.Folder{
		"a": {ID: "a", Name: "A", ParentID: "b"},
		"b": {ID: "b", Name: "B", ParentID: "a"},
	}}
	b := New(f, 0)

	current := &models.Folder{ID: "a", Name: "A", ParentID: "b"}
	crumbs := b.Build(context.Background(), current)

	seen := map[string]bool{}
	for _, c := range crumbs {
		if seen[c.ID] {
			t.Fatalf("duplicate crumb id %s in %v", c.ID, crumbNames(crumbs))
		}
		seen[c.ID] = true
	}
}

func TestBuild_DepthBound(t *testing.T) {
	folders := map[string]models.Folder{}
	for i := 1; i <= 100; i++ {
		folders[fmt.Sprint(i)] = models.Folder{
			ID:       fmt.Sprint(i),
			Name:     fmt.Sprintf("level-%d", i),
			ParentID: fmt.Sprint(i + 1),
		}
	}
	f := &fakeFetcher{folders: folders}
	b := New(f, 5)

	current := &models.Folder{ID: "0", Name: "leaf", ParentID: "1"}
	crumbs := b.Build(context.Background(), current)

	// Root sentinel, up to maxDepth ancestors, and the current folder.
	if len(crumbs) > 7 {
		t.Errorf("expected at most 7 crumbs with maxDepth=5, got %d", len(crumbs))
	}
	if f.calls > 5 {
		t.Errorf("expected at most 5 fetches, got %d", f.calls)
	}
}
