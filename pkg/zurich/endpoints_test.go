package zurich

import (
	"sort"
	"testing"
)

func TestLayers(t *testing.T) {
	all := Layers()
	if len(all) != 14 {
		t.Fatalf("Layers() = %d entries, want 14", len(all))
	}
	if !sort.SliceIsSorted(all, func(i, j int) bool { return all[i].ID < all[j].ID }) {
		t.Error("Layers() not sorted by id")
	}

	l, ok := LookupLayer("schulanlagen")
	if !ok || l.Service != "Schulanlagen" || l.Typename != "poi_kindergarten_view" {
		t.Errorf("LookupLayer(schulanlagen) = %+v, %v", l, ok)
	}
	if _, ok := LookupLayer("unknown"); ok {
		t.Error("LookupLayer(unknown) should fail")
	}
}

func TestGroupsAndCategories(t *testing.T) {
	if len(Groups) != 19 {
		t.Errorf("Groups = %d, want 19", len(Groups))
	}
	names := TourismCategoryNames()
	if len(names) != 12 || !sort.StringsAreSorted(names) {
		t.Errorf("TourismCategoryNames() = %v", names)
	}
}

func TestDatasetURL(t *testing.T) {
	ep := DefaultEndpoints()
	if got := ep.DatasetURL("ssd_schulferien"); got != "https://data.stadt-zuerich.ch/dataset/ssd_schulferien" {
		t.Errorf("DatasetURL() = %q", got)
	}
}
