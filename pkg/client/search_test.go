package client

import (
	"testing"

	"github.com/ubuntupunk/muizedroid/pkg/models"
)

func searchIndexes() map[string]*models.Index {
	return map[string]*models.Index{
		"main": {
			Repo: models.RepoDescriptor{Name: "Main"},
			Apps: []*models.App{
				{PackageName: "org.example.mail", Name: "Mail Client", Summary: "Reads mail"},
				{PackageName: "org.example.camera", Name: "Camera", Summary: "Takes photos"},
			},
			Packages: map[string][]*models.PackageBuild{},
		},
		"extra": {
			Repo: models.RepoDescriptor{Name: "Extra"},
			Apps: []*models.App{
				{PackageName: "org.other.mailer", Name: "Another Mailer"},
			},
			Packages: map[string][]*models.PackageBuild{},
		},
	}
}

func TestSearchRanksExactPackageFirst(t *testing.T) {
	engine := NewSearchEngine(searchIndexes())

	results, err := engine.Search("org.example.mail", SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("no results")
	}
	if results[0].PackageName != "org.example.mail" {
		t.Errorf("top result = %q", results[0].PackageName)
	}
	if results[0].Score != 100.0 {
		t.Errorf("top score = %v", results[0].Score)
	}
}

func TestSearchAcrossBuckets(t *testing.T) {
	engine := NewSearchEngine(searchIndexes())

	results, err := engine.Search("mail", SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	buckets := make(map[string]bool)
	for _, r := range results {
		buckets[r.BucketName] = true
	}
	if !buckets["main"] || !buckets["extra"] {
		t.Errorf("results span buckets %v, want both", buckets)
	}
}

func TestSearchBucketFilter(t *testing.T) {
	engine := NewSearchEngine(searchIndexes())

	results, err := engine.Search("mail", SearchOptions{Bucket: "extra"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range results {
		if r.BucketName != "extra" {
			t.Errorf("result from bucket %q leaked through filter", r.BucketName)
		}
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	engine := NewSearchEngine(searchIndexes())
	if _, err := engine.Search("   ", SearchOptions{}); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestSearchExact(t *testing.T) {
	engine := NewSearchEngine(searchIndexes())

	results, err := engine.Search("camera", SearchOptions{Exact: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].PackageName != "org.example.camera" {
		t.Errorf("exact results = %+v", results)
	}
}
