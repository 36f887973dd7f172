package client

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ubuntupunk/muizedroid/pkg/models"
)

// SearchResult represents a search result
type SearchResult struct {
	PackageName string  `json:"package_name"`
	AppName     string  `json:"app_name"`
	Version     string  `json:"version"`
	Summary     string  `json:"summary"`
	BucketName  string  `json:"bucket_name"`
	Category    string  `json:"category"`
	Score       float64 `json:"score"`
	Size        int64   `json:"size"`
	MinSDK      int     `json:"min_sdk"`
	TargetSDK   int     `json:"target_sdk"`
}

// SearchOptions contains search options
type SearchOptions struct {
	Bucket   string
	MinSDK   int
	Category string
	Limit    int
	Sort     string
	Exact    bool
}

// SearchEngine ranks applications from pulled repository indexes.
type SearchEngine struct {
	indexes map[string]*models.Index // keyed by bucket name
}

// NewSearchEngine creates a search engine over a set of verified indexes.
func NewSearchEngine(indexes map[string]*models.Index) *SearchEngine {
	return &SearchEngine{indexes: indexes}
}

// Search scores every application in every loaded index against the query.
func (s *SearchEngine) Search(query string, options SearchOptions) ([]SearchResult, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}

	var results []SearchResult

	for bucketName, index := range s.indexes {
		if options.Bucket != "" && !strings.EqualFold(bucketName, options.Bucket) {
			continue
		}

		for _, app := range index.Apps {
			var score float64
			if options.Exact {
				score = calculateExactScore(query, app)
			} else {
				score = calculateScore(query, app)
			}
			if score == 0 {
				continue
			}

			if options.Category != "" && !hasCategory(app, options.Category) {
				continue
			}

			result := SearchResult{
				PackageName: app.PackageName,
				AppName:     app.DisplayName(),
				Version:     app.CurrentVersion,
				Summary:     app.Summary,
				BucketName:  bucketName,
				Score:       score,
			}
			if len(app.Categories) > 0 {
				result.Category = app.Categories[0]
			}

			if build, err := SelectBuild(index, app.PackageName, app.CurrentVersionCode); err == nil {
				result.Size = build.Size
				result.MinSDK = build.MinSdkVersion
				result.TargetSDK = build.TargetSdkVersion
			}

			if options.MinSDK > 0 && result.MinSDK < options.MinSDK {
				continue
			}

			results = append(results, result)
		}
	}

	sortResults(results, options.Sort)

	if options.Limit > 0 && len(results) > options.Limit {
		results = results[:options.Limit]
	}

	return results, nil
}

func hasCategory(app *models.App, category string) bool {
	for _, c := range app.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// calculateScore calculates relevance score for an application
func calculateScore(query string, app *models.App) float64 {
	score := 0.0

	// Exact package name match
	if strings.EqualFold(app.PackageName, query) {
		return 100.0
	}

	if strings.Contains(strings.ToLower(app.PackageName), query) {
		score += 50.0
	}

	appName := strings.ToLower(app.DisplayName())
	if appName == query {
		score += 80.0
	} else if strings.Contains(appName, query) {
		score += 40.0
		// Bonus for word boundary match
		words := strings.Fields(appName)
		for _, word := range words {
			if strings.HasPrefix(word, query) {
				score += 10.0
				break
			}
		}
	}

	if strings.Contains(strings.ToLower(app.Summary), query) {
		score += 10.0
	}

	for _, category := range app.Categories {
		if strings.Contains(strings.ToLower(category), query) {
			score += 5.0
			break
		}
	}

	return score
}

// calculateExactScore calculates score for exact matching
func calculateExactScore(query string, app *models.App) float64 {
	query = strings.ToLower(query)

	if strings.EqualFold(app.PackageName, query) {
		return 100.0
	}

	appName := strings.ToLower(app.DisplayName())
	if appName == query {
		return 90.0
	}

	words := strings.Fields(appName)
	for _, word := range words {
		if word == query {
			return 80.0
		}
	}

	return 0.0
}

// sortResults sorts search results based on the specified criteria
func sortResults(results []SearchResult, sortBy string) {
	switch strings.ToLower(sortBy) {
	case "name":
		sort.Slice(results, func(i, j int) bool {
			return strings.ToLower(results[i].AppName) < strings.ToLower(results[j].AppName)
		})
	case "size":
		sort.Slice(results, func(i, j int) bool {
			return results[i].Size > results[j].Size
		})
	case "package":
		sort.Slice(results, func(i, j int) bool {
			return results[i].PackageName < results[j].PackageName
		})
	case "relevance":
		fallthrough
	default:
		// Score descending, then name
		sort.Slice(results, func(i, j int) bool {
			if results[i].Score == results[j].Score {
				return strings.ToLower(results[i].AppName) < strings.ToLower(results[j].AppName)
			}
			return results[i].Score > results[j].Score
		})
	}
}
