// Package rating computes rating aggregates for posts and communities.
package rating

import (
	"math"

	"github.com/samber/lo"

	"mindforum/internal/core"
)

// Average returns the mean of ratings rounded to 2 decimals, 0 for an
// empty input.
func Average(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}

	sum := lo.Sum(ratings)

	return math.Round(float64(sum)/float64(len(ratings))*100) / 100
}

// PostAverage averages the preloaded ratings of a single post.
func PostAverage(post core.Post) float64 {
	return Average(values(post.Ratings))
}

// PostsAverage flattens the preloaded ratings of all posts into one mean,
// the community-level aggregate.
func PostsAverage(posts []core.Post) float64 {
	all := lo.FlatMap(posts, func(post core.Post, _ int) []int {
		return values(post.Ratings)
	})
	return Average(all)
}

func values(ratings []core.PostRating) []int {
	return lo.Map(ratings, func(r core.PostRating, _ int) int {
		return r.Rating
	})
}
