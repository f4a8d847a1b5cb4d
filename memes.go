package wreckage

import (
	"context"
	"math/rand"
)

// FallbackMeme is used when no other image source produces a URL.
const FallbackMeme = "https://picsum.photos/seed/wrecker-fallback/640/420"

// CuratedMemes are hotlink-friendly reaction images.
var CuratedMemes = []string{
	"https://picsum.photos/seed/wrecker1/640/420",
	"https://picsum.photos/seed/wrecker2/640/420",
	"https://placekitten.com/640/420",
	"https://picsum.photos/seed/wrecker3/600/400",
	"https://placekitten.com/600/400",
}

// Curated picks from a fixed list of meme URLs.
type Curated struct {
	URLs []string
	Rand *rand.Rand
}

// Meme implements MemeSource. It never fails.
func (c Curated) Meme(ctx context.Context, text string) (string, error) {
	return c.Pick(""), nil
}

// Pick returns a random URL other than exclude, or FallbackMeme if there is
// none.
func (c Curated) Pick(exclude string) string {
	urls := c.URLs
	if urls == nil {
		urls = CuratedMemes
	}
	candidates := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != exclude {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		return FallbackMeme
	}
	if c.Rand != nil {
		return candidates[c.Rand.Intn(len(candidates))]
	}
	return candidates[rand.Intn(len(candidates))]
}
