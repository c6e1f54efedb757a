package words

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/wordbomb-backend/internal"
)

func TestDefaultDictionary(t *testing.T) {
	d := Default()
	assert.Greater(t, d.Len(), 1000)

	for _, w := range []string{"running", "banana", "Computer", " station "} {
		assert.True(t, d.Contains(w), w)
	}
	assert.False(t, d.Contains("qwzx"))
	assert.False(t, d.Contains(""))
}

func TestNewDictionarySkipsJunk(t *testing.T) {
	d := NewDictionary([]string{"Apple", "", "  ", "two words", "x1", "don't", "well-known"})
	assert.Equal(t, 3, d.Len())
	assert.True(t, d.Contains("apple"))
	assert.True(t, d.Contains("don't"))
	assert.True(t, d.Contains("well-known"))

	assert.Equal(t, []string{"apple", "don't", "well-known"}, d.Words())

	var nilDict *Dictionary
	assert.Nil(t, nilDict.Words())
	assert.False(t, nilDict.Contains("apple"))
	assert.Zero(t, nilDict.Len())
}

type seqSource struct{ n int }

func (s *seqSource) IntN(n int) int {
	v := s.n % n
	s.n++
	return v
}

func TestFragment(t *testing.T) {
	assert.Equal(t, CommonFragments[0], Fragment(false, &seqSource{}))
	assert.Equal(t, HardFragments[0], Fragment(true, &seqSource{}))

	src := &seqSource{}
	seen := map[string]bool{}
	for range len(CommonFragments) {
		seen[Fragment(false, src)] = true
	}
	assert.Len(t, seen, len(CommonFragments))
}

// Every wordpiece must be solvable with the bundled list.
func TestFragmentsAreSolvable(t *testing.T) {
	d := Default()
	for _, pool := range [][]string{CommonFragments, HardFragments} {
		for _, frag := range pool {
			found := false
			for w := range d.set {
				if len(w) > len(frag) && containsFragment(w, frag) {
					found = true
					break
				}
			}
			assert.True(t, found, "no word contains %q", frag)
		}
	}
}

func containsFragment(w, frag string) bool {
	for i := 0; i+len(frag) <= len(w); i++ {
		if w[i:i+len(frag)] == frag {
			return true
		}
	}
	return false
}

func TestCache(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCache(time.Minute)
	c.now = func() time.Time { return now }

	_, _, ok := c.Get("banana")
	assert.False(t, ok)

	c.Put("banana", internal.Definition{Word: "banana", Meaning: "a fruit"}, true)
	c.Put("qwzx", internal.Definition{}, false)

	def, found, ok := c.Get("banana")
	require.True(t, ok)
	assert.True(t, found)
	assert.Equal(t, "a fruit", def.Meaning)

	_, found, ok = c.Get("qwzx")
	assert.True(t, ok)
	assert.False(t, found)

	now = now.Add(2 * time.Minute)
	_, _, ok = c.Get("banana")
	assert.False(t, ok, "entries expire")
}

func TestCacheEviction(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCache(time.Minute)
	c.now = func() time.Time { return now }
	c.maxEntries = 4

	for _, w := range []string{"a", "b", "c", "d"} {
		c.Put(w, internal.Definition{}, false)
	}
	c.Put("e", internal.Definition{}, false)
	assert.Equal(t, 3, c.Len(), "half the cache goes when nothing has expired")

	now = now.Add(2 * time.Minute)
	c.Put("f", internal.Definition{}, false)
	c.Put("g", internal.Definition{}, false)
	assert.Equal(t, 2, c.Len())
}

func TestRemoteDictionary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/banana":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"word":"banana","meanings":[{"partOfSpeech":"noun","definitions":[{"definition":""},{"definition":"An elongated curved fruit."}]}]}]`))
		case "/empty":
			_, _ = w.Write([]byte(`[{"word":"empty","meanings":[]}]`))
		case "/garbage":
			_, _ = w.Write([]byte(`{not json`))
		case "/broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	d := NewRemoteDictionary(srv.URL+"/", srv.Client())
	ctx := context.Background()

	def, err := d.Lookup(ctx, "banana")
	require.NoError(t, err)
	assert.Equal(t, internal.Definition{
		Word:         "banana",
		PartOfSpeech: "noun",
		Meaning:      "An elongated curved fruit.",
		Source:       "remote",
	}, def)

	_, err = d.Lookup(ctx, "qwzx")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = d.Lookup(ctx, "empty")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, w := range []string{"garbage", "broken"} {
		_, err = d.Lookup(ctx, w)
		assert.ErrorIs(t, err, ErrUnavailable, w)
		assert.False(t, errors.Is(err, ErrNotFound))
	}
}

func TestRemoteDictionaryUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewRemoteDictionary(url, nil).Lookup(context.Background(), "banana")
	assert.ErrorIs(t, err, ErrUnavailable)
}
