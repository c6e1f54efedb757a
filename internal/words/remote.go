package words

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/scythe504/wordbomb-backend/internal"
)

var (
	// ErrNotFound means the dictionary service answered and does not know the word.
	ErrNotFound = errors.New("word not found")
	// ErrUnavailable means the dictionary service could not be reached or answered badly.
	ErrUnavailable = errors.New("dictionary unavailable")
)

// RemoteDictionary talks to a dictionaryapi.dev compatible service:
// GET {base}/{word} returning a list of entries.
type RemoteDictionary struct {
	base   string
	client *http.Client
}

type remoteEntry struct {
	Word     string `json:"word"`
	Meanings []struct {
		PartOfSpeech string `json:"partOfSpeech"`
		Definitions  []struct {
			Definition string `json:"definition"`
		} `json:"definitions"`
	} `json:"meanings"`
}

func NewRemoteDictionary(base string, client *http.Client) *RemoteDictionary {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteDictionary{base: strings.TrimRight(base, "/"), client: client}
}

func (d *RemoteDictionary) Lookup(ctx context.Context, word string) (internal.Definition, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.base+"/"+url.PathEscape(word), nil)
	if err != nil {
		return internal.Definition{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return internal.Definition{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return internal.Definition{}, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return internal.Definition{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var entries []remoteEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return internal.Definition{}, fmt.Errorf("%w: decode: %w", ErrUnavailable, err)
	}

	for _, e := range entries {
		for _, m := range e.Meanings {
			for _, def := range m.Definitions {
				if def.Definition == "" {
					continue
				}
				return internal.Definition{
					Word:         word,
					PartOfSpeech: m.PartOfSpeech,
					Meaning:      def.Definition,
					Source:       "remote",
				}, nil
			}
		}
	}
	return internal.Definition{}, ErrNotFound
}
