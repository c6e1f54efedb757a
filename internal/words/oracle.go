package words

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/scythe504/wordbomb-backend/internal"
)

// Lookuper resolves a definition from an external dictionary service.
type Lookuper interface {
	Lookup(ctx context.Context, word string) (internal.Definition, error)
}

// DefinitionStore is a persistent definition cache.
type DefinitionStore interface {
	Definition(ctx context.Context, word string) (internal.Definition, bool, error)
	SaveDefinition(ctx context.Context, def internal.Definition) error
}

// Oracle answers dictionary membership and definition questions for every room.
type Oracle struct {
	dict    *Dictionary
	remote  Lookuper
	store   DefinitionStore
	cache   *Cache
	timeout time.Duration
	group   singleflight.Group
	log     zerolog.Logger
}

type Option func(*Oracle)

func WithRemote(remote Lookuper) Option {
	return func(o *Oracle) { o.remote = remote }
}

func WithStore(store DefinitionStore) Option {
	return func(o *Oracle) { o.store = store }
}

func WithTimeout(d time.Duration) Option {
	return func(o *Oracle) { o.timeout = d }
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(o *Oracle) { o.cache = NewCache(ttl) }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *Oracle) { o.log = l }
}

func NewOracle(dict *Dictionary, opts ...Option) *Oracle {
	o := &Oracle{
		dict:    dict,
		cache:   NewCache(time.Hour),
		timeout: internal.DefaultDefinitionTimeout,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Dictionary exposes the static word list backing the oracle.
func (o *Oracle) Dictionary() *Dictionary {
	return o.dict
}

// IsRealWord checks the static list first and the remote dictionary second.
// Any remote failure counts as "not a word".
func (o *Oracle) IsRealWord(ctx context.Context, word string) bool {
	w := Normalize(word)
	if w == "" {
		return false
	}
	if o.dict.Contains(w) {
		return true
	}
	if o.remote == nil {
		return false
	}
	_, found, err := o.resolve(ctx, w)
	if err != nil {
		o.log.Debug().Err(err).Str("word", w).Msg("membership fell back to static list")
		return false
	}
	return found
}

// LookupDefinition never fails the caller: anything short of a definition is reported as false.
func (o *Oracle) LookupDefinition(ctx context.Context, word string) (internal.Definition, bool) {
	w := Normalize(word)
	if w == "" {
		return internal.Definition{}, false
	}
	def, found, err := o.resolve(ctx, w)
	if err != nil {
		o.log.Debug().Err(err).Str("word", w).Msg("definition unavailable")
		return internal.Definition{}, false
	}
	return def, found
}

type resolution struct {
	def   internal.Definition
	found bool
}

func (o *Oracle) resolve(ctx context.Context, w string) (internal.Definition, bool, error) {
	if def, found, ok := o.cache.Get(w); ok {
		return def, found, nil
	}

	ch := o.group.DoChan(w, func() (any, error) {
		// Detached so one impatient caller does not fail everyone sharing the flight.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.timeout)
		defer cancel()
		return o.fetch(fctx, w)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return internal.Definition{}, false, res.Err
		}
		r := res.Val.(resolution)
		return r.def, r.found, nil
	case <-ctx.Done():
		return internal.Definition{}, false, ctx.Err()
	}
}

func (o *Oracle) fetch(ctx context.Context, w string) (resolution, error) {
	if o.store != nil {
		def, found, err := o.store.Definition(ctx, w)
		switch {
		case err != nil:
			o.log.Warn().Err(err).Str("word", w).Msg("definition store read failed")
		case found:
			o.cache.Put(w, def, true)
			return resolution{def: def, found: true}, nil
		}
	}

	if o.remote == nil {
		return resolution{}, ErrUnavailable
	}

	def, err := o.remote.Lookup(ctx, w)
	switch {
	case errors.Is(err, ErrNotFound):
		o.cache.Put(w, internal.Definition{}, false)
		return resolution{}, nil
	case err != nil:
		return resolution{}, err
	}

	o.cache.Put(w, def, true)
	if o.store != nil {
		if err := o.store.SaveDefinition(ctx, def); err != nil {
			o.log.Warn().Err(err).Str("word", w).Msg("definition store write failed")
		}
	}
	return resolution{def: def, found: true}, nil
}
