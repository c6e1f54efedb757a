package words

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/wordbomb-backend/internal"
)

type MockLookuper struct {
	mock.Mock
}

func (m *MockLookuper) Lookup(ctx context.Context, word string) (internal.Definition, error) {
	args := m.Called(ctx, word)
	return args.Get(0).(internal.Definition), args.Error(1)
}

type MockDefinitionStore struct {
	mock.Mock
}

func (m *MockDefinitionStore) Definition(ctx context.Context, word string) (internal.Definition, bool, error) {
	args := m.Called(ctx, word)
	return args.Get(0).(internal.Definition), args.Bool(1), args.Error(2)
}

func (m *MockDefinitionStore) SaveDefinition(ctx context.Context, def internal.Definition) error {
	args := m.Called(ctx, def)
	return args.Error(0)
}

func TestIsRealWordStaticList(t *testing.T) {
	remote := &MockLookuper{}
	o := NewOracle(NewDictionary([]string{"banana"}), WithRemote(remote))

	assert.True(t, o.IsRealWord(context.Background(), "  BANANA "))
	assert.False(t, o.IsRealWord(context.Background(), ""))
	remote.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestIsRealWordRemote(t *testing.T) {
	tests := []struct {
		description string
		setupMocks  func(m *MockLookuper)
		expected    bool
	}{
		{
			description: "known remotely",
			setupMocks: func(m *MockLookuper) {
				m.On("Lookup", mock.Anything, "zymurgy").Return(internal.Definition{Word: "zymurgy", Meaning: "brewing chemistry"}, nil).Once()
			},
			expected: true,
		},
		{
			description: "unknown remotely",
			setupMocks: func(m *MockLookuper) {
				m.On("Lookup", mock.Anything, "zymurgy").Return(internal.Definition{}, ErrNotFound).Once()
			},
			expected: false,
		},
		{
			description: "service down counts as not a word",
			setupMocks: func(m *MockLookuper) {
				m.On("Lookup", mock.Anything, "zymurgy").Return(internal.Definition{}, ErrUnavailable).Once()
			},
			expected: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			remote := &MockLookuper{}
			tc.setupMocks(remote)
			o := NewOracle(NewDictionary(nil), WithRemote(remote))

			assert.Equal(t, tc.expected, o.IsRealWord(context.Background(), "zymurgy"))
			remote.AssertExpectations(t)
		})
	}
}

func TestIsRealWordWithoutRemote(t *testing.T) {
	o := NewOracle(NewDictionary([]string{"banana"}))
	assert.False(t, o.IsRealWord(context.Background(), "zymurgy"))
}

func TestLookupDefinitionCaches(t *testing.T) {
	remote := &MockLookuper{}
	remote.On("Lookup", mock.Anything, "banana").Return(internal.Definition{Word: "banana", Meaning: "a fruit"}, nil).Once()
	remote.On("Lookup", mock.Anything, "qwzx").Return(internal.Definition{}, ErrNotFound).Once()
	o := NewOracle(NewDictionary(nil), WithRemote(remote))
	ctx := context.Background()

	for range 3 {
		def, ok := o.LookupDefinition(ctx, "banana")
		require.True(t, ok)
		assert.Equal(t, "a fruit", def.Meaning)

		_, ok = o.LookupDefinition(ctx, "qwzx")
		assert.False(t, ok, "misses are cached too")
	}
	remote.AssertExpectations(t)
}

func TestLookupDefinitionErrorsAreNotCached(t *testing.T) {
	remote := &MockLookuper{}
	remote.On("Lookup", mock.Anything, "banana").Return(internal.Definition{}, ErrUnavailable).Once()
	remote.On("Lookup", mock.Anything, "banana").Return(internal.Definition{Word: "banana", Meaning: "a fruit"}, nil).Once()
	o := NewOracle(NewDictionary(nil), WithRemote(remote))

	_, ok := o.LookupDefinition(context.Background(), "banana")
	assert.False(t, ok)
	_, ok = o.LookupDefinition(context.Background(), "banana")
	assert.True(t, ok)
	remote.AssertExpectations(t)
}

func TestLookupDefinitionUsesStore(t *testing.T) {
	ctx := context.Background()

	t.Run("stored definition skips the remote", func(t *testing.T) {
		store := &MockDefinitionStore{}
		remote := &MockLookuper{}
		store.On("Definition", mock.Anything, "banana").Return(internal.Definition{Word: "banana", Meaning: "stored"}, true, nil).Once()
		o := NewOracle(NewDictionary(nil), WithRemote(remote), WithStore(store))

		def, ok := o.LookupDefinition(ctx, "banana")
		require.True(t, ok)
		assert.Equal(t, "stored", def.Meaning)
		remote.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
		store.AssertExpectations(t)
	})

	t.Run("remote result is saved", func(t *testing.T) {
		store := &MockDefinitionStore{}
		remote := &MockLookuper{}
		def := internal.Definition{Word: "banana", Meaning: "a fruit", Source: "remote"}
		store.On("Definition", mock.Anything, "banana").Return(internal.Definition{}, false, nil).Once()
		store.On("SaveDefinition", mock.Anything, def).Return(nil).Once()
		remote.On("Lookup", mock.Anything, "banana").Return(def, nil).Once()
		o := NewOracle(NewDictionary(nil), WithRemote(remote), WithStore(store))

		got, ok := o.LookupDefinition(ctx, "banana")
		require.True(t, ok)
		assert.Equal(t, def, got)
		store.AssertExpectations(t)
		remote.AssertExpectations(t)
	})

	t.Run("store failure falls through to the remote", func(t *testing.T) {
		store := &MockDefinitionStore{}
		remote := &MockLookuper{}
		def := internal.Definition{Word: "banana", Meaning: "a fruit"}
		store.On("Definition", mock.Anything, "banana").Return(internal.Definition{}, false, errors.New("db down")).Once()
		store.On("SaveDefinition", mock.Anything, def).Return(errors.New("db down")).Once()
		remote.On("Lookup", mock.Anything, "banana").Return(def, nil).Once()
		o := NewOracle(NewDictionary(nil), WithRemote(remote), WithStore(store))

		_, ok := o.LookupDefinition(ctx, "banana")
		assert.True(t, ok)
	})
}

// slowLookuper blocks until released and counts calls.
type slowLookuper struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
}

func (s *slowLookuper) Lookup(ctx context.Context, word string) (internal.Definition, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	select {
	case <-s.release:
		return internal.Definition{Word: word, Meaning: "slow"}, nil
	case <-ctx.Done():
		return internal.Definition{}, ctx.Err()
	}
}

func TestLookupDefinitionSharesInFlight(t *testing.T) {
	remote := &slowLookuper{release: make(chan struct{})}
	o := NewOracle(NewDictionary(nil), WithRemote(remote), WithTimeout(time.Second))

	var wg sync.WaitGroup
	results := make(chan bool, 5)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := o.LookupDefinition(context.Background(), "banana")
			results <- ok
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(remote.release)
	wg.Wait()
	close(results)

	for ok := range results {
		assert.True(t, ok)
	}
	remote.mu.Lock()
	defer remote.mu.Unlock()
	assert.Equal(t, 1, remote.calls)
}

func TestLookupDefinitionTimeout(t *testing.T) {
	remote := &slowLookuper{release: make(chan struct{})}
	o := NewOracle(NewDictionary(nil), WithRemote(remote), WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, ok := o.LookupDefinition(context.Background(), "banana")
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLookupDefinitionCallerCancels(t *testing.T) {
	remote := &slowLookuper{release: make(chan struct{})}
	defer close(remote.release)
	o := NewOracle(NewDictionary(nil), WithRemote(remote), WithTimeout(time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, ok := o.LookupDefinition(ctx, "banana")
	assert.False(t, ok)
}
