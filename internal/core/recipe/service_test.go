package recipe

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ai-recipe-engine/internal/core/ai/cache"
	"ai-recipe-engine/internal/core/ai/queue"
	"ai-recipe-engine/internal/infrastructure/config"
	"ai-recipe-engine/internal/pkg/common"
)

const recipeJSON = `{"title":"Chicken Rice","ingredients":["chicken","rice"],"steps":["cook"],"servings":4}`

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	out     string
	err     error
	delay   time.Duration
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.out, f.err
}

func (f *fakeGenerator) GetModel() string { return "fake" }

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// countingStore 記錄呼叫次數，可注入錯誤
type countingStore struct {
	cache.Store
	increments atomic.Int32
	inserts    atomic.Int32
	getErr     error
	insertErr  error
	incErr     error
}

func (s *countingStore) Get(ctx context.Context, fp string) (*cache.Entry, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.Store.Get(ctx, fp)
}

func (s *countingStore) Insert(ctx context.Context, fp string, ingredients []string, r *common.GeneratedRecipe) (*cache.Entry, error) {
	s.inserts.Add(1)
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	return s.Store.Insert(ctx, fp, ingredients, r)
}

func (s *countingStore) IncrementUsage(ctx context.Context, id string) error {
	s.increments.Add(1)
	if s.incErr != nil {
		return s.incErr
	}
	return s.Store.IncrementUsage(ctx, id)
}

func newTestService(gen *fakeGenerator, opts ...Option) (*Service, *countingStore) {
	store := &countingStore{Store: cache.NewMemoryStore()}
	return NewService(store, gen, opts...), store
}

func TestGenerateMissThenHit(t *testing.T) {
	gen := &fakeGenerator{out: recipeJSON}
	svc, store := newTestService(gen)
	ctx := context.Background()

	first, err := svc.Generate(ctx, []string{"Rice", "Chicken"}, common.GenerationParameters{})
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheHit || first.Fingerprint != "chicken,rice" {
		t.Errorf("unexpected first result: %+v", first)
	}

	// 只有偏好不同仍命中快取
	second, err := svc.Generate(ctx, []string{"chicken", "rice"}, common.GenerationParameters{DietaryRestrictions: "vegan"})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheHit {
		t.Error("second call should be a cache hit")
	}
	if gen.callCount() != 1 {
		t.Errorf("generator called %d times, want 1", gen.callCount())
	}
	if store.increments.Load() != 1 {
		t.Errorf("increments = %d, want 1", store.increments.Load())
	}
	if !reflect.DeepEqual(first.Recipe, second.Recipe) {
		t.Errorf("recipes differ: %+v vs %+v", first.Recipe, second.Recipe)
	}

	entry, err := svc.Lookup(ctx, []string{"CHICKEN", "RICE"})
	if err != nil {
		t.Fatal(err)
	}
	if entry.UsageCount != 2 || !reflect.DeepEqual(entry.Ingredients, []string{"Rice", "Chicken"}) {
		t.Errorf("unexpected entry: %+v", entry)
	}
}

func TestGenerateRecipeReturnsRecipe(t *testing.T) {
	gen := &fakeGenerator{out: "Sure!\n" + recipeJSON}
	svc, _ := newTestService(gen)

	r, err := svc.GenerateRecipe(context.Background(), []string{"chicken"}, common.GenerationParameters{Difficulty: "easy"})
	if err != nil {
		t.Fatal(err)
	}
	if r.Title != "Chicken Rice" || r.Servings == nil || *r.Servings != 4 {
		t.Errorf("unexpected recipe: %+v", r)
	}
	if !strings.Contains(gen.prompts[0], "Difficulty level: easy") {
		t.Error("prompt should carry the difficulty")
	}
}

func TestGenerateFailureDoesNotCache(t *testing.T) {
	cases := map[string]struct {
		gen    *fakeGenerator
		target error
	}{
		"configuration": {&fakeGenerator{err: common.ErrConfiguration}, common.ErrConfiguration},
		"empty":         {&fakeGenerator{err: common.ErrEmptyResponse}, common.ErrEmptyResponse},
		"malformed":     {&fakeGenerator{out: "no json here"}, common.ErrMalformedResponse},
		"invalid":       {&fakeGenerator{out: `{"title":"T"}`}, common.ErrInvalidRecipeStructure},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc, store := newTestService(tc.gen)
			ctx := context.Background()

			_, err := svc.Generate(ctx, []string{"egg"}, common.GenerationParameters{})
			var gf *common.GenerationFailedError
			if !errors.As(err, &gf) {
				t.Fatalf("err = %v, want GenerationFailedError", err)
			}
			if !errors.Is(err, tc.target) {
				t.Errorf("err = %v, want wrapping %v", err, tc.target)
			}
			if !strings.HasPrefix(err.Error(), "failed to generate recipe: ") {
				t.Errorf("message = %q", err.Error())
			}
			if store.inserts.Load() != 0 {
				t.Error("failed generation must not write the cache")
			}
			if _, err := svc.Lookup(ctx, []string{"egg"}); !errors.Is(err, cache.ErrNotFound) {
				t.Errorf("lookup err = %v", err)
			}
		})
	}
}

func TestGenerateProviderErrorPreserved(t *testing.T) {
	gen := &fakeGenerator{err: &common.ProviderError{StatusCode: 500, Message: "boom"}}
	svc, _ := newTestService(gen)

	_, err := svc.Generate(context.Background(), []string{"egg"}, common.GenerationParameters{})
	var pe *common.ProviderError
	if !errors.As(err, &pe) || pe.StatusCode != 500 {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("message should keep upstream detail: %q", err.Error())
	}
}

func TestIncrementFailureIsIgnored(t *testing.T) {
	gen := &fakeGenerator{out: recipeJSON}
	svc, store := newTestService(gen)
	ctx := context.Background()

	if _, err := svc.Generate(ctx, []string{"egg"}, common.GenerationParameters{}); err != nil {
		t.Fatal(err)
	}
	store.incErr = errors.New("write failed")

	res, err := svc.Generate(ctx, []string{"egg"}, common.GenerationParameters{})
	if err != nil {
		t.Fatalf("increment failure should not fail the request: %v", err)
	}
	if !res.CacheHit {
		t.Error("expected cache hit")
	}
}

func TestDuplicateInsertIsBenign(t *testing.T) {
	gen := &fakeGenerator{out: recipeJSON}
	svc, store := newTestService(gen)
	store.insertErr = cache.ErrDuplicate

	r, err := svc.GenerateRecipe(context.Background(), []string{"egg"}, common.GenerationParameters{})
	if err != nil {
		t.Fatal(err)
	}
	if r.Title != "Chicken Rice" {
		t.Errorf("title = %q", r.Title)
	}
}

func TestInsertErrorFails(t *testing.T) {
	gen := &fakeGenerator{out: recipeJSON}
	svc, store := newTestService(gen)
	store.insertErr = errors.New("disk full")

	_, err := svc.Generate(context.Background(), []string{"egg"}, common.GenerationParameters{})
	var gf *common.GenerationFailedError
	if !errors.As(err, &gf) || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("err = %v", err)
	}
}

func TestCacheLookupErrorFails(t *testing.T) {
	gen := &fakeGenerator{out: recipeJSON}
	svc, store := newTestService(gen)
	store.getErr = errors.New("connection refused")

	_, err := svc.Generate(context.Background(), []string{"egg"}, common.GenerationParameters{})
	var gf *common.GenerationFailedError
	if !errors.As(err, &gf) {
		t.Fatalf("err = %v", err)
	}
	if gen.callCount() != 0 {
		t.Error("generator should not be called when the cache is unavailable")
	}
}

func TestCoalescingSharesOneCall(t *testing.T) {
	gen := &fakeGenerator{out: recipeJSON, delay: 100 * time.Millisecond}
	svc, _ := newTestService(gen, WithCoalescing(true))

	const n = 5
	var wg sync.WaitGroup
	results := make([]*Result, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Generate(context.Background(), []string{"egg"}, common.GenerationParameters{})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if gen.callCount() != 1 {
		t.Errorf("generator called %d times, want 1", gen.callCount())
	}
	// 共用結果需各自獨立
	results[0].Recipe.Title = "changed"
	for i := 1; i < n; i++ {
		if results[i].Recipe.Title != "Chicken Rice" {
			t.Errorf("result %d shares memory with result 0", i)
		}
	}
}

func TestCoalescingSurvivesFirstCallerCancel(t *testing.T) {
	gen := &fakeGenerator{out: recipeJSON, delay: 200 * time.Millisecond}
	svc, store := newTestService(gen, WithCoalescing(true))

	firstCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Generate(firstCtx, []string{"egg"}, common.GenerationParameters{})
		firstErr <- err
	}()

	deadline := time.Now().Add(time.Second)
	for gen.callCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("generator was never called")
		}
		time.Sleep(time.Millisecond)
	}

	second := make(chan error, 1)
	go func() {
		res, err := svc.Generate(context.Background(), []string{"egg"}, common.GenerationParameters{})
		if err == nil && res.Recipe.Title != "Chicken Rice" {
			err = errors.New("unexpected recipe " + res.Recipe.Title)
		}
		second <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller err = %v, want context.Canceled", err)
	}
	if err := <-second; err != nil {
		t.Fatalf("caller with a live context failed: %v", err)
	}
	if gen.callCount() != 1 {
		t.Errorf("generator called %d times, want 1", gen.callCount())
	}
	if _, err := store.Get(context.Background(), "egg"); err != nil {
		t.Errorf("shared result should be cached: %v", err)
	}
}

func TestQueueFull(t *testing.T) {
	gen := &fakeGenerator{out: recipeJSON}
	q := queue.NewManager(config.QueueConfig{Workers: 1, MaxSize: 0})
	defer q.Close()
	svc, _ := newTestService(gen, WithQueue(q))

	release, err := q.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	_, err = svc.Generate(context.Background(), []string{"egg"}, common.GenerationParameters{})
	if !errors.Is(err, common.ErrQueueFull) {
		t.Errorf("err = %v, want ErrQueueFull", err)
	}
	if gen.callCount() != 0 {
		t.Error("generator should not be called when the queue is full")
	}
}

func TestCacheStats(t *testing.T) {
	gen := &fakeGenerator{out: recipeJSON}
	svc, _ := newTestService(gen)
	ctx := context.Background()

	_, _ = svc.Generate(ctx, []string{"egg"}, common.GenerationParameters{})
	_, _ = svc.Generate(ctx, []string{"egg"}, common.GenerationParameters{})

	// 檢視不計入命中統計
	_, _ = svc.Lookup(ctx, []string{"egg"})
	_, _ = svc.Lookup(ctx, []string{"milk"})

	stats, err := svc.CacheStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 || stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
