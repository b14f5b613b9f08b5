package dirconfig

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"
)

func countingLoader(calls *atomic.Int32) Loader {
	return func(dir string) (*ConfigFile, error) {
		calls.Add(1)
		return Default(dir), nil
	}
}

func TestCache_CaseFoldedMemoization(t *testing.T) {
	var calls atomic.Int32
	c := NewCache(countingLoader(&calls))

	first, err := c.Load("/Themes/Dark")
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Load("/themes/dark")
	if err != nil {
		t.Fatal(err)
	}
	third, err := c.Load("/THEMES/DARK/")
	if err != nil {
		t.Fatal(err)
	}

	if first != second || second != third {
		t.Error("expected the identical cached pointer for case variants")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("loader called %d times, want 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCache_DistinctKeys(t *testing.T) {
	var calls atomic.Int32
	c := NewCache(countingLoader(&calls))

	a, _ := c.Load("/a")
	b, _ := c.Load("/b")
	if a == b {
		t.Error("distinct directories share an entry")
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("loader called %d times, want 2", n)
	}
}

func TestCache_FailureNotCached(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32
	c := NewCache(func(dir string) (*ConfigFile, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return Default(dir), nil
	})

	if _, err := c.Load("/dir"); !errors.Is(err, boom) {
		t.Fatalf("first Load: got %v, want %v", err, boom)
	}
	if c.Len() != 0 {
		t.Fatalf("failed load was cached")
	}

	cfg, err := c.Load("/dir")
	if err != nil {
		t.Fatalf("second Load error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected config on retry")
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("loader called %d times, want 2", n)
	}
}

func TestCache_ConcurrentFirstLoadSameValue(t *testing.T) {
	const callers = 32

	var calls atomic.Int32
	start := make(chan struct{})
	c := NewCache(func(dir string) (*ConfigFile, error) {
		calls.Add(1)
		<-start
		return Default(dir), nil
	})

	results := make([]*ConfigFile, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg, err := c.Load("dir")
			if err != nil {
				t.Errorf("Load: %v", err)
				return
			}
			results[i] = cfg
		}()
	}
	close(start)
	wg.Wait()

	for i, r := range results {
		if r != results[0] {
			t.Fatalf("caller %d got a different config pointer", i)
		}
	}
	if n := calls.Load(); n < 1 || n > callers {
		t.Errorf("loader called %d times", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestLoadAll(t *testing.T) {
	var calls atomic.Int32
	c := NewCache(countingLoader(&calls))
	dirs := []string{"/x", "/y", "/X", "/z"}

	cfgs, err := LoadAll(context.Background(), c, dirs)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(cfgs) != len(dirs) {
		t.Fatalf("got %d configs, want %d", len(cfgs), len(dirs))
	}
	if cfgs[0] != cfgs[2] {
		t.Error("/x and /X should resolve to the same config")
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestLoadAll_Error(t *testing.T) {
	boom := errors.New("boom")
	c := NewCache(func(dir string) (*ConfigFile, error) {
		if dir == "/bad" {
			return nil, boom
		}
		return Default(dir), nil
	})

	var g errgroup.Group
	g.Go(func() error {
		_, err := LoadAll(context.Background(), c, []string{"/ok", "/bad"})
		return err
	})
	if err := g.Wait(); !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
}
