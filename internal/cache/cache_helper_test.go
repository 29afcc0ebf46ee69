package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type cachedCourse struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func newTestHelper(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCacheHelper(client, "course:"), mr
}

func TestCacheHelperSetGet(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	want := cachedCourse{ID: 42, Title: "Intro to Go"}
	if err := helper.Set(ctx, "id:42", want, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got cachedCourse
	if err := helper.Get(ctx, "id:42", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestCacheHelperGetMiss(t *testing.T) {
	helper, _ := newTestHelper(t)

	var got cachedCourse
	err := helper.Get(context.Background(), "id:404", &got)
	if !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("Get() on missing key error = %v, want ErrCacheNotFound", err)
	}
}

func TestCacheHelperNilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "course:")
	ctx := context.Background()

	if err := helper.Set(ctx, "id:1", cachedCourse{ID: 1}, time.Minute); err != nil {
		t.Errorf("Set() with nil client error = %v, want nil", err)
	}

	var got cachedCourse
	if err := helper.Get(ctx, "id:1", &got); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("Get() with nil client error = %v, want ErrCacheNotAvailable", err)
	}
}

func TestCacheOrExecuteFetchesOnMiss(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return cachedCourse{ID: 7, Title: "Databases"}, nil
	}

	var got cachedCourse
	if err := helper.CacheOrExecute(ctx, "id:7", &got, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}
	if got.Title != "Databases" {
		t.Errorf("CacheOrExecute() Title = %q, want %q", got.Title, "Databases")
	}
}

func TestCacheOrExecuteUsesCachedValue(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	if err := helper.Set(ctx, "id:9", cachedCourse{ID: 9, Title: "Cached"}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	fetch := func() (interface{}, error) {
		t.Fatal("fetch must not be called on cache hit")
		return nil, nil
	}

	var got cachedCourse
	if err := helper.CacheOrExecute(ctx, "id:9", &got, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute() error = %v", err)
	}
	if got.Title != "Cached" {
		t.Errorf("CacheOrExecute() Title = %q, want %q", got.Title, "Cached")
	}
}

func TestInvalidatePattern(t *testing.T) {
	helper, mr := newTestHelper(t)
	ctx := context.Background()

	for _, key := range []string{"list:page:1", "list:page:2", "id:5"} {
		if err := helper.Set(ctx, key, cachedCourse{ID: 5}, time.Minute); err != nil {
			t.Fatalf("Set(%q) error = %v", key, err)
		}
	}

	if err := helper.InvalidatePattern(ctx, "list:*"); err != nil {
		t.Fatalf("InvalidatePattern() error = %v", err)
	}

	if mr.Exists("course:list:page:1") || mr.Exists("course:list:page:2") {
		t.Error("list keys survived InvalidatePattern")
	}
	if !mr.Exists("course:id:5") {
		t.Error("unrelated key was removed by InvalidatePattern")
	}
}
