package auth_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/goliatone/go-cms-forms/pkg/auth"
)

func exerciseStore(t *testing.T, store auth.Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("empty store load err = %v, want ErrNotFound", err)
	}
	if err := store.Save(ctx, "tok-123"); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil || got != "tok-123" {
		t.Fatalf("load = %q, %v", got, err)
	}
	if err := store.Delete(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, &auth.MemoryStore{})
}

func TestFileStore(t *testing.T) {
	exerciseStore(t, auth.NewFileStore(filepath.Join(t.TempDir(), "cmsctl", "token")))
}

func TestFileStore_ConcurrentSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmsctl", "token")
	ctx := context.Background()

	want := make(map[string]struct{})
	for i := 0; i < 8; i++ {
		want[fmt.Sprintf("tok-%d-%s", i, strings.Repeat("x", 4096))] = struct{}{}
	}

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for token := range want {
		wg.Add(2)
		go func(token string) {
			defer wg.Done()
			if err := auth.NewFileStore(path).Save(ctx, token); err != nil {
				errs <- err
			}
		}(token)
		go func() {
			defer wg.Done()
			got, err := auth.NewFileStore(path).Load(ctx)
			if errors.Is(err, auth.ErrNotFound) {
				return
			}
			if err != nil {
				errs <- err
				return
			}
			if _, ok := want[got]; !ok {
				errs <- fmt.Errorf("read a partial token of %d bytes", len(got))
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".token-") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestKeychainStore(t *testing.T) {
	keyring.MockInit()
	exerciseStore(t, auth.NewKeychainStore("cmsctl-test"))
}
