package wallet

import (
	"path/filepath"
	"testing"
)

func TestCommentStorePutGetDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments.wallet")
	c, err := CreateFromSeedBIP32Blank(path, []byte("0123456789abcdef0123456789abcdef"), []byte("priv"), []byte("ctrl"))
	if err != nil {
		t.Fatalf("CreateFromSeedBIP32Blank: %v", err)
	}
	defer c.Shutdown()

	key := []byte("74a0f2...scripthash")
	if err := c.Comments().Put(key, "coffee payment"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := c.Comments().Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || got != "coffee payment" {
		t.Fatalf("Get = (%q, %v), want (\"coffee payment\", true)", got, ok)
	}

	if err := c.Comments().Put(key, "updated"); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, _, _ = c.Comments().Get(key)
	if got != "updated" {
		t.Errorf("Get after overwrite = %q, want %q", got, "updated")
	}

	if err := c.Comments().Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := c.Comments().Get(key); ok {
		t.Error("comment should be gone after Delete")
	}
}

func TestCommentStoreAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments.wallet")
	c, err := CreateFromSeedBIP32Blank(path, []byte("0123456789abcdef0123456789abcdef"), []byte("priv"), []byte("ctrl"))
	if err != nil {
		t.Fatalf("CreateFromSeedBIP32Blank: %v", err)
	}
	defer c.Shutdown()

	entries := map[string]string{
		"a": "first",
		"b": "second",
		"c": "third",
	}
	for k, v := range entries {
		if err := c.Comments().Put([]byte(k), v); err != nil {
			t.Fatalf("Put(%q): %v", k, err)
		}
	}

	all, err := c.Comments().All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != len(entries) {
		t.Fatalf("All returned %d entries, want %d", len(all), len(entries))
	}
	for k, v := range entries {
		if all[k] != v {
			t.Errorf("All()[%q] = %q, want %q", k, all[k], v)
		}
	}
}
