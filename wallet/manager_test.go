package wallet

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewManagerScansDirectorySkippingNonWallets(t *testing.T) {
	dir := t.TempDir()

	walletPaths := []string{
		filepath.Join(dir, "alice.wallet"),
		filepath.Join(dir, "bob.wallet"),
	}
	for i, path := range walletPaths {
		c, err := CreateFromSeedBIP32Blank(path, []byte{byte(i), 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, []byte("priv"), []byte("ctrl"))
		if err != nil {
			t.Fatalf("CreateFromSeedBIP32Blank(%s): %v", path, err)
		}
		if err := c.Shutdown(); err != nil {
			t.Fatalf("Shutdown(%s): %v", path, err)
		}
	}

	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not a wallet"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, err := NewManager(dir, providerFor("ctrl"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer m.Shutdown()

	got := m.GetMap()
	if len(got) != 2 {
		t.Fatalf("GetMap returned %d containers, want 2 (non-wallet file should be skipped)", len(got))
	}
	if _, ok := got["alice.wallet"]; !ok {
		t.Error("missing alice.wallet in manager map")
	}
	if _, ok := got["bob.wallet"]; !ok {
		t.Error("missing bob.wallet in manager map")
	}
}

func TestManagerShutdownClosesAllAndClearsMap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "solo.wallet")
	c, err := CreateFromSeedBIP32Blank(path, []byte("0123456789abcdef0123456789abcdef"), []byte("priv"), []byte("ctrl"))
	if err != nil {
		t.Fatalf("CreateFromSeedBIP32Blank: %v", err)
	}
	if err := c.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	m, err := NewManager(dir, providerFor("ctrl"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if err := m.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if len(m.GetMap()) != 0 {
		t.Error("GetMap should be empty after Shutdown")
	}
}
