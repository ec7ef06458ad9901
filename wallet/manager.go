package wallet

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/jmcleod/ironvault/secrets"
)

// Manager scans a directory and opens one Container per wallet file
// found in it (spec §4.8 WalletManager). The wallet id is the file's
// base name.
type Manager struct {
	mu         sync.RWMutex
	containers map[string]*Container
}

// NewManager scans dir for wallet files, opening each with ctrlProvider.
// A file that fails to open as a wallet (wrong passphrase, not a
// wallet-store file at all) is skipped rather than aborting the whole
// scan, since a directory may hold unrelated files alongside wallets.
func NewManager(dir string, ctrlProvider secrets.PassphraseProvider) (*Manager, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	m := &Manager{containers: make(map[string]*Container)}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		c, err := LoadMainWalletFromFile(path, ctrlProvider)
		if err != nil {
			continue
		}
		m.containers[entry.Name()] = c
	}
	return m, nil
}

// GetMap returns the currently open containers keyed by wallet id.
func (m *Manager) GetMap() map[string]*Container {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*Container, len(m.containers))
	for id, c := range m.containers {
		out[id] = c
	}
	return out
}

// Shutdown closes every open container.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for _, c := range m.containers {
		if err := c.Shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.containers = make(map[string]*Container)
	return firstErr
}
