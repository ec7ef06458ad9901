// Package wallet is the wallet store's façade and manager layer (spec
// §4.8): the five wallet-creation variants, loading a wallet back off
// disk by inspecting its header, a directory-scanning manager, and the
// comment/authorized-peers auxiliary stores.
//
// Grounded on the teacher's (jmcleod-ironhand) vault.Vault Create/Open
// two-phase shape (vault/vault.go): build the in-memory state, persist
// it in one pass, then return a live handle; Open does the symmetric
// unseal. Here "vault" generalizes to "backing file with an assets,
// comments, and peers sub-DB", and "credentials" to "a seed or root
// private key behind its own secrets.Container, independent of the
// walletdb control container".
package wallet

import (
	"fmt"

	"github.com/jmcleod/ironvault/asset"
	"github.com/jmcleod/ironvault/recordstore"
	"github.com/jmcleod/ironvault/secmem"
	"github.com/jmcleod/ironvault/secrets"
	"github.com/jmcleod/ironvault/walletdb"
)

const (
	assetsSubDB   = "assets"
	commentsSubDB = "comments"
	peersSubDB    = "peers"
)

// Container is one open wallet file: a walletdb.DB with its three
// standard sub-DBs (assets, comments, peers), the wallet's own header,
// and (once default-account creation variants populate it) a default
// AssetAccount built watch-only from the header's public material.
type Container struct {
	db       *walletdb.DB
	assets   *recordstore.SubDB
	comments *CommentStore
	peers    *PeerStore

	header Header
	// seed is nil for a Blank or WatchingOnly container.
	seed *secrets.Container

	// Account is the default account, built watch-only from the header.
	// Call UnlockAccount to obtain a copy with private material.
	Account *asset.AssetAccount
}

// Comments returns the wallet's comment store.
func (c *Container) Comments() *CommentStore { return c.comments }

// Peers returns the wallet's authorized-peers store.
func (c *Container) Peers() *PeerStore { return c.peers }

// Header returns a copy of the wallet's header.
func (c *Container) Header() Header { return c.header }

// createBackingFile bootstraps a fresh walletdb.DB with the three
// standard sub-DBs provisioned.
func createBackingFile(path string, ctrlPass []byte) (*walletdb.DB, *recordstore.SubDB, *recordstore.SubDB, *recordstore.SubDB, error) {
	db, err := walletdb.CreateNew(path, 3, ctrlPass, nil)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err := db.LockControlContainer(fixedPassphrase(ctrlPass)); err != nil {
		db.Shutdown()
		return nil, nil, nil, nil, err
	}
	defer db.UnlockControlContainer()

	assetsDB, err := db.AddHeader(assetsSubDB)
	if err != nil {
		db.Shutdown()
		return nil, nil, nil, nil, err
	}
	commentsDB, err := db.AddHeader(commentsSubDB)
	if err != nil {
		db.Shutdown()
		return nil, nil, nil, nil, err
	}
	peersDB, err := db.AddHeader(peersSubDB)
	if err != nil {
		db.Shutdown()
		return nil, nil, nil, nil, err
	}
	return db, assetsDB, commentsDB, peersDB, nil
}

func fixedPassphrase(p []byte) secrets.PassphraseProvider {
	return func() ([]byte, error) { return append([]byte(nil), p...), nil }
}

func newContainer(db *walletdb.DB, assets, comments, peers *recordstore.SubDB, header Header, seed *secrets.Container, account *asset.AssetAccount) *Container {
	return &Container{
		db:       db,
		assets:   assets,
		comments: newCommentStore(comments),
		peers:    newPeerStore(peers),
		header:   header,
		seed:     seed,
		Account:  account,
	}
}

// CreateFromSeedBIP32 creates a new wallet file at path rooted at a
// BIP32 seed, deriving the default account at derPath from the seed
// master node. The seed is protected by privPass, independent of the
// wallet-DB's own control passphrase ctrlPass (spec §4.8).
func CreateFromSeedBIP32(path string, seed []byte, derPath []uint32, privPass, ctrlPass []byte, lookup uint32) (*Container, error) {
	db, assetsDB, commentsDB, peersDB, err := createBackingFile(path, ctrlPass)
	if err != nil {
		return nil, err
	}

	master, err := asset.InitBIP32FromSeed(seed)
	if err != nil {
		db.Shutdown()
		return nil, err
	}
	root := master
	for _, idx := range derPath {
		root, err = root.DerivePrivate(idx)
		if err != nil {
			db.Shutdown()
			return nil, err
		}
	}

	seedContainer, err := secrets.NewEncrypted(secmem.Take(append([]byte(nil), seed...)), privPass)
	if err != nil {
		db.Shutdown()
		return nil, err
	}
	obj, defaultOnly := seedContainer.Snapshot()

	header := Header{
		Kind:            KindBIP32,
		DerivationPath:  derPath,
		Lookup:          lookup,
		RootPub:         root.PubKey,
		Chaincode:       root.Chaincode[:],
		Seed:            &obj,
		SeedDefaultOnly: defaultOnly,
	}
	if err := assetsDB.PutHeader(assetsSubDB, header); err != nil {
		db.Shutdown()
		return nil, err
	}

	account, err := asset.NewBIP32AssetAccount(asset.NewBIP32Account(root), lookup)
	if err != nil {
		db.Shutdown()
		return nil, err
	}

	return newContainer(db, assetsDB, commentsDB, peersDB, header, seedContainer, account), nil
}

// CreateFromSeedBIP32Blank creates a new wallet file rooted at a BIP32
// seed but with no default account populated; callers derive and attach
// accounts later (spec §4.8: "no default account").
func CreateFromSeedBIP32Blank(path string, seed []byte, privPass, ctrlPass []byte) (*Container, error) {
	db, assetsDB, commentsDB, peersDB, err := createBackingFile(path, ctrlPass)
	if err != nil {
		return nil, err
	}

	seedContainer, err := secrets.NewEncrypted(secmem.Take(append([]byte(nil), seed...)), privPass)
	if err != nil {
		db.Shutdown()
		return nil, err
	}
	obj, defaultOnly := seedContainer.Snapshot()

	header := Header{Kind: KindBlank, Seed: &obj, SeedDefaultOnly: defaultOnly}
	if err := assetsDB.PutHeader(assetsSubDB, header); err != nil {
		db.Shutdown()
		return nil, err
	}

	return newContainer(db, assetsDB, commentsDB, peersDB, header, seedContainer, nil), nil
}

// CreateFromPrivateRootArmory135 creates a new wallet file rooted at a
// known Armory135 private key and chaincode, protected by privPass.
func CreateFromPrivateRootArmory135(path string, rootPriv, chaincode []byte, privPass, ctrlPass []byte, lookup uint32) (*Container, error) {
	db, assetsDB, commentsDB, peersDB, err := createBackingFile(path, ctrlPass)
	if err != nil {
		return nil, err
	}

	chain, err := asset.NewArmory135ChainFromPrivateRoot(rootPriv, chaincode)
	if err != nil {
		db.Shutdown()
		return nil, err
	}

	seedContainer, err := secrets.NewEncrypted(secmem.Take(append([]byte(nil), rootPriv...)), privPass)
	if err != nil {
		db.Shutdown()
		return nil, err
	}
	obj, defaultOnly := seedContainer.Snapshot()

	header := Header{
		Kind:            KindArmory135,
		Lookup:          lookup,
		RootPub:         chain.Entries[0].PubKey,
		Chaincode:       chaincode,
		Seed:            &obj,
		SeedDefaultOnly: defaultOnly,
	}
	if err := assetsDB.PutHeader(assetsSubDB, header); err != nil {
		db.Shutdown()
		return nil, err
	}

	account, err := asset.NewArmory135Account(chain, lookup)
	if err != nil {
		db.Shutdown()
		return nil, err
	}

	return newContainer(db, assetsDB, commentsDB, peersDB, header, seedContainer, account), nil
}

// CreateFromPublicRootArmory135 creates a new watch-only wallet file
// rooted at a known Armory135 public key and chaincode. There is no
// private material, so there is no privPass.
func CreateFromPublicRootArmory135(path string, rootPub, chaincode []byte, ctrlPass []byte, lookup uint32) (*Container, error) {
	db, assetsDB, commentsDB, peersDB, err := createBackingFile(path, ctrlPass)
	if err != nil {
		return nil, err
	}

	chain := asset.NewArmory135ChainFromPublicRoot(rootPub, chaincode)
	header := Header{Kind: KindWatchingOnly, Lookup: lookup, RootPub: rootPub, Chaincode: chaincode}
	if err := assetsDB.PutHeader(assetsSubDB, header); err != nil {
		db.Shutdown()
		return nil, err
	}

	account, err := asset.NewArmory135Account(chain, lookup)
	if err != nil {
		db.Shutdown()
		return nil, err
	}

	return newContainer(db, assetsDB, commentsDB, peersDB, header, nil, account), nil
}

// CreateSeedlessWatchingOnly creates a new watch-only BIP32 wallet file
// rooted at a known extended public key (an xpub string, spec §4.7
// initFromBase58), with no private material anywhere in the file.
func CreateSeedlessWatchingOnly(path string, xpub string, ctrlPass []byte, lookup uint32) (*Container, error) {
	root, err := asset.InitBIP32FromBase58(xpub)
	if err != nil {
		return nil, err
	}
	root = root.GetPublicCopy()

	db, assetsDB, commentsDB, peersDB, err := createBackingFile(path, ctrlPass)
	if err != nil {
		return nil, err
	}

	header := Header{Kind: KindWatchingOnly, Lookup: lookup, RootPub: root.PubKey, Chaincode: root.Chaincode[:]}
	if err := assetsDB.PutHeader(assetsSubDB, header); err != nil {
		db.Shutdown()
		return nil, err
	}

	account, err := asset.NewBIP32AssetAccount(asset.NewBIP32Account(root), lookup)
	if err != nil {
		db.Shutdown()
		return nil, err
	}

	return newContainer(db, assetsDB, commentsDB, peersDB, header, nil, account), nil
}

// LoadMainWalletFromFile opens an existing wallet file, inspecting its
// header to rebuild the right account kind (spec §4.8). The returned
// container's Account is always watch-only; call UnlockAccount with
// ctrlProvider's matching private passphrase to obtain private material.
func LoadMainWalletFromFile(path string, ctrlProvider secrets.PassphraseProvider) (*Container, error) {
	db, err := walletdb.Open(path, ctrlProvider, nil)
	if err != nil {
		return nil, err
	}

	assetsDB, ok := db.DataSubDB(assetsSubDB)
	if !ok {
		db.Shutdown()
		return nil, fmt.Errorf("wallet: %q has no assets sub-DB", path)
	}
	commentsDB, _ := db.DataSubDB(commentsSubDB)
	peersDB, _ := db.DataSubDB(peersSubDB)

	var header Header
	found, err := assetsDB.GetHeader(assetsSubDB, &header)
	if err != nil {
		db.Shutdown()
		return nil, err
	}
	if !found {
		db.Shutdown()
		return nil, fmt.Errorf("wallet: %q has no wallet header", path)
	}

	var seedContainer *secrets.Container
	if header.Seed != nil {
		seedContainer = secrets.Open(*header.Seed, header.SeedDefaultOnly)
	}

	account, err := rebuildWatchOnlyAccount(header)
	if err != nil {
		db.Shutdown()
		return nil, err
	}

	return newContainer(db, assetsDB, commentsDB, peersDB, header, seedContainer, account), nil
}

func rebuildWatchOnlyAccount(header Header) (*asset.AssetAccount, error) {
	switch header.Kind {
	case KindBlank:
		return nil, nil
	case KindArmory135:
		chain := asset.NewArmory135ChainFromPublicRoot(header.RootPub, header.Chaincode)
		return asset.NewArmory135Account(chain, header.Lookup)
	case KindBIP32, KindWatchingOnly:
		node := &asset.BIP32Node{PubKey: header.RootPub}
		copy(node.Chaincode[:], header.Chaincode)
		return asset.NewBIP32AssetAccount(asset.NewBIP32Account(node), header.Lookup)
	default:
		return nil, ErrUnknownWalletKind
	}
}

// UnlockAccount unlocks the wallet's private-material container with
// privProvider and returns a private-capable copy of the default
// account, plus a closer that must be called to wipe the unlocked
// material (spec §4.7: extendPrivateChain "requires decrypted-container
// lock"). Fails with ErrWatchOnly if the container has no seed (a
// WatchingOnly or watch-only-Armory135 wallet), and ErrBlankWallet if it
// has no default account at all.
func (c *Container) UnlockAccount(privProvider secrets.PassphraseProvider) (*asset.AssetAccount, func(), error) {
	if c.header.Kind == KindBlank {
		return nil, nil, ErrBlankWallet
	}
	if c.seed == nil {
		return nil, nil, ErrWatchOnly
	}

	unlocked, err := c.seed.Unlock(privProvider)
	if err != nil {
		return nil, nil, err
	}

	account, err := buildPrivateAccount(c.header, unlocked.MasterKey().Bytes())
	if err != nil {
		unlocked.Close()
		return nil, nil, err
	}
	return account, func() { unlocked.Close() }, nil
}

func buildPrivateAccount(header Header, secretMaterial []byte) (*asset.AssetAccount, error) {
	switch header.Kind {
	case KindArmory135:
		chain, err := asset.NewArmory135ChainFromPrivateRoot(secretMaterial, header.Chaincode)
		if err != nil {
			return nil, err
		}
		return asset.NewArmory135Account(chain, header.Lookup)
	case KindBIP32:
		master, err := asset.InitBIP32FromSeed(secretMaterial)
		if err != nil {
			return nil, err
		}
		root := master
		for _, idx := range header.DerivationPath {
			root, err = root.DerivePrivate(idx)
			if err != nil {
				return nil, err
			}
		}
		return asset.NewBIP32AssetAccount(asset.NewBIP32Account(root), header.Lookup)
	default:
		return nil, ErrWatchOnly
	}
}

// ForkWatchOnly opens srcPath with ctrlProvider, then creates a new
// watch-only wallet file at destPath (protected by destCtrlPass)
// containing the same default account's public material with all
// private material stripped (spec §4.7 Watch-only fork).
func ForkWatchOnly(srcPath, destPath string, ctrlProvider secrets.PassphraseProvider, destCtrlPass []byte) error {
	src, err := LoadMainWalletFromFile(srcPath, ctrlProvider)
	if err != nil {
		return err
	}
	defer src.Shutdown()

	if src.Account == nil {
		return ErrBlankWallet
	}

	switch src.header.Kind {
	case KindArmory135:
		_, err := CreateFromPublicRootArmory135(destPath, src.header.RootPub, src.header.Chaincode, destCtrlPass, src.header.Lookup)
		return err
	default:
		pubNode := &asset.BIP32Node{PubKey: src.header.RootPub}
		copy(pubNode.Chaincode[:], src.header.Chaincode)
		_, err := CreateSeedlessWatchingOnly(destPath, pubNode.Base58(), destCtrlPass, src.header.Lookup)
		return err
	}
}

// Shutdown closes the container's backing walletdb.DB.
func (c *Container) Shutdown() error {
	return c.db.Shutdown()
}
