package mint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nfrund/mintari/internal/kv"
)

// Cache keys for the deployed contract.
const (
	ContractAddressKey = "ghibliNFTContractAddress"
	DeploymentTxKey    = "ghibliNFTDeploymentTx"

	// AlreadyDeployedTx is reported when deploy finds an existing contract.
	AlreadyDeployedTx = "already_deployed"
)

// Deployer installs and inspects the NFT contract (or collection) on chain.
type Deployer interface {
	IsDeployed(ctx context.Context, address string) (bool, error)
	// Existing returns an address that already hosts the contract, if any.
	Existing(ctx context.Context) (string, bool, error)
	Deploy(ctx context.Context) (address, txID string, err error)
}

// Deployment describes the contract the service mints against.
type Deployment struct {
	Address       string `json:"contractAddress"`
	TransactionID string `json:"transactionId"`
}

// ContractRegistry caches the contract address in the key/value store and
// revalidates it against the chain before use.
type ContractRegistry struct {
	store    kv.Store
	deployer Deployer
	mu       sync.Mutex
}

func NewContractRegistry(store kv.Store, deployer Deployer) *ContractRegistry {
	return &ContractRegistry{store: store, deployer: deployer}
}

// Address returns the cached contract address after confirming it is still
// deployed. A stale cache entry is cleared. ok is false when no usable
// address is known.
func (r *ContractRegistry) Address(ctx context.Context) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cachedAddress(ctx)
}

func (r *ContractRegistry) cachedAddress(ctx context.Context) (string, bool, error) {
	addr, err := kv.GetString(ctx, r.store, ContractAddressKey)
	if errors.Is(err, kv.ErrNotFound) || (err == nil && addr == "") {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	deployed, err := r.deployer.IsDeployed(ctx, addr)
	if err != nil {
		return "", false, fmt.Errorf("verify contract %s: %w", addr, err)
	}
	if deployed {
		return addr, true, nil
	}

	slog.WarnContext(ctx, "Cached contract address is no longer deployed, clearing cache", "address", addr)
	if err := r.clear(ctx); err != nil {
		return "", false, err
	}
	return "", false, nil
}

// EnsureDeployed returns the usable contract, deploying one when neither the
// cache nor the chain has it.
func (r *ContractRegistry) EnsureDeployed(ctx context.Context) (Deployment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if addr, ok, err := r.cachedAddress(ctx); err != nil {
		return Deployment{}, err
	} else if ok {
		txID, _ := kv.GetString(ctx, r.store, DeploymentTxKey)
		if txID == "" {
			txID = AlreadyDeployedTx
		}
		return Deployment{Address: addr, TransactionID: txID}, nil
	}

	if addr, ok, err := r.deployer.Existing(ctx); err != nil {
		return Deployment{}, fmt.Errorf("look up existing contract: %w", err)
	} else if ok {
		d := Deployment{Address: addr, TransactionID: AlreadyDeployedTx}
		return d, r.save(ctx, d)
	}

	addr, txID, err := r.deployer.Deploy(ctx)
	if err != nil {
		return Deployment{}, fmt.Errorf("deploy contract: %w", err)
	}
	d := Deployment{Address: addr, TransactionID: txID}
	slog.InfoContext(ctx, "Contract deployed", "address", addr, "tx_id", txID)
	return d, r.save(ctx, d)
}

func (r *ContractRegistry) save(ctx context.Context, d Deployment) error {
	if err := r.store.Set(ctx, ContractAddressKey, []byte(d.Address)); err != nil {
		return err
	}
	return r.store.Set(ctx, DeploymentTxKey, []byte(d.TransactionID))
}

func (r *ContractRegistry) clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, ContractAddressKey); err != nil {
		return err
	}
	return r.store.Delete(ctx, DeploymentTxKey)
}

// MockDeployer pretends a contract lives at a fixed owner address.
type MockDeployer struct {
	Owner string

	mu       sync.Mutex
	deployed bool
}

func NewMockDeployer(owner string) *MockDeployer {
	return &MockDeployer{Owner: owner}
}

func (d *MockDeployer) IsDeployed(ctx context.Context, address string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deployed && address == d.Owner, nil
}

func (d *MockDeployer) Existing(ctx context.Context) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Owner, d.deployed, nil
}

func (d *MockDeployer) Deploy(ctx context.Context) (string, string, error) {
	if err := sleep(ctx, 0); err != nil {
		return "", "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deployed = true
	return d.Owner, mockTxID(), nil
}

// SolanaDeployer represents the contract as a Metaplex collection NFT owned
// by the mint authority.
type SolanaDeployer struct {
	minter *SolanaMinter
	name   string
	uri    string
}

func NewSolanaDeployer(minter *SolanaMinter, name, uri string) *SolanaDeployer {
	return &SolanaDeployer{minter: minter, name: name, uri: uri}
}

func (d *SolanaDeployer) IsDeployed(ctx context.Context, address string) (bool, error) {
	if err := ValidateAddress(address); err != nil {
		return false, nil
	}
	return d.minter.accountExists(ctx, address)
}

// Existing always misses: collection mints are only discoverable through
// the cache.
func (d *SolanaDeployer) Existing(ctx context.Context) (string, bool, error) {
	return "", false, nil
}

func (d *SolanaDeployer) Deploy(ctx context.Context) (string, string, error) {
	return d.minter.mintTo(ctx, d.minter.authority.PublicKey, truncate(d.name, maxNameLen), d.uri)
}
