package admin

import (
	"sync"

	"notarygw/notary"
)

// Contract registry keys.
const (
	ContractHashRegistry = "hash_registry"
	ContractNFT          = "nft_contract"
)

// Registry is the authoritative record of which addresses hold which roles
// on which contract, which contracts are paused, and where each contract is
// deployed. The administration engine is its only writer; the orchestrator
// reads it through the notary.AuthGate interface. One mutex guards all three
// relations so grant/revoke and pause/unpause races cannot lose updates.
type Registry struct {
	mu        sync.RWMutex
	roles     map[string]map[string]struct{} // "contract:ROLE" -> grantee set
	paused    map[string]struct{}
	contracts map[string]string   // registry key -> active address
	history   map[string][]string // registry key -> every address ever deployed
}

// NewRegistry creates an empty Registry. Every contract starts unpaused,
// including ones not yet deployed.
func NewRegistry() *Registry {
	return &Registry{
		roles:     make(map[string]map[string]struct{}),
		paused:    make(map[string]struct{}),
		contracts: make(map[string]string),
		history:   make(map[string][]string),
	}
}

// HasRole reports whether address holds roleName on the contract. An
// absent key is false, never an error.
func (r *Registry) HasRole(contractAddress, roleName, address string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.roles[roleKey(contractAddress, roleName)]
	if !ok {
		return false
	}
	_, ok = set[address]
	return ok
}

// IsPaused reports whether the contract is paused.
func (r *Registry) IsPaused(contractAddress string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.paused[contractAddress]
	return ok
}

// ContractAddress returns the active deployed address recorded under the
// given registry key.
func (r *Registry) ContractAddress(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	addr, ok := r.contracts[key]
	return addr, ok
}

// DeploymentHistory returns every address ever deployed under the key,
// oldest first. Redeployment overwrites the active address but prior
// addresses stay retrievable here for historical receipt verification.
func (r *Registry) DeploymentHistory(key string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.history[key]))
	copy(out, r.history[key])
	return out
}

// grant adds the grantee to the role set. Idempotent.
func (r *Registry) grant(contractAddress, roleName, grantee string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := roleKey(contractAddress, roleName)
	set, ok := r.roles[key]
	if !ok {
		set = make(map[string]struct{})
		r.roles[key] = set
	}
	set[grantee] = struct{}{}
}

// revoke removes the grantee from the role set. Revoking an absent grant is
// a no-op; revocation never fails because the target state is already
// reached.
func (r *Registry) revoke(contractAddress, roleName, grantee string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.roles[roleKey(contractAddress, roleName)]; ok {
		delete(set, grantee)
	}
}

// setPaused toggles the pause flag. Idempotent in both directions.
func (r *Registry) setPaused(contractAddress string, paused bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if paused {
		r.paused[contractAddress] = struct{}{}
	} else {
		delete(r.paused, contractAddress)
	}
}

// recordDeployment appends to the key's history and makes addr the active
// address.
func (r *Registry) recordDeployment(key, addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contracts[key] = addr
	r.history[key] = append(r.history[key], addr)
}

func roleKey(contractAddress, roleName string) string {
	return contractAddress + ":" + roleName
}

var _ notary.AuthGate = (*Registry)(nil)
