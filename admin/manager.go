package admin

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"notarygw/audit"
	"notarygw/internal/sequence"
	"notarygw/notary"
)

// Default NFT collection labels.
const (
	DefaultNFTName   = "NotarizedDocument"
	DefaultNFTSymbol = "NOTARY"
)

// Deployment is the result of a contract deployment.
type Deployment struct {
	ContractAddress string `json:"contract_address"`
	TxHash          string `json:"transaction_hash"`
	Deployer        string `json:"deployer"`
	ContractType    string `json:"contract_type"`
	Name            string `json:"name,omitempty"`
	Symbol          string `json:"symbol,omitempty"`
}

// RoleGrant is the result of granting a role.
type RoleGrant struct {
	TxHash          string `json:"transaction_hash"`
	ContractAddress string `json:"contract_address"`
	Grantee         string `json:"grantee_address"`
	Role            string `json:"role"`
}

// RoleRevocation is the result of revoking a role.
type RoleRevocation struct {
	TxHash  string `json:"transaction_hash"`
	Revoked string `json:"revoked_address"`
	Role    string `json:"role"`
}

// PauseChange is the result of pausing or unpausing a contract.
type PauseChange struct {
	TxHash          string `json:"transaction_hash"`
	ContractAddress string `json:"contract_address"`
	Status          string `json:"status"` // "paused" or "active"
}

// Manager is the contract administration engine: deployments, role grants
// and revocations, and the emergency pause switch. Used during setup and
// incident response; it mutates the same Registry the orchestrator reads.
//
// Every mutating call names the acting identity explicitly and is applied
// only when that identity matches the recorded owner. An implementation
// adding real signing must verify the actual signer matches the named actor
// before the call reaches this engine.
type Manager struct {
	owner  string
	reg    *Registry
	seq    *sequence.Sequence
	audit  audit.Publisher
	logger *log.Logger
}

// NewManager creates a Manager owned by ownerAddress. Registry and sequence
// may be shared with an orchestrator so notarization and administration
// transaction ids live in one totally ordered space.
func NewManager(ownerAddress string, reg *Registry, seq *sequence.Sequence, pub audit.Publisher, logger *log.Logger) (*Manager, error) {
	if !notary.ValidAddress(ownerAddress) {
		return nil, fmt.Errorf("%w: owner %q", notary.ErrInvalidAddress, ownerAddress)
	}
	if reg == nil {
		reg = NewRegistry()
	}
	if seq == nil {
		seq = sequence.New()
	}
	if pub == nil {
		pub = audit.NopPublisher{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{owner: ownerAddress, reg: reg, seq: seq, audit: pub, logger: logger}, nil
}

// Owner returns the recorded owner identity.
func (m *Manager) Owner() string { return m.owner }

// Registry returns the registry this engine administers.
func (m *Manager) Registry() *Registry { return m.reg }

// DeployHashRegistry deploys the hash registry contract and records its
// address under the "hash_registry" key. Deploying again produces a new
// address and overwrites the active entry; the prior address stays in the
// deployment history.
func (m *Manager) DeployHashRegistry(ctx context.Context, actor string) (*Deployment, error) {
	if err := m.authorize(actor); err != nil {
		return nil, err
	}

	n := m.seq.Next()
	dep := &Deployment{
		ContractAddress: sequence.ContractAddress(n),
		TxHash:          sequence.TxHash(n),
		Deployer:        m.owner,
		ContractType:    "HashRegistry",
	}
	m.warnOnRedeploy(ContractHashRegistry, dep.ContractAddress)
	m.reg.recordDeployment(ContractHashRegistry, dep.ContractAddress)
	m.publishAudit(ctx, dep.TxHash, actor, "deploy_hash_registry", dep.ContractAddress)
	return dep, nil
}

// DeployNFTContract deploys the NFT contract and records its address under
// the "nft_contract" key. Empty name/symbol fall back to the collection
// defaults; neither is otherwise validated.
func (m *Manager) DeployNFTContract(ctx context.Context, actor, name, symbol string) (*Deployment, error) {
	if err := m.authorize(actor); err != nil {
		return nil, err
	}
	if name == "" {
		name = DefaultNFTName
	}
	if symbol == "" {
		symbol = DefaultNFTSymbol
	}

	n := m.seq.Next()
	dep := &Deployment{
		ContractAddress: sequence.ContractAddress(n),
		TxHash:          sequence.TxHash(n),
		Deployer:        m.owner,
		ContractType:    "NFT",
		Name:            name,
		Symbol:          symbol,
	}
	m.warnOnRedeploy(ContractNFT, dep.ContractAddress)
	m.reg.recordDeployment(ContractNFT, dep.ContractAddress)
	m.publishAudit(ctx, dep.TxHash, actor, "deploy_nft_contract", dep.ContractAddress)
	return dep, nil
}

// RecordContract registers an externally deployed contract address under key
// without issuing a deployment transaction. Used when addresses come from
// configuration rather than from this engine.
func (m *Manager) RecordContract(key, contractAddress string) error {
	if !notary.ValidAddress(contractAddress) {
		return fmt.Errorf("%w: contract %q", notary.ErrInvalidAddress, contractAddress)
	}
	m.warnOnRedeploy(key, contractAddress)
	m.reg.recordDeployment(key, contractAddress)
	return nil
}

// GrantRole adds granteeAddress to (contractAddress, roleName). Granting an
// existing grant succeeds with a fresh transaction id and unchanged
// membership, so administrative corrections are always repeatable.
func (m *Manager) GrantRole(ctx context.Context, actor, contractAddress, roleName, granteeAddress string) (*RoleGrant, error) {
	if err := m.authorize(actor); err != nil {
		return nil, err
	}
	if err := checkRoleArgs(contractAddress, roleName, granteeAddress); err != nil {
		return nil, err
	}

	m.reg.grant(contractAddress, roleName, granteeAddress)
	g := &RoleGrant{
		TxHash:          sequence.TxHash(m.seq.Next()),
		ContractAddress: contractAddress,
		Grantee:         granteeAddress,
		Role:            roleName,
	}
	m.publishAudit(ctx, g.TxHash, actor, "grant_role", roleName+":"+granteeAddress)
	return g, nil
}

// RevokeRole removes granteeAddress from (contractAddress, roleName).
// Revoking a grant that never existed succeeds with a fresh transaction id;
// revocation never fails merely because the target state is already reached.
func (m *Manager) RevokeRole(ctx context.Context, actor, contractAddress, roleName, granteeAddress string) (*RoleRevocation, error) {
	if err := m.authorize(actor); err != nil {
		return nil, err
	}
	if err := checkRoleArgs(contractAddress, roleName, granteeAddress); err != nil {
		return nil, err
	}

	m.reg.revoke(contractAddress, roleName, granteeAddress)
	rv := &RoleRevocation{
		TxHash:  sequence.TxHash(m.seq.Next()),
		Revoked: granteeAddress,
		Role:    roleName,
	}
	m.publishAudit(ctx, rv.TxHash, actor, "revoke_role", roleName+":"+granteeAddress)
	return rv, nil
}

// HasRole reports whether address holds roleName on the contract. Pure read,
// open to any caller; an unknown triple is false, never an error.
func (m *Manager) HasRole(contractAddress, roleName, address string) bool {
	return m.reg.HasRole(contractAddress, roleName, address)
}

// PauseContract flips the emergency switch for a contract. Pausing an
// already-paused contract still succeeds with a fresh transaction id.
func (m *Manager) PauseContract(ctx context.Context, actor, contractAddress string) (*PauseChange, error) {
	return m.setPause(ctx, actor, contractAddress, true)
}

// UnpauseContract lifts the emergency switch, restoring the exact pre-pause
// authorization state.
func (m *Manager) UnpauseContract(ctx context.Context, actor, contractAddress string) (*PauseChange, error) {
	return m.setPause(ctx, actor, contractAddress, false)
}

func (m *Manager) setPause(ctx context.Context, actor, contractAddress string, paused bool) (*PauseChange, error) {
	if err := m.authorize(actor); err != nil {
		return nil, err
	}
	if !notary.ValidAddress(contractAddress) {
		return nil, fmt.Errorf("%w: contract %q", notary.ErrInvalidAddress, contractAddress)
	}

	m.reg.setPaused(contractAddress, paused)
	status, action := "active", "unpause_contract"
	if paused {
		status, action = "paused", "pause_contract"
	}
	pc := &PauseChange{
		TxHash:          sequence.TxHash(m.seq.Next()),
		ContractAddress: contractAddress,
		Status:          status,
	}
	m.publishAudit(ctx, pc.TxHash, actor, action, contractAddress)
	return pc, nil
}

// authorize applies the owner-only rule to a mutating call.
func (m *Manager) authorize(actor string) error {
	if !strings.EqualFold(actor, m.owner) {
		return fmt.Errorf("%w: %s is not the contract owner", notary.ErrUnauthorized, actor)
	}
	return nil
}

func (m *Manager) warnOnRedeploy(key, newAddr string) {
	if prev, ok := m.reg.ContractAddress(key); ok {
		m.logger.Printf("Warning: redeploying %s: %s replaces %s (prior address kept in history)", key, newAddr, prev)
	}
}

func (m *Manager) publishAudit(ctx context.Context, txHash, actor, action, subject string) {
	e := audit.Event{
		TxHash:  txHash,
		Actor:   actor,
		Action:  action,
		Subject: subject,
		At:      time.Now().UTC(),
	}
	if err := m.audit.Publish(ctx, e); err != nil {
		m.logger.Printf("Warning: failed to publish audit event %s (tx %s): %v", action, txHash, err)
	}
}

func checkRoleArgs(contractAddress, roleName, granteeAddress string) error {
	if !notary.ValidAddress(contractAddress) {
		return fmt.Errorf("%w: contract %q", notary.ErrInvalidAddress, contractAddress)
	}
	if !notary.ValidAddress(granteeAddress) {
		return fmt.Errorf("%w: grantee %q", notary.ErrInvalidAddress, granteeAddress)
	}
	if roleName == "" {
		return fmt.Errorf("role name cannot be empty")
	}
	return nil
}
