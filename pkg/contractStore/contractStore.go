// Package contractStore defines the persisted contract ABIs that the store
// resolution strategy serves before any external lookup is attempted.
package contractStore

import (
	"io"
	"time"
)

// ContractStore persists contract ABIs keyed by (chain id, address).
type ContractStore interface {
	// GetContractForAddress returns nil, nil when no contract is stored.
	GetContractForAddress(chainId uint64, address string) (*Contract, error)
	CreateContract(chainId uint64, address string, abiJson string, verified bool) (*Contract, error)
	// FindOrCreateContract returns the stored contract and whether it already existed.
	FindOrCreateContract(chainId uint64, address string, abiJson string, verified bool) (*Contract, bool, error)
	UpdateContractAbi(chainId uint64, address string, abiJson string) (*Contract, error)
	ListContracts(chainId uint64) ([]*Contract, error)

	InitializeExternalContracts(filename string) error
	InitializeExternalContractsFromReader(r io.Reader) error
}

type Contract struct {
	ChainId         uint64 `gorm:"primaryKey;autoIncrement:false"`
	ContractAddress string `gorm:"primaryKey"`
	ContractAbi     string
	Verified        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Contract) TableName() string {
	return "contracts"
}

// ExternalContract is one entry of a load-contract batch file.
type ExternalContract struct {
	ChainId         uint64 `json:"chainId"`
	ContractAddress string `json:"contractAddress"`
	ContractAbi     string `json:"contractAbi"`
}

type ExternalContractsData struct {
	Contracts []*ExternalContract `json:"contracts"`
}
