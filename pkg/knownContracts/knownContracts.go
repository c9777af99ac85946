// Package knownContracts holds the interfaces of contracts whose deployments
// are known ahead of time. Lookups never leave the process.
package knownContracts

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Layr-Labs/calldecoder/internal/config"
	"github.com/Layr-Labs/calldecoder/pkg/contractAbi"
	"github.com/Layr-Labs/calldecoder/pkg/utils"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	SepoliaBatchExecutorAddress = "0x5dd9fdf2310b5dac8dced8a100fb4952546ae7bd"
	SepoliaDeleGatorAddress     = "0x5315eb7f03465aa2aef2fe052b8eed2cab0741a0"
)

type KnownContract struct {
	Name      string
	ChainId   uint64
	Address   string
	Interface contractAbi.InterfaceSet
}

type registryKey struct {
	chainId uint64
	address string
}

// Registry maps (chain id, address) to a declared interface. It is not
// modified after construction and is safe for concurrent reads.
type Registry struct {
	contracts map[registryKey]*KnownContract
}

// NewRegistry indexes contracts by chain id and normalized address. A later
// contract with the same key replaces an earlier one.
func NewRegistry(contracts ...*KnownContract) *Registry {
	r := &Registry{contracts: make(map[registryKey]*KnownContract, len(contracts))}
	for _, c := range contracts {
		c.Address = utils.NormalizeAddress(c.Address)
		r.contracts[registryKey{chainId: c.ChainId, address: c.Address}] = c
	}
	return r
}

// DefaultContracts returns the project's own Sepolia deployments.
func DefaultContracts() []*KnownContract {
	return []*KnownContract{
		{
			Name:    "BatchExecutor",
			ChainId: config.ChainId_Sepolia,
			Address: SepoliaBatchExecutorAddress,
			Interface: contractAbi.NewInterfaceSet(
				contractAbi.MustParseFunctionSignature("executeBatch((address to,uint256 value,bytes data)[] operations)"),
			),
		},
		{
			Name:    "DeleGator",
			ChainId: config.ChainId_Sepolia,
			Address: SepoliaDeleGatorAddress,
			Interface: contractAbi.NewInterfaceSet(
				contractAbi.MustParseFunctionSignature("execute(bytes32 _mode, bytes _executionCalldata)"),
				contractAbi.MustParseFunctionSignature("batchCall((address target,uint256 value,bytes callData)[] transactions)"),
			),
		},
	}
}

func NewDefaultRegistry() *Registry {
	return NewRegistry(DefaultContracts()...)
}

func (r *Registry) Get(chainId uint64, address string) (*KnownContract, bool) {
	c, ok := r.contracts[registryKey{chainId: chainId, address: utils.NormalizeAddress(address)}]
	return c, ok
}

// LookupFunction returns the declared function for selector on the given
// contract. The boolean is false when the contract is unknown or does not
// declare the selector.
func (r *Registry) LookupFunction(chainId uint64, address string, selector contractAbi.Selector) (*contractAbi.InterfaceEntry, bool) {
	c, ok := r.Get(chainId, address)
	if !ok {
		return nil, false
	}
	return c.Interface.Lookup(selector)
}

func (r *Registry) Len() int {
	return len(r.contracts)
}

// Contracts returns the registered contracts in no particular order.
func (r *Registry) Contracts() []*KnownContract {
	out := make([]*KnownContract, 0, len(r.contracts))
	for _, c := range r.contracts {
		out = append(out, c)
	}
	return out
}

// KnownContractsFile is the YAML layout of a known contracts file:
//
//	contracts:
//	  - name: BatchExecutor
//	    chain_id: 11155111
//	    address: "0x5dd9fdf2310b5dac8dced8a100fb4952546ae7bd"
//	    functions:
//	      - "executeBatch((address to,uint256 value,bytes data)[] operations)"
//
// A contract may give an ABI JSON document in abi instead of, or in addition
// to, functions.
type KnownContractsFile struct {
	Contracts []*KnownContractEntry `yaml:"contracts"`
}

type KnownContractEntry struct {
	Name      string   `yaml:"name"`
	ChainId   uint64   `yaml:"chain_id"`
	Address   string   `yaml:"address"`
	Functions []string `yaml:"functions"`
	Abi       string   `yaml:"abi"`
}

func (e *KnownContractEntry) toKnownContract(l *zap.Logger) (*KnownContract, error) {
	if !utils.IsValidAddress(e.Address) {
		return nil, fmt.Errorf("contract '%s' has an invalid address '%s'", e.Name, e.Address)
	}
	if e.ChainId == 0 {
		return nil, fmt.Errorf("contract '%s' is missing a chain_id", e.Name)
	}

	set := make(contractAbi.InterfaceSet)
	if strings.TrimSpace(e.Abi) != "" {
		fromAbi, err := contractAbi.InterfaceSetFromJson(e.Abi, l)
		if err != nil {
			return nil, errors.Wrapf(err, "contract '%s' has an invalid abi", e.Name)
		}
		for sel, entry := range fromAbi {
			set[sel] = entry
		}
	}
	for _, fn := range e.Functions {
		entry, err := contractAbi.ParseFunctionSignature(fn)
		if err != nil {
			return nil, errors.Wrapf(err, "contract '%s'", e.Name)
		}
		set[entry.Selector] = entry
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("contract '%s' declares no functions", e.Name)
	}

	return &KnownContract{
		Name:      e.Name,
		ChainId:   e.ChainId,
		Address:   utils.NormalizeAddress(e.Address),
		Interface: set,
	}, nil
}

// LoadKnownContracts parses a known contracts YAML document.
func LoadKnownContracts(r io.Reader, l *zap.Logger) ([]*KnownContract, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read known contracts")
	}

	var file KnownContractsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "failed to parse known contracts")
	}

	contracts := make([]*KnownContract, 0, len(file.Contracts))
	for _, entry := range file.Contracts {
		c, err := entry.toKnownContract(l)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	l.Sugar().Debugw("Loaded known contracts", zap.Int("count", len(contracts)))
	return contracts, nil
}

// NewRegistryFromFile builds a registry of the default contracts plus those
// declared in path. Entries from the file take precedence. An empty path
// yields the default registry.
func NewRegistryFromFile(path string, l *zap.Logger) (*Registry, error) {
	contracts := DefaultContracts()
	if path == "" {
		return NewRegistry(contracts...), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open known contracts file '%s'", path)
	}
	defer f.Close()

	loaded, err := LoadKnownContracts(f, l)
	if err != nil {
		return nil, err
	}
	return NewRegistry(append(contracts, loaded...)...), nil
}
