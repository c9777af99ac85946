// Package gormContractStore implements contractStore.ContractStore on gorm, so
// the same code serves the postgres and sqlite drivers.
package gormContractStore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Layr-Labs/calldecoder/pkg/contractAbi"
	"github.com/Layr-Labs/calldecoder/pkg/contractStore"
	"github.com/Layr-Labs/calldecoder/pkg/postgres"
	"github.com/Layr-Labs/calldecoder/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type GormContractStore struct {
	Db     *gorm.DB
	Logger *zap.Logger
}

func NewGormContractStore(db *gorm.DB, l *zap.Logger) *GormContractStore {
	return &GormContractStore{
		Db:     db,
		Logger: l,
	}
}

func (s *GormContractStore) GetContractForAddress(chainId uint64, address string) (*contractStore.Contract, error) {
	var contract *contractStore.Contract

	result := s.Db.First(&contract, "chain_id = ? and contract_address = ?", chainId, utils.NormalizeAddress(address))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			s.Logger.Sugar().Debugw("Contract not found in store",
				zap.Uint64("chainId", chainId),
				zap.String("address", address),
			)
			return nil, nil
		}
		return nil, result.Error
	}

	return contract, nil
}

// CreateContract validates the ABI before storing it, so the store never
// holds a document the resolver can't parse.
func (s *GormContractStore) CreateContract(chainId uint64, address string, abiJson string, verified bool) (*contractStore.Contract, error) {
	if !utils.IsValidAddress(address) {
		return nil, fmt.Errorf("invalid contract address '%s'", address)
	}
	if _, err := contractAbi.ParseAbiJson(abiJson, s.Logger); err != nil {
		return nil, fmt.Errorf("invalid abi for '%s': %w", address, err)
	}

	contract := &contractStore.Contract{
		ChainId:         chainId,
		ContractAddress: utils.NormalizeAddress(address),
		ContractAbi:     abiJson,
		Verified:        verified,
	}

	result := s.Db.Create(contract)
	if result.Error != nil {
		return nil, result.Error
	}

	return contract, nil
}

func (s *GormContractStore) FindOrCreateContract(chainId uint64, address string, abiJson string, verified bool) (*contractStore.Contract, bool, error) {
	found := false
	address = utils.NormalizeAddress(address)

	var upserted *contractStore.Contract
	err := s.Db.Transaction(func(tx *gorm.DB) error {
		existing := &contractStore.Contract{}
		result := tx.Where("chain_id = ? and contract_address = ?", chainId, address).Limit(1).Find(existing)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			found = true
			upserted = existing
			return nil
		}

		contract, err := NewGormContractStore(tx, s.Logger).CreateContract(chainId, address, abiJson, verified)
		if err != nil {
			if postgres.IsDuplicateKeyError(err) {
				found = true
				return fmt.Errorf("contract '%s' was created concurrently: %w", address, err)
			}
			s.Logger.Sugar().Errorw("Failed to create contract", zap.Error(err), zap.String("address", address))
			return err
		}
		upserted = contract
		return nil
	})
	if err != nil {
		return nil, found, err
	}
	return upserted, found, nil
}

func (s *GormContractStore) UpdateContractAbi(chainId uint64, address string, abiJson string) (*contractStore.Contract, error) {
	if _, err := contractAbi.ParseAbiJson(abiJson, s.Logger); err != nil {
		return nil, fmt.Errorf("invalid abi for '%s': %w", address, err)
	}
	contract := &contractStore.Contract{}

	result := s.Db.Model(contract).
		Where("chain_id = ? and contract_address = ?", chainId, utils.NormalizeAddress(address)).
		Updates(&contractStore.Contract{
			ContractAbi: abiJson,
		})

	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return s.GetContractForAddress(chainId, address)
}

func (s *GormContractStore) ListContracts(chainId uint64) ([]*contractStore.Contract, error) {
	contracts := make([]*contractStore.Contract, 0)
	result := s.Db.Where("chain_id = ?", chainId).Order("contract_address asc").Find(&contracts)
	if result.Error != nil {
		return nil, result.Error
	}
	return contracts, nil
}

func (s *GormContractStore) InitializeExternalContracts(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open contracts file: %w", err)
	}
	defer f.Close()

	return s.InitializeExternalContractsFromReader(f)
}

// InitializeExternalContractsFromReader loads a batch of contracts. Existing
// rows have their ABI replaced.
func (s *GormContractStore) InitializeExternalContractsFromReader(r io.Reader) error {
	data := &contractStore.ExternalContractsData{}
	if err := json.NewDecoder(r).Decode(data); err != nil {
		return fmt.Errorf("failed to decode external contracts data: %w", err)
	}

	for _, contract := range data.Contracts {
		if strings.TrimSpace(contract.ContractAbi) == "" {
			return fmt.Errorf("contract '%s' has no abi", contract.ContractAddress)
		}
		existing, found, err := s.FindOrCreateContract(contract.ChainId, contract.ContractAddress, contract.ContractAbi, true)
		if err != nil {
			return fmt.Errorf("failed to create external contract: %w", err)
		}
		if found && existing.ContractAbi != contract.ContractAbi {
			if _, err := s.UpdateContractAbi(contract.ChainId, contract.ContractAddress, contract.ContractAbi); err != nil {
				return fmt.Errorf("failed to update external contract: %w", err)
			}
			s.Logger.Sugar().Infow("Updated contract abi",
				zap.Uint64("chainId", contract.ChainId),
				zap.String("contractAddress", contract.ContractAddress),
			)
			continue
		}
		s.Logger.Sugar().Debugw("Loaded external contract",
			zap.Uint64("chainId", contract.ChainId),
			zap.String("contractAddress", contract.ContractAddress),
			zap.Bool("existed", found),
		)
	}
	return nil
}
