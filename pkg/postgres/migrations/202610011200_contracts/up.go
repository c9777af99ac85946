package _202610011200_contracts

import (
	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(grm *gorm.DB) error {
	queries := []string{
		`create table if not exists contracts (
			chain_id bigint not null,
			contract_address varchar not null,
			contract_abi text not null,
			verified boolean not null default false,
			created_at timestamp not null default current_timestamp,
			updated_at timestamp not null default current_timestamp,
			unique(chain_id, contract_address)
		)`,
		`create index if not exists idx_contracts_contract_address on contracts(contract_address)`,
	}
	for _, query := range queries {
		if err := grm.Exec(query).Error; err != nil {
			return err
		}
	}
	return nil
}

func (m *Migration) GetName() string {
	return "202610011200_contracts"
}
