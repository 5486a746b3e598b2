package indexer

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primaryKey" json:"id"`
	Height uint64 `json:"height"`
}

type Treasury struct {
	Id      string `gorm:"primaryKey" json:"id"`
	Balance string `json:"balance"`
}

type Proposal struct {
	Id          string `gorm:"primaryKey" json:"id"`
	Value       string `json:"value"`
	Beneficiary string `json:"beneficiary"`
	Status      string `json:"status"`
}

type HistoricalBalance struct {
	Id         string `gorm:"primaryKey" json:"id"`
	Balance    string `json:"balance"`
	Timestamp  int64  `json:"timestamp"`
	TreasuryId string `json:"treasury_id"`
}
