package storage

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"raffle/internal/models"
)

type ResultType = string

const (
	WinnerResultType ResultType = "winner"
	LoserResultType  ResultType = "loser"
)

type RaffleRecord struct {
	ID            uint                 `gorm:"primaryKey"`
	TenantID      string               `gorm:"uniqueIndex;not null"`
	Name          string               `gorm:"not null"`
	Image         string               `gorm:"type:text"`
	NumberPrice   decimal.Decimal      `gorm:"type:decimal(10,2);not null"`
	TotalNumbers  int                  `gorm:"not null"`
	Theme         string               `gorm:"default:normal"`
	Status        string               `gorm:"default:active"`
	UnsoldNumbers models.NumberSet     `gorm:"type:text"`
	Participants  participantDirectory `gorm:"type:text"`
	MarkingMode   bool                 `gorm:"default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (RaffleRecord) TableName() string { return "raffles" }

type PrizeRecord struct {
	ID       uint   `gorm:"primaryKey"`
	RaffleID uint   `gorm:"index;not null"`
	Name     string `gorm:"not null"`
	Position int    `gorm:"default:0"`
}

func (PrizeRecord) TableName() string { return "raffle_prizes" }

type SaleRecord struct {
	ID               uint   `gorm:"primaryKey"`
	RaffleID         uint   `gorm:"uniqueIndex:idx_raffle_number;not null"`
	Number           int    `gorm:"uniqueIndex:idx_raffle_number;not null"`
	ParticipantName  string `gorm:"not null"`
	ParticipantPhone string
	SoldAt           time.Time
}

func (SaleRecord) TableName() string { return "raffle_sales" }

type ResultRecord struct {
	ID              uint       `gorm:"primaryKey"`
	RaffleID        uint       `gorm:"index;not null"`
	Seq             int        `gorm:"not null"`
	Number          int        `gorm:"not null"`
	ParticipantName string
	PrizeName       string
	Type            ResultType `gorm:"not null"`
}

func (ResultRecord) TableName() string { return "raffle_results" }

// participantDirectory stores the imported participant names as JSON.
type participantDirectory map[int]string

func (p participantDirectory) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[int]string(p))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *participantDirectory) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("participants: unsupported scan type %T", src)
	}

	var m map[int]string
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("participants: %w", err)
	}
	*p = m
	return nil
}
