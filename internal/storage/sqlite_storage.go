package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"raffle/internal/models"
)

// SqliteStore keeps raffles in the raffles, raffle_prizes, raffle_sales and
// raffle_results tables.
type SqliteStore struct {
	db *gorm.DB
}

func NewSqliteStore(dsn string) (*SqliteStore, error) {
	logger.Infof("opening sqlite store at %s", dsn)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(
		&RaffleRecord{},
		&PrizeRecord{},
		&SaleRecord{},
		&ResultRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Load(ctx context.Context, tenantID string) (models.Raffle, error) {
	db := s.db.WithContext(ctx)

	var rec RaffleRecord
	if err := db.Where("tenant_id = ?", tenantID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Raffle{}, ErrNotFound
		}
		return models.Raffle{}, fmt.Errorf("load raffle: %w", err)
	}

	var prizes []PrizeRecord
	if err := db.Where("raffle_id = ?", rec.ID).Order("position").Find(&prizes).Error; err != nil {
		return models.Raffle{}, fmt.Errorf("load prizes: %w", err)
	}
	var sales []SaleRecord
	if err := db.Where("raffle_id = ?", rec.ID).Find(&sales).Error; err != nil {
		return models.Raffle{}, fmt.Errorf("load sales: %w", err)
	}
	var results []ResultRecord
	if err := db.Where("raffle_id = ?", rec.ID).Order("seq").Find(&results).Error; err != nil {
		return models.Raffle{}, fmt.Errorf("load results: %w", err)
	}

	r := models.Raffle{
		Config: models.RaffleConfig{
			Name:         rec.Name,
			NumberPrice:  rec.NumberPrice,
			TotalNumbers: rec.TotalNumbers,
			Image:        rec.Image,
			Theme:        models.Theme(rec.Theme),
			Status:       models.Phase(rec.Status),
			CreatedAt:    rec.CreatedAt,
		},
		State: models.NewState(),
	}
	if rec.UnsoldNumbers != nil {
		r.State.Unsold = rec.UnsoldNumbers
	}
	r.State.MarkingMode = rec.MarkingMode
	if len(rec.Participants) > 0 {
		r.State.Participants = map[int]string(rec.Participants)
	}

	for _, p := range prizes {
		r.State.Prizes = append(r.State.Prizes, p.Name)
	}
	for _, sale := range sales {
		r.State.Sales[sale.Number] = models.Sale{
			Name:  sale.ParticipantName,
			Phone: sale.ParticipantPhone,
			Date:  sale.SoldAt,
		}
	}
	for _, res := range results {
		switch res.Type {
		case WinnerResultType:
			r.State.Winners = append(r.State.Winners, models.Winner{
				Number: res.Number,
				Name:   res.ParticipantName,
				Prize:  res.PrizeName,
			})
		case LoserResultType:
			r.State.Losers = append(r.State.Losers, res.Number)
		default:
			logger.Warningf("skipping result %d with unknown type %q", res.ID, res.Type)
		}
	}

	return r, nil
}

// Save replaces the stored snapshot for tenantID in one transaction.
func (s *SqliteStore) Save(ctx context.Context, tenantID string, raffle models.Raffle) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec RaffleRecord
		err := tx.Where("tenant_id = ?", tenantID).First(&rec).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rec = RaffleRecord{TenantID: tenantID, CreatedAt: raffle.Config.CreatedAt}
		case err != nil:
			return fmt.Errorf("find raffle: %w", err)
		}

		rec.Name = raffle.Config.Name
		rec.Image = raffle.Config.Image
		rec.NumberPrice = raffle.Config.NumberPrice
		rec.TotalNumbers = raffle.Config.TotalNumbers
		rec.Theme = string(raffle.Config.Theme)
		rec.Status = string(raffle.Config.Status)
		rec.UnsoldNumbers = raffle.State.Unsold
		rec.Participants = participantDirectory(raffle.State.Participants)
		rec.MarkingMode = raffle.State.MarkingMode

		if err := tx.Save(&rec).Error; err != nil {
			return fmt.Errorf("save raffle: %w", err)
		}
		if err := deleteChildren(tx, rec.ID); err != nil {
			return err
		}

		prizes := make([]PrizeRecord, 0, len(raffle.State.Prizes))
		for i, name := range raffle.State.Prizes {
			prizes = append(prizes, PrizeRecord{RaffleID: rec.ID, Name: name, Position: i})
		}

		numbers := make([]int, 0, len(raffle.State.Sales))
		for n := range raffle.State.Sales {
			numbers = append(numbers, n)
		}
		sort.Ints(numbers)
		sales := make([]SaleRecord, 0, len(numbers))
		for _, n := range numbers {
			sale := raffle.State.Sales[n]
			sales = append(sales, SaleRecord{
				RaffleID:         rec.ID,
				Number:           n,
				ParticipantName:  sale.Name,
				ParticipantPhone: sale.Phone,
				SoldAt:           sale.Date,
			})
		}

		results := make([]ResultRecord, 0, len(raffle.State.Winners)+len(raffle.State.Losers))
		for _, w := range raffle.State.Winners {
			results = append(results, ResultRecord{
				RaffleID:        rec.ID,
				Seq:             len(results),
				Number:          w.Number,
				ParticipantName: w.Name,
				PrizeName:       w.Prize,
				Type:            WinnerResultType,
			})
		}
		for _, n := range raffle.State.Losers {
			results = append(results, ResultRecord{
				RaffleID: rec.ID,
				Seq:      len(results),
				Number:   n,
				Type:     LoserResultType,
			})
		}

		if len(prizes) > 0 {
			if err := tx.CreateInBatches(prizes, 100).Error; err != nil {
				return fmt.Errorf("save prizes: %w", err)
			}
		}
		if len(sales) > 0 {
			if err := tx.CreateInBatches(sales, 100).Error; err != nil {
				return fmt.Errorf("save sales: %w", err)
			}
		}
		if len(results) > 0 {
			if err := tx.CreateInBatches(results, 100).Error; err != nil {
				return fmt.Errorf("save results: %w", err)
			}
		}
		return nil
	})
}

func (s *SqliteStore) Delete(ctx context.Context, tenantID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec RaffleRecord
		if err := tx.Where("tenant_id = ?", tenantID).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("find raffle: %w", err)
		}
		if err := deleteChildren(tx, rec.ID); err != nil {
			return err
		}
		if err := tx.Delete(&rec).Error; err != nil {
			return fmt.Errorf("delete raffle: %w", err)
		}
		return nil
	})
}

func (s *SqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func deleteChildren(tx *gorm.DB, raffleID uint) error {
	if err := tx.Where("raffle_id = ?", raffleID).Delete(&PrizeRecord{}).Error; err != nil {
		return fmt.Errorf("clear prizes: %w", err)
	}
	if err := tx.Where("raffle_id = ?", raffleID).Delete(&SaleRecord{}).Error; err != nil {
		return fmt.Errorf("clear sales: %w", err)
	}
	if err := tx.Where("raffle_id = ?", raffleID).Delete(&ResultRecord{}).Error; err != nil {
		return fmt.Errorf("clear results: %w", err)
	}
	return nil
}
