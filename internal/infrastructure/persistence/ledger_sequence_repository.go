package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/bullion/internal/domain/ledger"
	"github.com/erp/bullion/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxSeedAttempts bounds the insert-then-lock loop for a fresh prefix
const maxSeedAttempts = 3

// GormCodeSequencer issues codes from the code_sequences counter table.
// The counter row is locked for the rest of the surrounding transaction, so
// concurrent writers of the same prefix queue behind each other.
type GormCodeSequencer struct {
	db *gorm.DB
}

// NewGormCodeSequencer creates a new GormCodeSequencer
func NewGormCodeSequencer(db *gorm.DB) *GormCodeSequencer {
	return &GormCodeSequencer{db: db}
}

// Next returns prefix followed by the next sequence number. The number never
// falls behind codes already stored, even ones written without the counter.
func (s *GormCodeSequencer) Next(ctx context.Context, prefix string) (string, error) {
	db := s.db.WithContext(ctx)

	for attempt := 0; attempt < maxSeedAttempts; attempt++ {
		var counter models.CodeSequenceModel
		err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("prefix = ?", prefix).
			Take(&counter).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			seed := models.CodeSequenceModel{Prefix: prefix, UpdatedAt: time.Now().UTC()}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
				return "", fmt.Errorf("seed code sequence %s: %w", prefix, err)
			}
			continue
		}
		if err != nil {
			return "", fmt.Errorf("lock code sequence %s: %w", prefix, translateReadError(err))
		}

		stored, err := s.highestStored(db, prefix)
		if err != nil {
			return "", err
		}
		next := max(counter.LastValue, stored) + 1

		err = db.Model(&models.CodeSequenceModel{}).
			Where("prefix = ?", prefix).
			Updates(map[string]any{"last_value": next, "updated_at": time.Now().UTC()}).Error
		if err != nil {
			return "", fmt.Errorf("advance code sequence %s: %w", prefix, translateWriteError(err, "code sequence "+prefix))
		}
		return ledger.FormatCode(prefix, next), nil
	}
	return "", fmt.Errorf("code sequence %s could not be seeded", prefix)
}

// highestStored scans product and transaction codes sharing prefix
func (s *GormCodeSequencer) highestStored(db *gorm.DB, prefix string) (int64, error) {
	var codes []string
	var productCodes []string
	if err := db.Model(&models.ProductModel{}).
		Where("product_code LIKE ?", prefix+"%").
		Pluck("product_code", &productCodes).Error; err != nil {
		return 0, fmt.Errorf("scan product codes %s: %w", prefix, err)
	}
	codes = append(codes, productCodes...)

	var transactionCodes []string
	if err := db.Model(&models.TransactionModel{}).
		Where("transaction_code LIKE ?", prefix+"%").
		Pluck("transaction_code", &transactionCodes).Error; err != nil {
		return 0, fmt.Errorf("scan transaction codes %s: %w", prefix, err)
	}
	codes = append(codes, transactionCodes...)

	var highest int64
	for _, code := range codes {
		if seq, ok := ledger.ParseSequence(code, prefix); ok && seq > highest {
			highest = seq
		}
	}
	return highest, nil
}

// Ensure GormCodeSequencer implements Sequencer
var _ ledger.Sequencer = (*GormCodeSequencer)(nil)
