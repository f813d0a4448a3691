package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock_pipeline/internal/feature/currentprice/domain"
	"stock_pipeline/internal/feature/currentprice/domain/entity"
	"stock_pipeline/internal/feature/currentprice/usecase"
)

type quoteGorm struct {
	db *gorm.DB
}

var _ usecase.QuoteRepository = (*quoteGorm)(nil)

func NewQuoteRepository(db *gorm.DB) *quoteGorm {
	return &quoteGorm{db: db}
}

// QuoteModel は銘柄ごとの最新の現在価格を1行で保持します。
type QuoteModel struct {
	Code      string    `gorm:"primaryKey;size:16"`
	Price     string    `gorm:"size:32;not null;default:''"`
	Payload   string    `gorm:"type:text;not null"`
	FetchedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time
}

func (QuoteModel) TableName() string {
	return "current_prices"
}

func toModel(e entity.QuoteRecord) (QuoteModel, error) {
	payload, err := json.Marshal(e.Quote)
	if err != nil {
		return QuoteModel{}, fmt.Errorf("encode quote %s: %w", e.Code, err)
	}
	return QuoteModel{
		Code:      e.Code,
		Price:     e.Price(),
		Payload:   string(payload),
		FetchedAt: e.FetchedAt,
	}, nil
}

func toEntity(m QuoteModel) (entity.QuoteRecord, error) {
	var quote map[string]any
	if err := json.Unmarshal([]byte(m.Payload), &quote); err != nil {
		return entity.QuoteRecord{}, fmt.Errorf("decode quote %s: %w", m.Code, err)
	}
	return entity.QuoteRecord{
		Code:      m.Code,
		FetchedAt: m.FetchedAt,
		Quote:     quote,
	}, nil
}

func (r *quoteGorm) UpsertBatch(ctx context.Context, records []entity.QuoteRecord) error {
	if len(records) == 0 {
		return nil
	}
	// 同じ文で同じ行を2回更新できないため、コードごとに最後のレコードだけを残す
	ms := make([]QuoteModel, 0, len(records))
	index := make(map[string]int, len(records))
	for _, e := range records {
		m, err := toModel(e)
		if err != nil {
			return err
		}
		if i, ok := index[m.Code]; ok {
			ms[i] = m
			continue
		}
		index[m.Code] = len(ms)
		ms = append(ms, m)
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "payload", "fetched_at", "updated_at"}),
	}).Create(&ms).Error
}

func (r *quoteGorm) Find(ctx context.Context, code string) (entity.QuoteRecord, error) {
	var m QuoteModel
	err := r.db.WithContext(ctx).Where("code = ?", code).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.QuoteRecord{}, domain.ErrQuoteNotFound
		}
		return entity.QuoteRecord{}, err
	}
	return toEntity(m)
}
