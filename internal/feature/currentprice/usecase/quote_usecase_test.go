package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_pipeline/internal/feature/currentprice/domain"
	"stock_pipeline/internal/feature/currentprice/domain/entity"
)

type mockSnapshotReader struct {
	LoadFunc func(ctx context.Context) ([]entity.QuoteRecord, error)
}

func (m *mockSnapshotReader) Load(ctx context.Context) ([]entity.QuoteRecord, error) {
	return m.LoadFunc(ctx)
}

func TestQuoteUsecase_GetSnapshot(t *testing.T) {
	t.Parallel()

	want := []entity.QuoteRecord{{Code: "005930"}}
	uc := NewQuoteUsecase(&mockSnapshotReader{LoadFunc: func(context.Context) ([]entity.QuoteRecord, error) {
		return want, nil
	}}, nil)

	got, err := uc.GetSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestQuoteUsecase_GetQuote(t *testing.T) {
	t.Parallel()

	stored := entity.QuoteRecord{Code: "005930", Quote: map[string]any{"stck_prpr": "71000"}}
	repo := &mockQuoteRepository{FindFunc: func(_ context.Context, code string) (entity.QuoteRecord, error) {
		if code == "005930" {
			return stored, nil
		}
		return entity.QuoteRecord{}, domain.ErrQuoteNotFound
	}}

	testCases := []struct {
		name        string
		repo        QuoteRepository
		code        string
		expected    entity.QuoteRecord
		expectedErr error
	}{
		{name: "found", repo: repo, code: " 005930 ", expected: stored},
		{name: "not found", repo: repo, code: "999999", expectedErr: domain.ErrQuoteNotFound},
		{name: "blank code", repo: repo, code: "  ", expectedErr: domain.ErrQuoteNotFound},
		{name: "store disabled", repo: nil, code: "005930", expectedErr: domain.ErrQuoteStoreDisabled},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			uc := NewQuoteUsecase(nil, tc.repo)
			got, err := uc.GetQuote(context.Background(), tc.code)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}
