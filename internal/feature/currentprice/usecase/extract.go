// Package usecase は現在価格スナップショットのビジネスロジックを実装します。
package usecase

import (
	"go.uber.org/zap"

	rankentity "stock_pipeline/internal/feature/volumerank/domain/entity"
)

const (
	// PrimaryCodeField はランキングレコードの銘柄コード（短縮コード）フィールドです。
	PrimaryCodeField = "mksc_shrn_iscd"
	// FallbackCodeField は単一レコードで PrimaryCodeField が無い場合に参照するフィールドです。
	FallbackCodeField = "stck_shrn_iscd"
	// DefaultBatchLimit は1メッセージから取り出す銘柄コードの上限です。
	DefaultBatchLimit = 30
)

// ExtractStockCodes はvolume-rankメッセージから銘柄コードを抽出します。
// 不正なJSONや想定外の形は空スライスとして扱い、ログだけ残します。
// 重複は除去せず、元の順序のまま最大 limit 件に切り詰めます。
func ExtractStockCodes(logger *zap.Logger, payload []byte, limit int) []string {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = DefaultBatchLimit
	}

	out, err := rankentity.DecodeRankOutput(payload)
	if err != nil {
		logger.Warn("skip message, invalid JSON",
			zap.ByteString("payload", payload),
			zap.Error(err),
		)
		return []string{}
	}

	var candidates []string
	switch out.Kind {
	case rankentity.OutputMany:
		candidates = make([]string, 0, len(out.Many))
		for _, raw := range out.Many {
			entry, ok := rankentity.AsEntry(raw)
			if !ok {
				continue
			}
			candidates = append(candidates, entry.Field(PrimaryCodeField))
		}
	case rankentity.OutputSingle:
		code := out.Single.Field(PrimaryCodeField)
		if code == "" {
			code = out.Single.Field(FallbackCodeField)
		}
		candidates = []string{code}
	default:
		logger.Info("unsupported payload type for extracting stock codes",
			zap.Stringer("kind", out.Kind),
		)
		return []string{}
	}

	codes := make([]string, 0, min(len(candidates), limit))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		codes = append(codes, c)
		if len(codes) == limit {
			break
		}
	}
	return codes
}
