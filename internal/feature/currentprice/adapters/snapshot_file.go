// Package adapters はcurrentpriceフィーチャーの保存先実装を提供します。
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"stock_pipeline/internal/feature/currentprice/domain"
	"stock_pipeline/internal/feature/currentprice/domain/entity"
	"stock_pipeline/internal/feature/currentprice/usecase"
)

// DefaultSnapshotFile はスナップショットのデフォルトファイル名です。
const DefaultSnapshotFile = "current_price_snapshot.json"

// DefaultSnapshotPath は一時ディレクトリ配下のデフォルト保存先を返します。
func DefaultSnapshotPath() string {
	return filepath.Join(os.TempDir(), DefaultSnapshotFile)
}

// snapshotFile は現在価格スナップショットをJSONファイルに保存します。
type snapshotFile struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex // 同一プロセス内の書き込みを直列化
}

var (
	_ usecase.SnapshotWriter = (*snapshotFile)(nil)
	_ usecase.SnapshotReader = (*snapshotFile)(nil)
)

// NewSnapshotFile は path に書き込む snapshotFile を生成します。path が空ならデフォルトを使います。
func NewSnapshotFile(path string, logger *zap.Logger) *snapshotFile {
	if path == "" {
		path = DefaultSnapshotPath()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &snapshotFile{path: path, logger: logger}
}

// Path は保存先のパスを返します。
func (s *snapshotFile) Path() string { return s.path }

// Save は records をインデント付きJSON配列として保存先全体を置き換えます。
// 同じディレクトリの一時ファイルに書いてから rename するため、書きかけのファイルは見えません。
// 失敗はログに出したうえでエラーとして返します。
func (s *snapshotFile) Save(ctx context.Context, records []entity.QuoteRecord) error {
	if err := s.save(records); err != nil {
		s.logger.Error("failed to persist current price snapshot",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return err
	}
	s.logger.Info("saved current price snapshot",
		zap.Int("rows", len(records)),
		zap.String("path", s.path),
	)
	return nil
}

func (s *snapshotFile) save(records []entity.QuoteRecord) error {
	if records == nil {
		records = []entity.QuoteRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	committed = true
	return nil
}

// Load は最後に保存されたスナップショットを読み込みます。
func (s *snapshotFile) Load(ctx context.Context) ([]entity.QuoteRecord, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, err
	}

	var records []entity.QuoteRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}
	return records, nil
}
