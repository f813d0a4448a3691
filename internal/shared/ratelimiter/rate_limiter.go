package ratelimiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	Wait(ctx context.Context) error
}

// RateLimiter は、API呼び出しなどの操作の頻度を制限します。
// 複数のゴルーチンから同時に使っても安全です。
type RateLimiter struct {
	limiter  *rate.Limiter
	limit    int           // interval あたりの上限
	interval time.Duration // どの単位で補充するか
}

var _ RateLimiterInterface = (*RateLimiter)(nil)

// NewRateLimiter は interval あたり limit 回までを許可する RateLimiter を生成します。
// limit か interval が0以下なら制限しません。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 || interval <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1), limit: limit, interval: interval}
	}
	every := interval / time.Duration(limit)
	return &RateLimiter{
		limiter:  rate.NewLimiter(rate.Every(every), limit),
		limit:    limit,
		interval: interval,
	}
}

// NewInterval は呼び出しの間隔を最低 minInterval 空ける RateLimiter を生成します。
// 最初の呼び出しは待ちません。
func NewInterval(minInterval time.Duration) *RateLimiter {
	return NewRateLimiter(1, minInterval)
}

// Wait は次の呼び出しが許可されるまで待機します。ctx が終了した場合はそのエラーを返します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// Interval は呼び出し間の最小間隔を返します。
func (rl *RateLimiter) Interval() time.Duration {
	if rl.limit <= 0 || rl.interval <= 0 {
		return 0
	}
	return rl.interval / time.Duration(rl.limit)
}
