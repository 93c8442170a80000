package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// Result は1回のAllow判定の結果です。
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt は現在のウィンドウが終わり、再び許可される時刻です。
	ResetAt time.Time
}

// RetryAfter はResetAtまでの残り時間を返します（最小1秒）。
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d < time.Second {
		return time.Second
	}
	return d
}

// Limiter は、キー（クライアントIPなど）ごとに操作の頻度を制限するインターフェースです。
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

type window struct {
	count int
	start time.Time
}

// RateLimiter は、キーごとの固定ウィンドウでリクエスト数を制限するインメモリ実装です。
// Redisが利用できない単一プロセス構成で使用します。
type RateLimiter struct {
	limit    int           // ウィンドウあたりの上限
	interval time.Duration // どの単位でリセットするか
	now      func() time.Time

	mu        sync.Mutex
	windows   map[string]*window
	lastSweep time.Time
}

var _ Limiter = (*RateLimiter)(nil)

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		now:       time.Now,
		windows:   make(map[string]*window),
		lastSweep: time.Now(),
	}
}

// Allow はkeyの現在のウィンドウでのカウントを1増やし、上限以内かを返します。
func (rl *RateLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.sweep(now)

	w, ok := rl.windows[key]
	// interval を過ぎたらカウントリセット
	if !ok || now.Sub(w.start) >= rl.interval {
		w = &window{start: now}
		rl.windows[key] = w
	}

	res := Result{Limit: rl.limit, ResetAt: w.start.Add(rl.interval)}
	if w.count >= rl.limit {
		return res, nil
	}
	w.count++
	res.Allowed = true
	res.Remaining = rl.limit - w.count
	return res, nil
}

// sweep は期限切れのウィンドウを削除します。呼び出し側でmuを保持している必要があります。
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.interval {
		return
	}
	for k, w := range rl.windows {
		if now.Sub(w.start) >= rl.interval {
			delete(rl.windows, k)
		}
	}
	rl.lastSweep = now
}
