package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// RequestRecorder はHTTPリクエストメトリクスの記録に必要なインターフェース。
// metrics.Collectorの部分集合として定義する。
type RequestRecorder interface {
	RecordRequest(method, path string, statusCode int, duration time.Duration)
}

// NewMetricsMiddleware はリクエストごとにメトリクスを記録するミドルウェアを返す。
// パスラベルにはカーディナリティを抑えるためchiのルートパターンを使用する。
func NewMetricsMiddleware(recorder RequestRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rec, r)

			// ルーティング後に確定するパターンを参照する
			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}

			recorder.RecordRequest(r.Method, path, rec.statusCode, time.Since(start))
		})
	}
}
