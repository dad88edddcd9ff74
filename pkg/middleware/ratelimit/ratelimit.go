package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"sync"

	"booking-service/pkg/response"
	"booking-service/pkg/sl"

	"github.com/go-chi/render"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// maxClients bounds how many client buckets are kept; the least recently seen
// client is dropped first and starts with a full bucket when it returns.
const maxClients = 10000

// store keeps one token bucket per client address.
type store struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	rps      rate.Limit
	burst    int
}

func newStore(size int, rps rate.Limit, burst int) (*store, error) {
	limiters, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		return nil, err
	}

	return &store{limiters: limiters, rps: rps, burst: burst}, nil
}

func (s *store) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, ok := s.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(s.rps, s.burst)
		s.limiters.Add(key, limiter)
	}

	return limiter
}

// New limits requests per client address. A non-positive rps disables limiting.
func New(log *slog.Logger, rps float64, burst int) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rps <= 0 {
			return next
		}

		if burst <= 0 {
			burst = 1
		}

		log := log.With(slog.String("component", "middleware/ratelimit"))

		s, err := newStore(maxClients, rate.Limit(rps), burst)
		if err != nil {
			log.Error("rate limiter disabled", sl.Err(err))
			return next
		}

		fn := func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !s.get(ip).Allow() {
				log.Warn("rate limit exceeded", slog.String("ip", ip))
				w.WriteHeader(http.StatusTooManyRequests)
				render.JSON(w, r, response.Error(string(response.RATE_LIMITED), "too many requests"))
				return
			}

			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(fn)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
