package httpx

import (
	"context"
	"net/http"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	JSONSuccess(w, r, map[string]string{"status": "ok"})
}

// ReadyHandler reports 503 until every dependency answers a ping.
func ReadyHandler(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := make(map[string]string, len(deps))
		ready := true
		for name, p := range deps {
			if err := p.Ping(ctx); err != nil {
				status[name] = err.Error()
				ready = false
				continue
			}
			status[name] = "ok"
		}
		if !ready {
			JSON(w, r, http.StatusServiceUnavailable, status, nil)
			return
		}
		JSONSuccess(w, r, status)
	}
}
