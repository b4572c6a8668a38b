package mockapi

import (
	"net/http"
	"time"
)

// Fault makes a route misbehave for the next Times requests (forever when
// Times is 0).
type Fault struct {
	Status  int
	Message string
	Delay   time.Duration
	Times   int
}

// Inject installs a fault on the named route, replacing any existing one.
func (s *Server) Inject(route string, f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := f
	s.faults[route] = &copied
}

// Clear removes the fault on the named route.
func (s *Server) Clear(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.faults, route)
}

// takeFault returns the active fault for route and consumes one use.
func (s *Server) takeFault(route string) *Fault {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[route]++
	f, ok := s.faults[route]
	if !ok {
		return nil
	}
	active := *f
	if f.Times > 0 {
		f.Times--
		if f.Times == 0 {
			delete(s.faults, route)
		}
	}
	return &active
}

// track counts requests on a route and applies its fault, if any.
func (s *Server) track(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			f := s.takeFault(route)
			if f == nil {
				next.ServeHTTP(w, r)
				return
			}
			if f.Delay > 0 {
				select {
				case <-time.After(f.Delay):
				case <-r.Context().Done():
					return
				}
			}
			if f.Status == 0 {
				next.ServeHTTP(w, r)
				return
			}
			msg := f.Message
			if msg == "" {
				msg = http.StatusText(f.Status)
			}
			writeError(w, f.Status, msg)
		})
	}
}
