package server

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vitalflow/internal/auth"

	"github.com/sirupsen/logrus"
)

const (
	cookieAccessToken  = "accessToken"
	cookieRefreshToken = "refreshToken"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path != "/" && strings.HasSuffix(path, "/") {
			newURL := *r.URL
			newURL.Path = strings.TrimSuffix(path, "/")

			http.Redirect(w, r, newURL.String(), http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CORS allows credentialed requests from the configured origins.
func (s *Service) CORS(next http.Handler) http.Handler {
	allow := make(map[string]struct{}, len(s.config.CORSOrigins))
	for _, origin := range s.config.CORSOrigins {
		allow[strings.TrimSpace(origin)] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := allow[origin]; ok && origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit admits max requests per client and path in each limiter window.
// A failing limiter store lets the request through.
func (s *Service) RateLimit(max int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r) + "-" + r.URL.Path

			decision, err := s.Limiter.Allow(r.Context(), key, max)
			if err != nil {
				s.logger.WithError(err).WithField("key", key).Error("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

			if !decision.Allowed {
				retry := int(decision.RetryAfter.Round(time.Second) / time.Second)
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				s.fail(w, r, errTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}

	return r.RemoteAddr
}

// RequireRole authenticates the request and admits sessions holding one of
// roles. The resolved session is stored on the request context.
func (s *Service) RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := s.tokenFromRequest(r, cookieAccessToken)
			if !ok {
				s.fail(w, r, errUnauthorized)
				return
			}

			principal, err := s.Issuer.ParseAccess(raw)
			if err != nil {
				s.logger.WithError(err).Debug("rejected access token")
				s.fail(w, r, err)
				return
			}

			session, err := s.Resolver.Resolve(r.Context(), principal)
			if err != nil {
				s.fail(w, r, err)
				return
			}

			if !session.Allows(roles...) {
				s.fail(w, r, auth.ErrForbidden)
				return
			}

			s.logger.WithFields(logrus.Fields{
				"principal_id": principal.ID,
				"role":         principal.Role,
			}).Debug("authenticated request")

			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
		})
	}
}

// tokenFromRequest reads the named token cookie, falling back to a bearer
// Authorization header.
func (s *Service) tokenFromRequest(r *http.Request, name string) (string, bool) {
	if cookie, err := r.Cookie(name); err == nil {
		var token string
		if err := s.cookie.Decode(name, cookie.Value, &token); err == nil && token != "" {
			return token, true
		}
		s.logger.Debug("ignoring undecodable token cookie")
	}

	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if found && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(token) != "" {
		return strings.TrimSpace(token), true
	}

	return "", false
}

func (s *Service) session(r *http.Request) *auth.Session {
	session, _ := auth.SessionFrom(r.Context())
	return session
}
