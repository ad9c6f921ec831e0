package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/restaurant-reservation/internal/config"
)

// bodyRecorder tees the response to the client and, up to limit bytes,
// into buf.
type bodyRecorder struct {
	http.ResponseWriter
	status  int
	buf     bytes.Buffer
	written int64
	limit   int64
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.written += int64(len(b))
	if !r.overflow() {
		r.buf.Write(b)
	}
	return r.ResponseWriter.Write(b)
}

func (r *bodyRecorder) overflow() bool { return r.limit > 0 && r.written > r.limit }

// dependents lists, per resource, which cached resources embed its
// data.  Reservations carry their diner and table, and table
// availability depends on reservations.
var dependents = map[string][]string{
	"diners":       {"diners", "reservations"},
	"tables":       {"tables", "reservations"},
	"reservations": {"reservations", "tables"},
}

// resourceOf returns the first path segment after an optional "api"
// prefix, e.g. "diners" for /api/diners/:id.
func resourceOf(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) > 0 && segs[0] == "api" {
		segs = segs[1:]
	}
	if len(segs) == 0 || segs[0] == "" {
		return "root"
	}
	return segs[0]
}

// cacheKeyFrom builds prefix:resource:sha1(strategy parts) so that a
// whole resource can be invalidated by pattern.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "path":
		parts = []string{"path", r.URL.Path}
	default: // "route_query"
		parts = []string{"path", r.URL.Path, "q", r.URL.RawQuery}
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:%s:%x", cfg.Prefix, resourceOf(c.Path()), sum[:])
}

// cachedResponse is what a cache entry holds.
type cachedResponse struct {
	Status int         `json:"s"`
	Header http.Header `json:"h"`
	Body   []byte      `json:"b"`
}

func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	return json.Marshal(cachedResponse{Status: status, Header: header, Body: body})
}

func decodePayload(bs []byte) (cachedResponse, bool) {
	var cr cachedResponse
	if err := json.Unmarshal(bs, &cr); err != nil || cr.Status == 0 {
		return cachedResponse{}, false
	}
	return cr, true
}

// NewRedisCache caches 200 responses to the configured methods in Redis.
// A successful write on any other method drops the cached entries of
// its resource and of every resource embedding it.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				if err := next(c); err != nil {
					return err
				}
				if st := c.Response().Status; st >= 200 && st < 300 {
					invalidate(c.Request().Context(), rdb, cfg.Prefix, resourceOf(c.Path()))
				}
				return nil
			}

			ctx := c.Request().Context()
			key := cacheKeyFrom(cfg, c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if cr, ok := decodePayload(bs); ok {
					replay(c, cr)
					return nil
				}
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.overflow() {
				return nil
			}

			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			hdr.Del(echo.HeaderXRequestID)
			if payload, err := encodePayload(rec.status, hdr, rec.buf.Bytes()); err == nil {
				if err := rdb.SetEx(context.WithoutCancel(ctx), key, payload, ttl).Err(); err != nil {
					log.Debug().Err(err).Str("key", key).Msg("cache: store failed")
				}
			}
			return nil
		}
	}
}

func replay(c echo.Context, cr cachedResponse) {
	h := c.Response().Header()
	for k, vals := range cr.Header {
		if strings.EqualFold(k, echo.HeaderContentLength) {
			continue
		}
		for _, v := range vals {
			h.Add(k, v)
		}
	}
	h.Set("X-Cache", "HIT")
	c.Response().WriteHeader(cr.Status)
	_, _ = c.Response().Write(cr.Body)
}

// invalidate deletes every cached entry of resource and of the
// resources that embed it.
func invalidate(ctx context.Context, rdb *redis.Client, prefix, resource string) {
	targets, ok := dependents[resource]
	if !ok {
		targets = []string{resource}
	}
	ctx = context.WithoutCancel(ctx)
	for _, r := range targets {
		iter := rdb.Scan(ctx, 0, prefix+":"+r+":*", 200).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			log.Warn().Err(err).Str("resource", r).Msg("cache: scan failed")
			continue
		}
		if len(keys) > 0 {
			if err := rdb.Del(ctx, keys...).Err(); err != nil {
				log.Warn().Err(err).Str("resource", r).Msg("cache: invalidate failed")
			}
		}
	}
}
