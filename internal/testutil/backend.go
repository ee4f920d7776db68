package testutil

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

const headerRequestID = "X-Request-ID"

// ContentTypeSTL is returned by the fake /api/generate for STL output.
const ContentTypeSTL = "model/stl"

type failure struct {
	status int
	body   string
}

// Backend is an in-process fake of the generation service. Failures and
// delays can be scripted per path.
type Backend struct {
	URL  string
	Echo *echo.Echo

	mu         sync.Mutex
	failures   map[string][]failure
	delays     map[string]time.Duration
	hits       map[string]int
	requestIDs map[string][]string
}

// NewBackend starts the fake backend on an IPv4 loopback listener. The test
// is skipped when no listener can be bound.
func NewBackend(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		failures:   make(map[string][]failure),
		delays:     make(map[string]time.Duration),
		hits:       make(map[string]int),
		requestIDs: make(map[string][]string),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(b.record, b.script)

	e.GET(PathHealth, b.health)
	e.GET(PathTypes, b.types)
	e.POST(PathPreview, b.preview)
	e.POST(PathGenerate, b.generate)
	b.Echo = e

	lc := net.ListenConfig{}
	listener, err := lc.Listen(context.Background(), "tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test: unable to bind IPv4 listener: %v", err)
		return b
	}
	server := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: e},
	}
	server.Start()
	t.Cleanup(server.Close)

	b.URL = server.URL
	return b
}

// FailNext makes the next len(statuses) calls to path fail with the given
// statuses and a JSON detail body.
func (b *Backend) FailNext(path string, statuses ...int) {
	for _, status := range statuses {
		b.FailNextWith(path, status, fmt.Sprintf(`{"detail": "scripted failure %d"}`, status))
	}
}

// FailNextWith queues one failure with a raw body.
func (b *Backend) FailNextWith(path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[path] = append(b.failures[path], failure{status: status, body: body})
}

// Delay holds every response on path for d, or until the client goes away.
func (b *Backend) Delay(path string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delays[path] = d
}

// Hits returns the number of requests received on path.
func (b *Backend) Hits(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

// RequestIDs returns the X-Request-ID of every request on path, in order.
func (b *Backend) RequestIDs(path string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requestIDs[path]...)
}

func (b *Backend) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		b.mu.Lock()
		b.hits[path]++
		b.requestIDs[path] = append(b.requestIDs[path], c.Request().Header.Get(headerRequestID))
		b.mu.Unlock()
		return next(c)
	}
}

func (b *Backend) script(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path

		b.mu.Lock()
		delay := b.delays[path]
		var scripted *failure
		if queue := b.failures[path]; len(queue) > 0 {
			scripted = &queue[0]
			b.failures[path] = queue[1:]
		}
		b.mu.Unlock()

		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-c.Request().Context().Done():
				return nil
			}
		}

		if scripted != nil {
			return c.Blob(scripted.status, echo.MIMEApplicationJSON, []byte(scripted.body))
		}
		return next(c)
	}
}

type scaffoldRequest struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
	Format string         `json:"format"`
}

var knownTypes = []map[string]any{
	{
		"id":          TestTypeGyroid,
		"name":        "Gyroid",
		"description": "Triply periodic minimal surface",
		"defaults":    map[string]any{"cell_size": 2.0, "wall_thickness": 0.3},
	},
	{
		"id":          TestTypeLattice,
		"name":        "Cubic lattice",
		"description": "Strut based lattice",
		"defaults":    map[string]any{"strut_diameter": 0.5},
	},
}

func isKnownType(name string) bool {
	for _, t := range knownTypes {
		if t["id"] == name {
			return true
		}
	}
	return false
}

func (b *Backend) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"status": "ok", "version": TestBackendVersion})
}

func (b *Backend) types(c echo.Context) error {
	return c.JSON(http.StatusOK, knownTypes)
}

func (b *Backend) preview(c echo.Context) error {
	var req scaffoldRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"detail": "malformed request body"})
	}
	if !isKnownType(req.Type) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{
				"loc":  []string{"body", "type"},
				"msg":  "Value error, unknown scaffold type: " + req.Type,
				"type": "value_error",
			}},
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"type":     req.Type,
		"vertices": [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		"faces":    [][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}},
		"metadata": map[string]any{"params": req.Params},
	})
}

func (b *Backend) generate(c echo.Context) error {
	var req scaffoldRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"detail": "malformed request body"})
	}
	if !isKnownType(req.Type) {
		return c.String(http.StatusNotFound, "unknown scaffold type: "+req.Type)
	}
	mesh := fmt.Sprintf("solid %s\n  facet normal 0 0 1\n  endfacet\nendsolid %s\n", req.Type, req.Type)
	return c.Blob(http.StatusOK, ContentTypeSTL, []byte(mesh))
}
