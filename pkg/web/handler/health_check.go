package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
)

// Pinger 可探活的依赖组件
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc 将函数适配为 Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type component struct {
	name   string
	isCore bool
	pinger Pinger
}

type HealthCheckHandler struct {
	components []component
}

func NewHealthCheckHandler() *HealthCheckHandler {
	return &HealthCheckHandler{}
}

// WithComponent 注册被检查的组件；core 组件失败时整体返回 503
func (h *HealthCheckHandler) WithComponent(name string, isCore bool, p Pinger) *HealthCheckHandler {
	h.components = append(h.components, component{name: name, isCore: isCore, pinger: p})
	return h
}

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Uptime     string            `json:"uptime"`
	Components []ComponentStatus `json:"components,omitempty"`
}

type ComponentStatus struct {
	Name    string        `json:"name"`
	Status  string        `json:"status"`
	IsCore  bool          `json:"is_core"`
	Latency time.Duration `json:"latency,omitempty"`
	Error   string        `json:"error,omitempty"`
}

var startupTime = time.Now()

// AdvancedHealthCheck GET /health
func (h *HealthCheckHandler) AdvancedHealthCheck(ctx context.Context, c *app.RequestContext) {
	status := HealthStatus{
		Status:     "healthy",
		Timestamp:  time.Now().UTC(),
		Uptime:     time.Since(startupTime).Round(time.Second).String(),
		Components: make([]ComponentStatus, 0, len(h.components)),
	}

	for _, comp := range h.components {
		status.Components = append(status.Components, check(ctx, comp))
	}

	if hasCriticalErrors(status.Components) {
		status.Status = "degraded"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}

	c.JSON(http.StatusOK, status)
}

func check(ctx context.Context, comp component) ComponentStatus {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := comp.pinger.Ping(pingCtx)
	res := ComponentStatus{
		Name:    comp.name,
		Status:  "ok",
		IsCore:  comp.isCore,
		Latency: time.Since(start),
	}
	if err != nil {
		res.Status = "unavailable"
		res.Error = err.Error()
	}
	return res
}

func hasCriticalErrors(components []ComponentStatus) bool {
	for _, comp := range components {
		// 核心组件状态异常或任意组件发生严重错误
		if (comp.IsCore && comp.Status != "ok") || comp.Status == "critical" {
			return true
		}
	}
	return false
}
