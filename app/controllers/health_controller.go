package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/address-cleaner/app/responses"
	"github.com/gin-gonic/gin"
)

// Version phiên bản service
const Version = "1.0.0"

// HealthCheck kiểm tra một phụ thuộc, trả về lỗi nếu không sẵn sàng
type HealthCheck func(ctx context.Context) error

// HealthController health/ready/live
type HealthController struct {
	startTime time.Time
	checks    map[string]HealthCheck
}

// NewHealthController tạo mới HealthController. checks có thể rỗng.
func NewHealthController(startTime time.Time, checks map[string]HealthCheck) *HealthController {
	return &HealthController{startTime: startTime, checks: checks}
}

func (hc *HealthController) run(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	services := map[string]string{"pipeline": "healthy"}
	ok := true
	for name, check := range hc.checks {
		if err := check(ctx); err != nil {
			services[name] = "unhealthy: " + err.Error()
			ok = false
			continue
		}
		services[name] = "healthy"
	}
	return services, ok
}

func (hc *HealthController) response(status string, services map[string]string) responses.HealthCheckResponse {
	return responses.HealthCheckResponse{
		Status:    status,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(hc.startTime).Round(time.Second).String(),
		Version:   Version,
		Services:  services,
	}
}

// Health trạng thái tổng hợp, luôn 200
func (hc *HealthController) Health(c *gin.Context) {
	services, ok := hc.run(c.Request.Context())
	status := "healthy"
	if !ok {
		status = "degraded"
	}
	c.JSON(http.StatusOK, hc.response(status, services))
}

// Ready 503 nếu có phụ thuộc không sẵn sàng
func (hc *HealthController) Ready(c *gin.Context) {
	services, ok := hc.run(c.Request.Context())
	if !ok {
		c.JSON(http.StatusServiceUnavailable, hc.response("not_ready", services))
		return
	}
	c.JSON(http.StatusOK, hc.response("ready", services))
}

// Live process còn sống
func (hc *HealthController) Live(c *gin.Context) {
	c.JSON(http.StatusOK, hc.response("alive", nil))
}
