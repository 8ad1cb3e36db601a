package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse is the JSON body of the detailed health endpoint.
type HealthResponse struct {
	Status    string                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Checks    map[string]CheckResponse `json:"checks,omitempty"`
	Probes    []ProbeResponse          `json:"probes,omitempty"`
}

// CheckResponse is the JSON form of a single Result.
type CheckResponse struct {
	Status   string         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// ProbeResponse is the JSON form of a ProbeResult.
type ProbeResponse struct {
	Time     string `json:"time"`
	Session  string `json:"session"`
	Alive    bool   `json:"alive"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

func httpStatus(s Status) int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func toCheckResponse(r Result) CheckResponse {
	out := CheckResponse{
		Status:   r.Status.String(),
		Message:  r.Message,
		Duration: r.Duration.String(),
		Details:  r.Details,
	}
	if r.Error != nil {
		out.Error = r.Error.Error()
	}
	return out
}

// LivenessHandler answers 200 while the process is serving.
func LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
}

// ReadinessHandler answers 503 while any registered check is unhealthy.
func ReadinessHandler(agg *Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		status := OverallStatus(agg.CheckAll(ctx))
		switch status {
		case StatusHealthy:
			c.String(http.StatusOK, "OK")
		case StatusDegraded:
			c.String(http.StatusOK, "DEGRADED")
		default:
			c.String(http.StatusServiceUnavailable, "UNHEALTHY")
		}
	}
}

// DetailedHandler reports every check and, when history is non-nil, the
// trailing probe window.
func DetailedHandler(agg *Aggregator, history func() []ProbeResult) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		results := agg.CheckAll(ctx)
		status := OverallStatus(results)

		resp := HealthResponse{
			Status:    status.String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    make(map[string]CheckResponse, len(results)),
		}
		for name, r := range results {
			resp.Checks[name] = toCheckResponse(r)
		}
		if history != nil {
			for _, p := range history() {
				pr := ProbeResponse{
					Time:     p.Time.UTC().Format(time.RFC3339Nano),
					Session:  p.SessionID,
					Alive:    p.Alive,
					Duration: p.Duration.String(),
				}
				if p.Err != nil {
					pr.Error = p.Err.Error()
				}
				resp.Probes = append(resp.Probes, pr)
			}
		}

		c.JSON(httpStatus(status), resp)
	}
}

// SingleCheckHandler reports the checker named by the :name path parameter.
func SingleCheckHandler(agg *Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		r, err := agg.Check(ctx, c.Param("name"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(httpStatus(r.Status), toCheckResponse(r))
	}
}

// RegisterRoutes mounts the health endpoints on r. The probes stay public;
// guard, when given, runs in front of the detailed endpoints.
func RegisterRoutes(r gin.IRouter, agg *Aggregator, history func() []ProbeResult, guard ...gin.HandlerFunc) {
	r.GET("/healthz", LivenessHandler())
	r.GET("/readyz", ReadinessHandler(agg))

	detail := r.Group("", guard...)
	detail.GET("/health", DetailedHandler(agg, history))
	detail.GET("/health/:name", SingleCheckHandler(agg))
}
