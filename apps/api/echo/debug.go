package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studytrack/studytrack/core"
)

type CMSStatus struct {
	Configured   bool   `json:"configured"`
	URL          string `json:"url"`
	APITokenSet  bool   `json:"apiTokenSet"`
	JWTSecretSet bool   `json:"jwtSecretSet"`
	Reachable    bool   `json:"reachable"`
	Status       int    `json:"status,omitempty"`
	LatencyMS    int64  `json:"latencyMs"`
	Error        string `json:"error,omitempty"`
}

// registerDebugAPI exposes the CMS connection state; debug mode only.
func registerDebugAPI(g *echo.Group, conf *core.Config, cms CMSPinger) {
	g.GET("/debug/cms", func(ctx echo.Context) error {
		status := CMSStatus{
			Configured:   conf.CMSConfigured(),
			URL:          conf.CMS.URL,
			APITokenSet:  conf.CMS.APIToken != "",
			JWTSecretSet: conf.CMS.JWTSecret != "",
		}
		if cms != nil {
			res, err := cms.Ping(ctx.Request().Context())
			status.Status = res.Status
			status.LatencyMS = res.Latency.Milliseconds()
			status.Reachable = err == nil
			if err != nil {
				status.Error = err.Error()
			}
		}
		return ctx.JSON(http.StatusOK, status)
	})
}
