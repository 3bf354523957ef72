package caddy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
)

// renderRejection writes the 400 response that replaces a rejected redirect.
// Every header set for the discarded redirect is dropped first, cookies
// included.
func (g *RedirectGuard) renderRejection(w http.ResponseWriter, r *http.Request, resp *domain.Response) {
	h := w.Header()
	for name := range h {
		delete(h, name)
	}
	h.Set("Cache-Control", "no-store")
	h.Set("X-Content-Type-Options", "nosniff")
	if resp.IncidentID != "" {
		h.Set("X-Incident-Id", resp.IncidentID)
	}

	appErr := resp.Error
	if appErr == nil {
		appErr = domain.ServiceError("The redirect could not be completed")
	}
	statusCode := resp.StatusCode
	if statusCode == 0 || domain.IsRedirectStatus(statusCode) {
		statusCode = appErr.Code.HTTPStatus()
	}

	switch g.responseFormat(r) {
	case ResponseFormatJSON:
		h.Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(domain.NewJSONErrorResponse(appErr, resp.IncidentID)); err != nil {
			g.getLogger().Debug("write rejection body", zap.Error(err))
		}

	case ResponseFormatHTML:
		if g.templateRenderer == nil {
			g.renderText(w, statusCode, appErr, resp.IncidentID)
			return
		}
		h.Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(statusCode)
		// RenderError uses html/template which auto-escapes to prevent XSS
		if err := g.templateRenderer.RenderError(w, ErrorData{
			Title:      appErr.Code.Title(),
			Message:    appErr.Message,
			IncidentID: resp.IncidentID,
		}); err != nil {
			g.getLogger().Debug("write rejection body", zap.Error(err))
		}

	default:
		g.renderText(w, statusCode, appErr, resp.IncidentID)
	}
}

func (g *RedirectGuard) renderText(w http.ResponseWriter, statusCode int, appErr *domain.AppError, incidentID string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	body := appErr.Message + "\n"
	if incidentID != "" {
		body += fmt.Sprintf("Incident ID: %s\n", incidentID)
	}
	_, _ = w.Write([]byte(body))
}

// responseFormat resolves "auto" from the Accept header.
func (g *RedirectGuard) responseFormat(r *http.Request) string {
	if g.ResponseFormat != "" && g.ResponseFormat != ResponseFormatAuto {
		return g.ResponseFormat
	}
	accept := r.Header.Get("Accept")
	switch {
	case strings.Contains(accept, "application/json"):
		return ResponseFormatJSON
	case strings.Contains(accept, "text/html"):
		return ResponseFormatHTML
	default:
		return ResponseFormatText
	}
}
