package v1

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	"github.com/hrygo/honeypot/plugin/ai/intel"
	"github.com/hrygo/honeypot/server/internal/errors"
	"github.com/hrygo/honeypot/server/service/engagement"
)

const (
	defaultReportLimit = 50
	maxReportLimit     = 256
)

func parseLimit(c echo.Context) int {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		return defaultReportLimit
	}
	return min(limit, maxReportLimit)
}

// ListReports returns delivered reports, newest first.
// GET /api/honey-pot/reports?limit=N
func (s *APIV1Service) ListReports(c echo.Context) error {
	reports := s.Engagement.Reports(parseLimit(c))
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"reports": reports,
	})
}

// ReportsFeed renders delivered reports as an Atom feed.
// GET /api/honey-pot/reports.atom
func (s *APIV1Service) ReportsFeed(c echo.Context) error {
	reports := s.Engagement.Reports(parseLimit(c))
	base := c.Scheme() + "://" + c.Request().Host + "/api/honey-pot"

	feed := &feeds.Feed{
		Title:       "Honeypot engagement reports",
		Link:        &feeds.Link{Href: base + "/reports"},
		Description: "Final reports delivered for scam conversations",
		Created:     time.Now(),
	}
	if len(reports) > 0 {
		feed.Updated = reports[0].CreatedAt
	}

	for _, r := range reports {
		feed.Items = append(feed.Items, reportItem(base, r))
	}

	atom, err := feed.ToAtom()
	if err != nil {
		s.Logger.Error("failed to render reports feed", "error", err)
		return c.NoContent(http.StatusInternalServerError)
	}
	return c.Blob(http.StatusOK, "application/atom+xml; charset=utf-8", []byte(atom))
}

func reportItem(base string, r *engagement.Report) *feeds.Item {
	return &feeds.Item{
		Id:          "urn:honeypot:report:" + r.ID,
		Title:       fmt.Sprintf("Session %s: %d messages exchanged", r.SessionID, r.TotalMessagesExchanged),
		Link:        &feeds.Link{Href: base + "/sessions/" + url.PathEscape(r.SessionID)},
		Description: r.AgentNotes,
		Content:     describeIntel(r.Intelligence),
		Created:     r.CreatedAt,
	}
}

func describeIntel(s intel.Snapshot) string {
	var b strings.Builder
	for _, field := range []struct {
		label  string
		values []string
	}{
		{"UPI IDs", s.UPIIDs},
		{"Bank accounts", s.BankAccounts},
		{"Phishing links", s.PhishingLinks},
		{"Phone numbers", s.PhoneNumbers},
		{"Suspicious keywords", s.SuspiciousKeywords},
	} {
		if len(field.values) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", field.label, strings.Join(field.values, ", "))
	}
	return strings.TrimSpace(b.String())
}

// ListSessions returns tracked conversations, most recently active first.
// GET /api/honey-pot/sessions?limit=N
func (s *APIV1Service) ListSessions(c echo.Context) error {
	sessions, err := s.Sessions.ListSessions(c.Request().Context(), parseLimit(c))
	if err != nil {
		return renderError(c, errors.FromContext(err))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "success",
		"sessions": sessions,
	})
}

// GetSession returns the tracked state of one conversation.
// GET /api/honey-pot/sessions/:id
func (s *APIV1Service) GetSession(c echo.Context) error {
	summary, ok := s.Sessions.Get(c.Request().Context(), c.Param("id"))
	if !ok {
		return renderError(c, errors.NotFound("session", c.Param("id")))
	}
	return c.JSON(http.StatusOK, summary)
}
