package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/uptrace/bunrouter"
	"github.com/wcharczuk/go-chart/v2"
	"go.uber.org/zap"

	"github.com/aura-ops/aura/internal/kpi"
	"github.com/aura-ops/aura/internal/ledger"
	"github.com/aura-ops/aura/pkg/utils"
)

const (
	topChannelCount   = 5
	recentRecordCount = 10
)

// recordRow is a ledger record prepared for table rendering.
type recordRow struct {
	Time        string
	Action      string
	ActionClass string
	Target      string
	Moderator   string
	Reason      string
}

// dashboardData feeds the staff dashboard template.
type dashboardData struct {
	BotReady       bool
	Uptime         string
	NetChange      int
	Joined30       int
	Left30         int
	ChurnRate      string
	ActiveChatters int
	TopChannels    []kpi.ChannelCount
	RecentRows     []recordRow
	SearchQuery    string
	Searched       bool
	SearchRows     []recordRow
}

// handleStatus renders the public landing page.
func (s *Server) handleStatus(w http.ResponseWriter, req bunrouter.Request) error {
	data := struct {
		StatusText  string
		StatusColor string
		InviteURL   string
	}{
		StatusText:  "Tuning In...",
		StatusColor: "bg-yellow-500",
		InviteURL:   s.cfg.Discord.InviteURL,
	}
	if s.connected() {
		data.StatusText = "Online and Cozy"
		data.StatusColor = "bg-green-500"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return statusTemplate.Execute(w, data)
}

// handleDashboard renders the staff dashboard; a POST carries a ledger
// search query.
func (s *Server) handleDashboard(w http.ResponseWriter, req bunrouter.Request) error {
	membership30d := s.kpi.NetMembershipChange(30 * 24 * time.Hour)

	data := dashboardData{
		BotReady:       s.connected(),
		Uptime:         utils.FormatUptime(s.uptime()),
		NetChange:      membership30d.Net,
		Joined30:       membership30d.Joined,
		Left30:         membership30d.Left,
		ChurnRate:      fmt.Sprintf("%.1f%%", s.kpi.ChurnRate(7*24*time.Hour)),
		ActiveChatters: s.kpi.ActiveChatterCount(),
		TopChannels:    s.kpi.TopChannels(topChannelCount),
		RecentRows:     recordRows(s.kpi.RecentRecords(recentRecordCount)),
	}

	if req.Method == http.MethodPost {
		if err := req.ParseForm(); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return nil
		}

		query := strings.TrimSpace(req.FormValue("user_id_search"))
		if query != "" {
			data.SearchQuery = query
			data.Searched = true
			data.SearchRows = recordRows(s.kpi.SearchLedger(query))
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return dashboardTemplate.Execute(w, data)
}

// handleMetricsData returns the latest metrics snapshot as JSON.
func (s *Server) handleMetricsData(w http.ResponseWriter, req bunrouter.Request) error {
	snapshot := s.metrics.View()

	body, err := sonic.Marshal(snapshot)
	if err != nil {
		s.logger.Error("Failed to marshal metrics snapshot", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil
	}

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(body)
	return err
}

// handleChannelChart renders the top channels as a PNG bar chart.
func (s *Server) handleChannelChart(w http.ResponseWriter, req bunrouter.Request) error {
	channels := s.kpi.TopChannels(topChannelCount)
	if len(channels) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}

	bars := make([]chart.Value, 0, len(channels))
	for _, channel := range channels {
		bars = append(bars, chart.Value{
			Value: float64(channel.Count),
			Label: "#" + channel.ChannelID,
		})
	}

	graph := chart.BarChart{
		Title:    "Messages per Channel",
		Width:    800,
		Height:   400,
		BarWidth: 60,
		Bars:     bars,
	}

	w.Header().Set("Content-Type", "image/png")
	if err := graph.Render(chart.PNG, w); err != nil {
		s.logger.Error("Failed to render channel chart", zap.Error(err))
		return err
	}

	return nil
}

func recordRows(records []ledger.Record) []recordRow {
	rows := make([]recordRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, recordRow{
			Time:        displayTime(rec.Timestamp),
			Action:      string(rec.Action),
			ActionClass: actionClass(rec.Action),
			Target:      fmt.Sprintf("%s (%s)", rec.TargetUsername, rec.TargetID),
			Moderator:   moderatorName(rec.ModeratorID),
			Reason:      rec.Reason,
		})
	}

	return rows
}

func displayTime(stamp string) string {
	t, err := utils.ParseStamp(stamp)
	if err != nil {
		return stamp
	}
	return t.Format("2006-01-02 15:04:05")
}

func actionClass(action ledger.Action) string {
	if action == ledger.ActionBan || action == ledger.ActionKick {
		return "bg-red-800 text-red-300"
	}
	return "bg-gray-700 text-gray-300"
}

func moderatorName(moderatorID string) string {
	if moderatorID == "" {
		return "System"
	}
	return moderatorID
}
