package live

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/reportkit-dev/reportkit/pkg/filter"
	"github.com/reportkit-dev/reportkit/pkg/notice"
	"github.com/reportkit-dev/reportkit/pkg/report"
)

// Config configures a live report server.
type Config struct {
	// Provider fetches the report data. Required.
	Provider report.Provider

	// AllowedFilterKeys whitelists URL parsing and filter controls.
	AllowedFilterKeys []string

	// Options supplies the valid filter values.
	Options filter.OptionSource

	// CheckOrigin overrides the WebSocket origin check. Defaults to
	// same-origin (the websocket package default).
	CheckOrigin func(r *http.Request) bool

	// Logger defaults to slog.Default() scoped to this component.
	Logger *slog.Logger
}

// Server upgrades connections and runs one session per connection.
type Server struct {
	cfg      Config
	upgrader websocket.Upgrader
}

// NewServer creates a live report server.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default().With("component", "live")
	}
	return &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}
}

// HandleWebSocket upgrades the request and serves the session until the
// client disconnects.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.cfg.Logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	sess := newSession(s.cfg, conn)
	sess.run(r.Context())
}

// session binds one View to one WebSocket connection. The view's
// Navigator, Notifier and OnUpdate hook all funnel into sendPatch, so
// every state effect reaches the client as a patch.
type session struct {
	cfg    Config
	conn   *websocket.Conn
	view   *report.View
	logger *slog.Logger

	// writeMu serializes writes; view callbacks fire from fetch
	// goroutines as well as the read loop.
	writeMu sync.Mutex
}

func newSession(cfg Config, conn *websocket.Conn) *session {
	sess := &session{cfg: cfg, conn: conn, logger: cfg.Logger}

	view, err := report.NewView(report.Config{
		Provider:          cfg.Provider,
		AllowedFilterKeys: cfg.AllowedFilterKeys,
		Options:           cfg.Options,
		Navigator: report.NavigatorFunc(func(query string, mode report.Mode) {
			sess.sendPatch(Patch{Type: PatchURL, Mode: mode.String(), Query: query})
		}),
		Notifier: notice.Func(func(n notice.Notice) {
			sess.sendPatch(Patch{Type: PatchNotice, Level: string(n.Level), Message: n.Message})
		}),
		OnUpdate: func(snap report.Snapshot) {
			sess.sendPatch(Patch{
				Type:    PatchData,
				Columns: snap.Columns,
				Rows:    snap.Rows,
				Total:   snap.Total,
				Page:    snap.State.Page,
				Limit:   snap.State.Limit,
			})
			sess.sendPatch(Patch{Type: PatchLoading, Loading: false})
		},
		Logger: cfg.Logger,
	})
	if err != nil {
		// Only a nil provider reaches here; refuse the session below.
		sess.logger.Error("session view setup failed", "error", err)
		return sess
	}
	sess.view = view
	return sess
}

func (s *session) run(ctx context.Context) {
	defer s.conn.Close()
	if s.view == nil {
		return
	}

	for {
		var ev Event
		if err := s.conn.ReadJSON(&ev); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("session read ended", "error", err)
			}
			return
		}
		s.handle(ctx, ev)
	}
}

func (s *session) handle(ctx context.Context, ev Event) {
	var err error
	switch ev.Type {
	case EventInit:
		err = s.view.Init(ctx, ev.Query)
		if err == nil {
			s.sendPatch(Patch{Type: PatchLoading, Loading: true})
		}
	case EventSetPage:
		if ev.Page == nil {
			return
		}
		err = s.changed(s.view.SetPage(ctx, *ev.Page))
	case EventSetLimit:
		if ev.Limit == nil {
			return
		}
		err = s.changed(s.view.SetLimit(ctx, *ev.Limit))
	case EventOpenFilters:
		err = s.view.OpenFilters()
		if err == nil {
			s.sendFilters()
		}
	case EventStageFilter:
		err = s.view.StageFilter(ev.Key, ev.Values)
		if err == nil {
			s.sendFilters()
		}
	case EventApplyFilters:
		err = s.changed(s.view.ApplyFilters(ctx))
	case EventClearFilters:
		err = s.changed(s.view.ClearFilters(ctx))
	case EventCloseFilters:
		s.view.CloseFilters()
		s.sendPatch(Patch{Type: PatchFilters, Open: false})
	default:
		s.logger.Debug("unknown event", "type", ev.Type)
		return
	}

	if err != nil {
		s.logger.Debug("event rejected", "type", ev.Type, "error", err)
	}
}

// changed follows a state transition: when it was accepted, the view may
// now be loading, which the client needs to know before data arrives.
func (s *session) changed(err error) error {
	if err != nil {
		return err
	}
	if s.view.Loading() {
		s.sendPatch(Patch{Type: PatchLoading, Loading: true})
	}
	return nil
}

func (s *session) sendFilters() {
	staged := s.view.StagedFilters()
	fields := make([]FilterField, 0, len(s.cfg.AllowedFilterKeys))
	for _, key := range s.cfg.AllowedFilterKeys {
		field := FilterField{Key: key, Selected: staged.Get(key)}
		if s.cfg.Options != nil {
			field.Title = s.cfg.Options.Title(key)
			field.Options = s.cfg.Options.Options(key)
		}
		fields = append(fields, field)
	}
	s.sendPatch(Patch{Type: PatchFilters, Open: true, Fields: fields})
}

func (s *session) sendPatch(p Patch) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(p); err != nil {
		s.logger.Debug("patch write failed", "type", p.Type, "error", err)
	}
}
