package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/yegors/co-wx/internal/config"
	"github.com/yegors/co-wx/internal/geo"
	"github.com/yegors/co-wx/internal/locale"
	"github.com/yegors/co-wx/internal/render"
	"github.com/yegors/co-wx/internal/session"
	"github.com/yegors/co-wx/internal/websocket"
	"github.com/yegors/co-wx/pkg/logger"
)

type textPayload struct {
	Text string `json:"text"`
}

type viewPayload struct {
	View string `json:"view"`
}

type dayPayload struct {
	Index *int `json:"index"`
}

// SessionHandler runs one session.Controller per websocket client and
// streams its display trees back to the browser
type SessionHandler struct {
	ctx         context.Context
	backend     session.Backend
	opts        session.Options
	defaultLang string
	logger      *logger.Logger

	mu       sync.Mutex
	sessions map[string]*session.Controller
}

// SessionOptions maps the UI and geolocation config onto controller options
func SessionOptions(cfg *config.Config) session.Options {
	opts := session.DefaultOptions()
	opts.MinQueryLength = cfg.UI.MinQueryLength
	opts.SuggestDelay = time.Duration(cfg.UI.SuggestDebounceMs) * time.Millisecond
	opts.SearchDelay = time.Duration(cfg.UI.SearchDebounceMs) * time.Millisecond
	opts.RefreshInterval = time.Duration(cfg.UI.UpdatedLabelInterval) * time.Second
	if cfg.Geolocation.Enabled {
		opts.Fallback = &geo.Position{Lat: cfg.Geolocation.Latitude, Lon: cfg.Geolocation.Longitude}
	}
	return opts
}

// NewSessionHandler creates a handler whose controllers live no longer than ctx
func NewSessionHandler(ctx context.Context, backend session.Backend, opts session.Options, defaultLang string, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		ctx:         ctx,
		backend:     backend,
		opts:        opts,
		defaultLang: defaultLang,
		logger:      log.Named("sessions"),
		sessions:    make(map[string]*session.Controller),
	}
}

// OnConnect starts a controller for the client
func (h *SessionHandler) OnConnect(client *websocket.Client) {
	lang := client.Lang()
	if lang == "" {
		lang = h.defaultLang
	}
	loc := locale.For(lang)

	emit := func(kind string, s session.State) {
		msg := &websocket.Message{Type: websocket.MessageTypeRender, Data: render.Page(s, loc)}
		if kind == session.UpdateSuggestions {
			msg = &websocket.Message{Type: websocket.MessageTypeSuggestions, Data: render.Suggestions(s)}
		}
		client.SendMessage(msg)
	}

	ctrl := session.NewController(h.ctx, h.backend, h.opts, emit, h.logger)

	h.mu.Lock()
	h.sessions[client.ID()] = ctrl
	count := len(h.sessions)
	h.mu.Unlock()

	h.logger.Info("Session started",
		logger.String("client_id", client.ID()),
		logger.String("lang", loc.Language()),
		logger.Int("sessions", count))

	ctrl.Start()
}

// HandleMessage routes one browser event to the client's controller
func (h *SessionHandler) HandleMessage(client *websocket.Client, messageType string, data json.RawMessage) error {
	ctrl := h.controller(client.ID())
	if ctrl == nil {
		return fmt.Errorf("no session for client %s", client.ID())
	}

	switch messageType {
	case websocket.MessageTypeInput, websocket.MessageTypeSubmit,
		websocket.MessageTypeBlur, websocket.MessageTypeSelectSuggestion:
		var p textPayload
		if err := decode(data, &p); err != nil {
			return err
		}
		switch messageType {
		case websocket.MessageTypeInput:
			ctrl.Input(p.Text)
		case websocket.MessageTypeSubmit:
			ctrl.Submit(p.Text)
		case websocket.MessageTypeBlur:
			ctrl.Blur(p.Text)
		default:
			ctrl.SelectSuggestion(p.Text)
		}

	case websocket.MessageTypeGeolocation:
		var report geo.Report
		if err := decode(data, &report); err != nil {
			return err
		}
		ctrl.Geolocation(report)

	case websocket.MessageTypeRefresh:
		ctrl.Refresh()

	case websocket.MessageTypeView:
		var p viewPayload
		if err := decode(data, &p); err != nil {
			return err
		}
		mode := session.ViewMode(p.View)
		if !mode.Valid() {
			return fmt.Errorf("unknown view %q", p.View)
		}
		ctrl.SetView(mode)

	case websocket.MessageTypeSelectDay:
		var p dayPayload
		if err := decode(data, &p); err != nil {
			return err
		}
		if p.Index == nil {
			return fmt.Errorf("select_day requires an index")
		}
		ctrl.SelectDay(*p.Index)

	case websocket.MessageTypeBack:
		ctrl.Back()

	case websocket.MessageTypeDismiss:
		ctrl.Dismiss()

	default:
		return fmt.Errorf("unknown message type: %s", messageType)
	}
	return nil
}

// OnDisconnect stops and forgets the client's controller
func (h *SessionHandler) OnDisconnect(client *websocket.Client) {
	h.mu.Lock()
	ctrl := h.sessions[client.ID()]
	delete(h.sessions, client.ID())
	h.mu.Unlock()

	if ctrl != nil {
		ctrl.Stop()
		h.logger.Info("Session ended", logger.String("client_id", client.ID()))
	}
}

// SessionCount returns the number of live sessions
func (h *SessionHandler) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Close stops every live controller
func (h *SessionHandler) Close() {
	h.mu.Lock()
	ctrls := make([]*session.Controller, 0, len(h.sessions))
	for id, ctrl := range h.sessions {
		ctrls = append(ctrls, ctrl)
		delete(h.sessions, id)
	}
	h.mu.Unlock()

	for _, ctrl := range ctrls {
		ctrl.Stop()
	}
}

func (h *SessionHandler) controller(id string) *session.Controller {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessions[id]
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
