package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/navpath"
	"github.com/aretw0/sitenav/pkg/stream"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
)

// Message types exchanged with a remote browser.
const (
	MessageHello    = "hello"    // client -> server: initial location
	MessagePopState = "popstate" // client -> server: back/forward
	MessageNavigate = "navigate" // client -> server: link click
	MessageWelcome  = "welcome"  // server -> client: session id
	MessagePush     = "push"     // server -> client: history.pushState
	MessageTarget   = "target"   // server -> client: published target
)

// Message is the websocket wire format. URL carries "?nav=" hrefs.
type Message struct {
	Type   string         `json:"type"`
	URL    string         `json:"url,omitempty"`
	Client string         `json:"client,omitempty"`
	Target *domain.Target `json:"target,omitempty"`
}

const writeTimeout = 5 * time.Second

// RemoteBrowser implements ports.BrowserClient over a websocket connection to a page.
// The page reports its location and popstate events; pushes are forwarded to it.
type RemoteBrowser struct {
	ID   string
	conn *websocket.Conn

	mu      sync.Mutex
	current domain.UrlTarget
	writeMu sync.Mutex

	pops      *stream.Subject[domain.UrlTarget]
	navigates *stream.Subject[domain.UrlTarget]
	logger    *slog.Logger
}

// AcceptBrowser upgrades the request and waits for the page's hello message.
// Cross-origin pages are refused unless their host matches one of originPatterns.
func AcceptBrowser(w http.ResponseWriter, r *http.Request, logger *slog.Logger, originPatterns ...string) (*RemoteBrowser, error) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  originPatterns,
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		return nil, fmt.Errorf("websocket accept: %w", err)
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()
	var hello Message
	if err := wsjson.Read(ctx, conn, &hello); err != nil {
		conn.Close(websocket.StatusProtocolError, "hello expected")
		return nil, fmt.Errorf("read hello: %w", err)
	}
	if hello.Type != MessageHello {
		conn.Close(websocket.StatusProtocolError, "hello expected")
		return nil, fmt.Errorf("unexpected first message %q", hello.Type)
	}

	id := uuid.NewString()
	b := &RemoteBrowser{
		ID:        id,
		conn:      conn,
		current:   navpath.ParseURL(hello.URL),
		pops:      stream.NewEventSubject[domain.UrlTarget](),
		navigates: stream.NewEventSubject[domain.UrlTarget](),
		logger:    logger.With("client_id", id),
	}
	if err := b.send(r.Context(), Message{Type: MessageWelcome, Client: b.ID}); err != nil {
		conn.Close(websocket.StatusInternalError, "")
		return nil, err
	}
	return b, nil
}

// ParseURL returns the page's current location.
func (b *RemoteBrowser) ParseURL() domain.UrlTarget {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// PushState asks the page to push target.
func (b *RemoteBrowser) PushState(ctx context.Context, target domain.UrlTarget) error {
	target.Issuer = ""
	target.ForceReload = false
	b.mu.Lock()
	b.current = target
	b.mu.Unlock()
	return b.send(ctx, Message{Type: MessagePush, URL: navpath.Href(target)})
}

// PopStates streams the page's popstate events.
func (b *RemoteBrowser) PopStates() (<-chan domain.UrlTarget, func()) {
	return b.pops.Subscribe()
}

// Navigations streams the navigations requested by the page (link clicks).
func (b *RemoteBrowser) Navigations() (<-chan domain.UrlTarget, func()) {
	return b.navigates.Subscribe()
}

// SendTarget forwards a published target to the page.
func (b *RemoteBrowser) SendTarget(ctx context.Context, t domain.Target) error {
	return b.send(ctx, Message{Type: MessageTarget, Target: &t})
}

// Run reads the page's messages until the connection closes or ctx is done.
func (b *RemoteBrowser) Run(ctx context.Context) error {
	defer b.pops.Close()
	defer b.navigates.Close()
	for {
		var msg Message
		if err := wsjson.Read(ctx, b.conn, &msg); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}

		target := navpath.ParseURL(msg.URL)
		switch msg.Type {
		case MessagePopState:
			b.mu.Lock()
			b.current = target
			b.mu.Unlock()
			b.pops.Next(target)
		case MessageNavigate:
			b.navigates.Next(target)
		default:
			b.logger.Warn("ignoring websocket message", "type", msg.Type)
		}
	}
}

// Close closes the connection.
func (b *RemoteBrowser) Close() error {
	return b.conn.Close(websocket.StatusNormalClosure, "")
}

func (b *RemoteBrowser) send(ctx context.Context, msg Message) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, b.conn, msg); err != nil {
		return fmt.Errorf("write %s message: %w", msg.Type, err)
	}
	return nil
}

// ServeSession handles the GET /ws request: it binds a new router to the connected page
// and streams its targets back until the page disconnects.
func (s *Server) ServeSession(w http.ResponseWriter, r *http.Request) {
	browser, err := AcceptBrowser(w, r, s.logger, s.origins...)
	if err != nil {
		s.logger.Warn("websocket session rejected", "error", err)
		return
	}
	defer browser.Close()

	router, err := s.sessions(browser)
	if err != nil {
		s.logger.Error("failed to create session router", "client_id", browser.ID, "error", err)
		return
	}
	defer router.Close()
	s.logger.Info("websocket session started", "client_id", browser.ID, "path", browser.ParseURL().Path)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		targets, stop := router.Targets()
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-targets:
				if !ok {
					return
				}
				if err := browser.SendTarget(ctx, t); err != nil {
					s.logger.Debug("failed to send target", "client_id", browser.ID, "error", err)
					return
				}
			}
		}
	}()
	go func() {
		defer wg.Done()
		navs, stop := browser.Navigations()
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case target, ok := <-navs:
				if !ok {
					return
				}
				target.Issuer = domain.IssuerLink
				go func() {
					if _, err := router.NavigateTo(ctx, target); err != nil && !errors.Is(err, domain.ErrSuperseded) {
						s.logger.Debug("session navigation failed", "client_id", browser.ID, "error", err)
					}
				}()
			}
		}
	}()

	if err := browser.Run(ctx); err != nil {
		s.logger.Debug("websocket session ended", "client_id", browser.ID, "error", err)
	}
	cancel()
	wg.Wait()
	s.logger.Info("websocket session closed", "client_id", browser.ID)
}
