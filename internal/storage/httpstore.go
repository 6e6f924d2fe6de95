package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/alexanderramin/boardsync/internal/logging"
)

// HTTPDocStore talks to a boardsync document server. Documents are read
// and written over REST; Watch holds a WebSocket per document and
// reconnects until stopped.
type HTTPDocStore struct {
	base   *url.URL
	secret string
	client string
	http   *http.Client
	log    logrus.FieldLogger

	mu    sync.Mutex
	token string

	// ReconnectDelay is the pause between WebSocket reconnect attempts.
	ReconnectDelay time.Duration
}

func NewHTTPDocStore(baseURL, secret, clientName string, log logrus.FieldLogger) (*HTTPDocStore, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url must be http or https, got %q", baseURL)
	}
	return &HTTPDocStore{
		base:           u,
		secret:         secret,
		client:         clientName,
		http:           &http.Client{Timeout: 15 * time.Second},
		log:            logging.OrDiscard(log).WithField("backend", "http"),
		ReconnectDelay: 2 * time.Second,
	}, nil
}

// Token returns a bearer token, requesting one when none is cached.
func (h *HTTPDocStore) Token(ctx context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.token != "" {
		return h.token, nil
	}

	body, _ := json.Marshal(map[string]string{"secret": h.secret, "client": h.client})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.base.String()+"/api/auth/token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("requesting token: %s", resp.Status)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding token: %w", err)
	}
	h.token = out.Token
	return h.token, nil
}

func (h *HTTPDocStore) forgetToken() {
	h.mu.Lock()
	h.token = ""
	h.mu.Unlock()
}

// Do sends an authenticated request to path, retrying once with a fresh
// token on 401.
func (h *HTTPDocStore) Do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		token, err := h.Token(ctx)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, method, h.base.String()+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := h.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			resp.Body.Close()
			h.forgetToken()
			continue
		}
		return resp, nil
	}
}

func docPath(collection, id string) string {
	return "/api/docs/" + url.PathEscape(collection) + "/" + url.PathEscape(id)
}

func (h *HTTPDocStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	resp, err := h.Do(ctx, http.MethodGet, docPath(collection, id), nil)
	if err != nil {
		return nil, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	case http.StatusNotFound:
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrDocNotFound)
	default:
		return nil, fmt.Errorf("getting %s/%s: %s", collection, id, resp.Status)
	}
}

func (h *HTTPDocStore) Put(ctx context.Context, collection, id string, doc json.RawMessage) error {
	resp, err := h.Do(ctx, http.MethodPut, docPath(collection, id), doc)
	if err != nil {
		return fmt.Errorf("putting %s/%s: %w", collection, id, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("putting %s/%s: %s", collection, id, resp.Status)
	}
	return nil
}

// Watch dials the document's WebSocket. The first dial must succeed;
// later disconnects are retried every ReconnectDelay until stop.
func (h *HTTPDocStore) Watch(ctx context.Context, collection, id string, fn func(json.RawMessage)) (func(), error) {
	wctx, cancel := context.WithCancel(ctx)
	conn, err := h.dial(wctx, collection, id)
	if err != nil {
		cancel()
		return nil, err
	}

	log := h.log.WithFields(logrus.Fields{"collection": collection, "id": id})
	live := &liveConn{conn: conn}
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			current := live.get()
			for {
				_, data, err := current.ReadMessage()
				if err != nil {
					if wctx.Err() == nil {
						log.WithError(err).WithField("event", logging.EventSyncSubscribeFailed).Warn("watch connection lost")
					}
					break
				}
				fn(json.RawMessage(data))
			}
			current.Close()

			for {
				select {
				case <-wctx.Done():
					return
				case <-time.After(h.ReconnectDelay):
				}
				next, err := h.dial(wctx, collection, id)
				if err != nil {
					log.WithError(err).Debug("reconnecting watch")
					continue
				}
				if !live.swap(wctx, next) {
					return
				}
				break
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			live.close()
			<-done
		})
	}, nil
}

// liveConn is the watch connection shared between the read loop and stop.
type liveConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (l *liveConn) get() *websocket.Conn {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn
}

// swap installs next unless ctx is already done, in which case stop has
// closed the old conn and next is closed here instead.
func (l *liveConn) swap(ctx context.Context, next *websocket.Conn) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ctx.Err() != nil {
		next.Close()
		return false
	}
	l.conn = next
	return true
}

func (l *liveConn) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conn.Close()
}

func (h *HTTPDocStore) dial(ctx context.Context, collection, id string) (*websocket.Conn, error) {
	token, err := h.Token(ctx)
	if err != nil {
		return nil, err
	}
	u := *h.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path += docPath(collection, id) + "/ws"

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			h.forgetToken()
		}
		return nil, fmt.Errorf("dialing %s: %w", u.Redacted(), err)
	}
	return conn, nil
}

func (h *HTTPDocStore) Close() error {
	h.http.CloseIdleConnections()
	return nil
}
