package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/net/websocket"

	"github.com/robotalks/deskbridge/pkg/l1"
	"github.com/robotalks/deskbridge/pkg/l1/comm"
)

// Connector implements l1.Connector for a controller serving WebSocket
// at a URL like ws://host:port/l1.
type Connector struct {
	URL *url.URL
}

// NewConnector creates a Connector.
func NewConnector(endpoint string) (*Connector, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = DefaultPath
	}
	return &Connector{URL: u}, nil
}

func (c *Connector) httpURL(suffix string) string {
	u := *c.URL
	u.Scheme = "http"
	if c.URL.Scheme == "wss" {
		u.Scheme = "https"
	}
	u.Path += suffix
	return u.String()
}

// Discover implements l1.Connector.
func (c *Connector) Discover(ctx context.Context) ([]l1.ControllerInfo, error) {
	req, err := http.NewRequest(http.MethodGet, c.httpURL("/meta"), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discover %s: %s", c.URL, resp.Status)
	}
	var infoList []l1.ControllerInfo
	if err := json.NewDecoder(resp.Body).Decode(&infoList); err != nil {
		return nil, err
	}
	return infoList, nil
}

// Connect implements l1.Connector. A WebSocket endpoint serves a single
// controller so ref is not used.
func (c *Connector) Connect(ctx context.Context, ref l1.ControllerRef) (l1.ControllerConn, error) {
	ws, err := websocket.Dial(c.URL.String(), "", c.httpURL(""))
	if err != nil {
		return nil, err
	}
	conn := &ControllerConn{ws: ws}
	conn.Init(New(ws))
	return conn, nil
}

// ControllerConn implements l1.ControllerConn over WebSocket.
type ControllerConn struct {
	comm.ControllerConn
	ws *websocket.Conn
}

// Close implements io.Closer.
func (c *ControllerConn) Close() error {
	return c.ws.Close()
}
