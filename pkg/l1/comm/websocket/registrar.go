package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/deskbridge/pkg/framework"
	"github.com/robotalks/deskbridge/pkg/l1"
	"github.com/robotalks/deskbridge/pkg/l1/comm"
)

// DefaultPath is where the WebSocket endpoint is served. The controller
// info is served as JSON on DefaultPath/meta.
const DefaultPath = "/l1"

// Registrar implements l1.Registrar by serving WebSocket clients.
// Every client receives all events and may send commands.
type Registrar struct {
	Addr string
	Path string
	Info l1.ControllerInfo

	lock    sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	reg  comm.Registrar
	conn *websocket.Conn
}

// NewRegistrar creates a Registrar listening on addr.
func NewRegistrar(addr string, info l1.ControllerInfo) *Registrar {
	return &Registrar{
		Addr:    addr,
		Path:    DefaultPath,
		Info:    info,
		clients: make(map[*client]struct{}),
	}
}

// URL returns the URL for connectors on this host.
func (r *Registrar) URL() string {
	addr := r.Addr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "ws://" + addr + r.path()
}

func (r *Registrar) path() string {
	if r.Path == "" {
		return DefaultPath
	}
	return r.Path
}

// Handler creates the http.Handler serving the endpoint. Commands are
// posted to the loop found in ctx.
func (r *Registrar) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(r.path(), websocket.Server{Handler: func(conn *websocket.Conn) {
		r.serveClient(ctx, conn)
	}})
	mux.HandleFunc(r.path()+"/meta", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]l1.ControllerInfo{r.Info})
	})
	return mux
}

// SendEvent implements l1.Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	var errs fx.AggregatedError
	for _, c := range r.snapshot() {
		if err := c.reg.SendEvent(ctx, msg); err != nil {
			glog.V(2).Infof("WS %s: send event error: %v", c.conn.Request().RemoteAddr, err)
			errs.Add(err)
		}
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(r)
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	server := &http.Server{Addr: r.Addr, Handler: r.Handler(ctx)}
	glog.Infof("serving %s", r.URL())
	return fx.RunWithContextCloser(ctx, closerFunc(func() error {
		err := server.Close()
		// hijacked connections are not closed by the server.
		for _, c := range r.snapshot() {
			c.conn.Close()
		}
		return err
	}), server.ListenAndServe)
}

func (r *Registrar) serveClient(ctx context.Context, conn *websocket.Conn) {
	c := &client{conn: conn}
	c.reg.Init(New(conn))
	r.lock.Lock()
	if r.clients == nil {
		r.clients = make(map[*client]struct{})
	}
	r.clients[c] = struct{}{}
	r.lock.Unlock()
	remote := conn.Request().RemoteAddr
	glog.Infof("WS %s connected", remote)

	err := c.reg.Serve(ctx)

	r.lock.Lock()
	delete(r.clients, c)
	r.lock.Unlock()
	glog.Infof("WS %s disconnected: %v", remote, err)
}

func (r *Registrar) snapshot() []*client {
	r.lock.Lock()
	defer r.lock.Unlock()
	clients := make([]*client, 0, len(r.clients))
	for c := range r.clients {
		clients = append(clients, c)
	}
	return clients
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}
