package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/deskbridge/pkg/framework"
	"github.com/robotalks/deskbridge/pkg/l1"
	"github.com/robotalks/deskbridge/pkg/l1/comm"
)

// ConnectRetryInterval is the delay between failed initial connections.
// Once connected, the client reconnects by itself.
var ConnectRetryInterval = 5 * time.Second

// Registrar implements l1.Registrar using MQTT.
//
// The controller metadata is retained on Type/ID/meta while connected
// (cleared by the will on disconnect), commands are received on
// Type/ID/cmd, events are published on Type/ID/msg and plain states on
// Type/ID/state/NAME.
type Registrar struct {
	Queue *Queue
	Info  l1.ControllerInfo

	metaJSON  []byte
	registrar comm.Registrar
}

// NewRegistrar creates a Registrar.
func NewRegistrar(brokerURL string, info l1.ControllerInfo) (*Registrar, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+info.Ref.Name()+"/meta", nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("desk:" + info.Ref.Name())
	}
	r := &Registrar{
		Queue:    NewQueue(opts, topicPrefix),
		Info:     info,
		metaJSON: meta,
	}
	r.Queue.OnConnect = func(*Queue) { r.onConnected() }
	r.registrar.Init(NewPacketReadWriter(r.Queue).ForController(info.Ref))
	return r, nil
}

// SendEvent implements l1.Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.registrar.SendEvent(ctx, msg)
}

// PublishState implements l1.StatePublisher. The value is retained.
func (r *Registrar) PublishState(ctx context.Context, name, value string) error {
	token := r.Queue.PubWith(r.Info.Ref.Name()+"/state/"+name, []byte(value), 0, true)
	token.Wait()
	return token.Error()
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.registrar)
	loop.AddRunnable(r)
}

// Run implements Runnable. The controller keeps running without the
// broker, events are dropped until connected.
func (r *Registrar) Run(ctx context.Context) error {
	for {
		token := r.Queue.Connect()
		token.Wait()
		if token.Error() == nil {
			break
		}
		glog.Errorf("MQTT connect error: %v, retry in %v", token.Error(), ConnectRetryInterval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ConnectRetryInterval):
		}
	}
	<-ctx.Done()
	r.Queue.PubWith(r.Info.Ref.Name()+"/meta", nil, 1, true).Wait()
	r.Queue.Close()
	return ctx.Err()
}

func (r *Registrar) onConnected() {
	r.Queue.PubWith(r.Info.Ref.Name()+"/meta", r.metaJSON, 1, true)
}
