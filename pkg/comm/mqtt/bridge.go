package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rrr.go/pkg/api"
	"github.com/robotalks/rrr.go/pkg/api/frame"
	"github.com/robotalks/rrr.go/pkg/state"
)

// Topics of a device, relative to the topic prefix.
func StateTopic(deviceID string) string         { return deviceID + "/state" }
func MetaTopic(deviceID string) string          { return deviceID + "/meta" }
func CommandTopic(deviceID string) string       { return deviceID + "/command" }
func CommandResultTopic(deviceID string) string { return deviceID + "/command/result" }

// DeviceOf extracts the device id from a device topic.
func DeviceOf(topic string) string {
	if pos := strings.Index(topic, "/"); pos > 0 {
		return topic[:pos]
	}
	return topic
}

// Transport is the broker connection used by the Bridge.
type Transport interface {
	Connect() error
	Subscribe(filter string, handler Handler) (*Subscription, error)
	Unsubscribe(*Subscription) error
	Publish(topic string, payload []byte, retain bool) error
	Close() error
}

// CommandHandler executes encoded commands.
type CommandHandler interface {
	DispatchJSON(ctx context.Context, data []byte) (api.CommandResult, error)
}

// Format is the encoding of state frames.
type Format string

// Frame formats.
const (
	FormatJSON  Format = "json"
	FormatProto Format = "proto"
)

// Valid indicates the format is supported.
func (f Format) Valid() bool {
	return f == FormatJSON || f == FormatProto
}

// Meta is published retained while the device is online.
type Meta struct {
	DeviceID string   `json:"device_id"`
	Board    string   `json:"board,omitempty"`
	HTTP     string   `json:"http,omitempty"`
	Format   Format   `json:"format"`
	Commands []string `json:"commands"`
}

// StateMessage is the JSON state frame.
type StateMessage struct {
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"timestamp"`
	State     api.State `json:"state"`
}

// EncodeState encodes a snapshot. The station password is never sent.
func EncodeState(format Format, deviceID string, st api.State, at time.Time) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		st.WifiState.Credentials.Password = ""
		return json.Marshal(&StateMessage{DeviceID: deviceID, Timestamp: at, State: st})
	case FormatProto:
		return frame.Marshal(frame.FromState(deviceID, st, at))
	}
	return nil, ErrUnknownFormat
}

// DecodeState decodes a state frame.
func DecodeState(format Format, payload []byte) (*StateMessage, error) {
	switch format {
	case FormatJSON, "":
		var msg StateMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, err
		}
		return &msg, nil
	case FormatProto:
		f, err := frame.Unmarshal(payload)
		if err != nil {
			return nil, err
		}
		return &StateMessage{DeviceID: f.DeviceId, Timestamp: f.Time(), State: f.State()}, nil
	}
	return nil, ErrUnknownFormat
}

// CommandBacklog is the number of received commands waiting for execution.
const CommandBacklog = 16

// Bridge publishes the device state and takes commands over MQTT.
type Bridge struct {
	Transport Transport
	Store     *state.Store
	Commands  CommandHandler
	Meta      Meta
	// Interval is the longest time between two state publications.
	Interval time.Duration
	// RetryInterval is the delay between connection attempts.
	RetryInterval time.Duration
}

// Name implements framework.Named.
func (b *Bridge) Name() string {
	return "mqtt"
}

// Run implements framework.Runnable.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.connect(ctx); err != nil {
		return err
	}
	defer b.Transport.Close()

	// Commands are executed off the receive callback, in arrival order.
	id := b.Meta.DeviceID
	cmdCh := make(chan []byte, CommandBacklog)
	sub, err := b.Transport.Subscribe(CommandTopic(id), func(_ string, payload []byte) {
		select {
		case cmdCh <- payload:
		default:
			glog.Warningf("MQTT command dropped, backlog full")
		}
	})
	if err != nil {
		return err
	}
	defer b.Transport.Unsubscribe(sub)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case payload := <-cmdCh:
				b.handleCommand(ctx, payload)
			}
		}
	}()

	b.publishMeta()
	defer b.Transport.Publish(MetaTopic(id), nil, true)

	changed, stop := b.Store.Watch()
	defer stop()
	interval := b.Interval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		b.publishState()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		case <-ticker.C:
		}
	}
}

func (b *Bridge) connect(ctx context.Context) error {
	retry := b.RetryInterval
	if retry <= 0 {
		retry = 5 * time.Second
	}
	for {
		err := b.Transport.Connect()
		if err == nil {
			return nil
		}
		glog.Warningf("MQTT connect: %v, retry in %s", err, retry)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry):
		}
	}
}

func (b *Bridge) publishMeta() {
	meta := b.Meta
	if meta.Format == "" {
		meta.Format = FormatJSON
	}
	meta.Commands = api.CommandNames()
	data, err := json.Marshal(&meta)
	if err != nil {
		panic(err)
	}
	if err = b.Transport.Publish(MetaTopic(meta.DeviceID), data, true); err != nil {
		glog.Warningf("MQTT publish meta: %v", err)
	}
}

func (b *Bridge) publishState() {
	data, err := EncodeState(b.Meta.Format, b.Meta.DeviceID, b.Store.Read(), time.Now())
	if err != nil {
		glog.Warningf("MQTT encode state: %v", err)
		return
	}
	if err = b.Transport.Publish(StateTopic(b.Meta.DeviceID), data, true); err != nil {
		glog.V(2).Infof("MQTT publish state: %v", err)
	}
}

func (b *Bridge) handleCommand(ctx context.Context, payload []byte) {
	res, _ := b.Commands.DispatchJSON(ctx, payload)
	data, err := json.Marshal(&res)
	if err != nil {
		panic(err)
	}
	if err = b.Transport.Publish(CommandResultTopic(b.Meta.DeviceID), data, false); err != nil {
		glog.Warningf("MQTT publish command result: %v", err)
	}
}
