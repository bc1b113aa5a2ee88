// Package frame encodes state snapshots as compact protobuf frames for
// constrained telemetry links.
package frame

import (
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/rrr.go/pkg/api"
)

// StateFrame is the flattened wire form of api.State. The station password
// is never carried.
//
// Wire schema (proto3):
//
//	message StateFrame {
//	  float  soc                = 1;
//	  float  voltage            = 2;
//	  float  charge_rate        = 3;
//	  bool   battery_stale      = 4;
//	  bool   pyro1_fire         = 5;
//	  float  pyro1_test_voltage = 6;
//	  bool   pyro1_stale        = 7;
//	  bool   pyro2_fire         = 8;
//	  float  pyro2_test_voltage = 9;
//	  bool   pyro2_stale        = 10;
//	  int32  connection_type    = 11;
//	  string ssid               = 12;
//	  string device_id          = 13;
//	  int64  timestamp_ms       = 14;
//	}
type StateFrame struct {
	Soc              float32 `protobuf:"fixed32,1,opt,name=soc,proto3" json:"soc,omitempty"`
	Voltage          float32 `protobuf:"fixed32,2,opt,name=voltage,proto3" json:"voltage,omitempty"`
	ChargeRate       float32 `protobuf:"fixed32,3,opt,name=charge_rate,json=chargeRate,proto3" json:"charge_rate,omitempty"`
	BatteryStale     bool    `protobuf:"varint,4,opt,name=battery_stale,json=batteryStale,proto3" json:"battery_stale,omitempty"`
	Pyro1Fire        bool    `protobuf:"varint,5,opt,name=pyro1_fire,json=pyro1Fire,proto3" json:"pyro1_fire,omitempty"`
	Pyro1TestVoltage float32 `protobuf:"fixed32,6,opt,name=pyro1_test_voltage,json=pyro1TestVoltage,proto3" json:"pyro1_test_voltage,omitempty"`
	Pyro1Stale       bool    `protobuf:"varint,7,opt,name=pyro1_stale,json=pyro1Stale,proto3" json:"pyro1_stale,omitempty"`
	Pyro2Fire        bool    `protobuf:"varint,8,opt,name=pyro2_fire,json=pyro2Fire,proto3" json:"pyro2_fire,omitempty"`
	Pyro2TestVoltage float32 `protobuf:"fixed32,9,opt,name=pyro2_test_voltage,json=pyro2TestVoltage,proto3" json:"pyro2_test_voltage,omitempty"`
	Pyro2Stale       bool    `protobuf:"varint,10,opt,name=pyro2_stale,json=pyro2Stale,proto3" json:"pyro2_stale,omitempty"`
	ConnectionType   int32   `protobuf:"varint,11,opt,name=connection_type,json=connectionType,proto3" json:"connection_type,omitempty"`
	Ssid             string  `protobuf:"bytes,12,opt,name=ssid,proto3" json:"ssid,omitempty"`
	DeviceId         string  `protobuf:"bytes,13,opt,name=device_id,json=deviceId,proto3" json:"device_id,omitempty"`
	TimestampMs      int64   `protobuf:"varint,14,opt,name=timestamp_ms,json=timestampMs,proto3" json:"timestamp_ms,omitempty"`
}

// Reset implements proto.Message.
func (m *StateFrame) Reset() { *m = StateFrame{} }

// String implements proto.Message.
func (m *StateFrame) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*StateFrame) ProtoMessage() {}

// FromState flattens a snapshot into a frame.
func FromState(deviceID string, s api.State, at time.Time) *StateFrame {
	return &StateFrame{
		Soc:              s.Battery.SOC,
		Voltage:          s.Battery.Voltage,
		ChargeRate:       s.Battery.ChargeRate,
		BatteryStale:     s.Battery.Stale,
		Pyro1Fire:        s.Pyro.Channel1.Fire,
		Pyro1TestVoltage: s.Pyro.Channel1.TestVoltage,
		Pyro1Stale:       s.Pyro.Channel1.Stale,
		Pyro2Fire:        s.Pyro.Channel2.Fire,
		Pyro2TestVoltage: s.Pyro.Channel2.TestVoltage,
		Pyro2Stale:       s.Pyro.Channel2.Stale,
		ConnectionType:   int32(s.WifiState.ConnectionType),
		Ssid:             s.WifiState.Credentials.SSID,
		DeviceId:         deviceID,
		TimestampMs:      at.UnixNano() / int64(time.Millisecond),
	}
}

// State expands the frame. Error texts and the password are not carried.
func (m *StateFrame) State() api.State {
	var s api.State
	s.Battery = api.BatteryState{
		SOC:        m.Soc,
		Voltage:    m.Voltage,
		ChargeRate: m.ChargeRate,
		Stale:      m.BatteryStale,
	}
	s.Pyro.Channel1 = api.PyroChannelState{Fire: m.Pyro1Fire, TestVoltage: m.Pyro1TestVoltage, Stale: m.Pyro1Stale}
	s.Pyro.Channel2 = api.PyroChannelState{Fire: m.Pyro2Fire, TestVoltage: m.Pyro2TestVoltage, Stale: m.Pyro2Stale}
	s.WifiState.ConnectionType = api.ConnectionType(m.ConnectionType)
	s.WifiState.Credentials.SSID = m.Ssid
	return s
}

// Time returns the frame timestamp.
func (m *StateFrame) Time() time.Time {
	return time.Unix(0, m.TimestampMs*int64(time.Millisecond))
}

// Marshal encodes the frame.
func Marshal(m *StateFrame) ([]byte, error) {
	return proto.Marshal(m)
}

// Unmarshal decodes a frame.
func Unmarshal(data []byte) (*StateFrame, error) {
	var m StateFrame
	if err := proto.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
