package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/rrr.go/pkg/comm/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/rrr/"
	format  = mqtt.FormatJSON
)

func init() {
	if val := os.Getenv("RRR_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar((*string)(&format), "format", string(format), "State frame format: json, proto.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)
	if !format.Valid() {
		log.Fatalf("unknown format %q", format)
	}

	q, err := mqtt.DialMonitor(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err = q.Connect(); err != nil {
		log.Fatalln(err)
	}

	handler := func(topic string, payload []byte) {
		if !strings.HasSuffix(topic, "/state") {
			log.Printf("%s: %s", topic, string(payload))
			return
		}
		msg, err := mqtt.DecodeState(format, payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		b, p := msg.State.Battery, msg.State.Pyro
		log.Printf("%s: [%s] soc=%.2f voltage=%.2f rate=%.2f pyro1=%s pyro2=%s wifi=%s",
			mqtt.DeviceOf(topic), msg.Timestamp.Format("15:04:05"),
			b.SOC, b.Voltage, b.ChargeRate,
			p.Channel1.Status(), p.Channel2.Status(),
			msg.State.WifiState.ConnectionType)
	}
	for _, filter := range []string{"+/state", "+/meta", "+/command/result"} {
		if _, err := q.Subscribe(filter, handler); err != nil {
			log.Fatalln(err)
		}
	}
	<-(chan struct{})(nil)
}
