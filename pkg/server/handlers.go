package server

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/golang/glog"

	"github.com/robotalks/rrr.go/pkg/api"
	"github.com/robotalks/rrr.go/pkg/command"
)

func jsonResponse(w http.ResponseWriter, status int, obj interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		glog.Warningf("write response: %v", err)
	}
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, s.Store.Read())
}

func (s *Server) postCommand(w http.ResponseWriter, r *http.Request) {
	data, err := ioutil.ReadAll(http.MaxBytesReader(w, r.Body, MaxCommandSize))
	if err != nil {
		jsonResponse(w, http.StatusRequestEntityTooLarge, api.CommandResult{Error: err.Error()})
		return
	}
	res, err := s.Dispatcher.DispatchJSON(r.Context(), data)
	status := http.StatusOK
	switch {
	case err == nil:
	case command.IsClientError(err):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}
	jsonResponse(w, status, res)
}

func (s *Server) getBattery(w http.ResponseWriter, r *http.Request) {
	b := s.Store.Battery()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	// soc is printed as stored, the same way the first firmware did.
	fmt.Fprintf(w, "Battery charge: %.2f%%, voltage: %.2f, discharge rate: %.2f", b.SOC, b.Voltage, b.ChargeRate)
	if b.Stale {
		fmt.Fprintf(w, " (stale: %s)", b.Error)
	}
}

type legacyColor struct {
	path    string
	text    string
	r, g, b uint8
}

var legacyColors = []legacyColor{
	{path: "/red", text: "RED", r: 20},
	{path: "/green", text: "GREEN", g: 20},
	{path: "/blue", text: "BLUE", b: 20},
	{path: "/off", text: "OFF"},
}

func (s *Server) setColor(c legacyColor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		if c.r == 0 && c.g == 0 && c.b == 0 {
			err = s.Indicator.Off()
		} else {
			err = s.Indicator.SetColor(c.r, c.g, c.b)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, c.text)
	}
}
