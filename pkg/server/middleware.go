package server

import (
	"net/http"

	"github.com/golang/glog"
)

type corsHandler struct {
	Handler http.Handler
}

func (h corsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	h.Handler.ServeHTTP(w, r)
}

func preflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusNoContent)
}

type recoverHandler struct {
	Handler http.Handler
}

func (h recoverHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if err := recover(); err != nil {
			if err == http.ErrAbortHandler {
				panic(err)
			}
			glog.Errorf("%s %s panic: %v", r.Method, r.RequestURI, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}()
	h.Handler.ServeHTTP(w, r)
}

type loggingHandler struct {
	Handler http.Handler
}

func (h loggingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	glog.V(2).Infof("%s %s", r.Method, r.RequestURI)
	h.Handler.ServeHTTP(w, r)
}
