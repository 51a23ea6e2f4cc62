package httpapi

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jonwraymond/kvops/cache"
	"github.com/jonwraymond/kvops/instrument"
	"github.com/jonwraymond/kvops/observe"
	"github.com/jonwraymond/kvops/replay"
	"github.com/jonwraymond/kvops/webcache"
)

const maxBodyBytes = 1 << 20

// storeRequest is the body of POST /v1/values.
type storeRequest struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// valueResponse is returned by both value endpoints.
type valueResponse struct {
	Key   string `json:"key"`
	Type  string `json:"type,omitempty"`
	Value any    `json:"value,omitempty"`
}

func (req storeRequest) toValue() (cache.Value, error) {
	var err error
	switch req.Type {
	case "string", "":
		var s string
		if err = json.Unmarshal(req.Value, &s); err == nil {
			return cache.String(s), nil
		}
	case "bytes":
		var b []byte
		if err = json.Unmarshal(req.Value, &b); err == nil {
			return cache.Bytes(b), nil
		}
	case "int":
		var i int64
		if err = json.Unmarshal(req.Value, &i); err == nil {
			return cache.Int(i), nil
		}
	case "float":
		var f float64
		if err = json.Unmarshal(req.Value, &f); err == nil {
			return cache.Float(f), nil
		}
	default:
		return cache.Value{}, errors.New("type must be one of string, bytes, int, float")
	}
	return cache.Value{}, err
}

func (s *server) handleStore(w http.ResponseWriter, r *http.Request) {
	var req storeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Value) == 0 {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}
	v, err := req.toValue()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid value: "+err.Error())
		return
	}

	key, err := s.deps.Cache.Store(r.Context(), v)
	if err != nil {
		s.deps.Logger.Error(r.Context(), "store failed", observe.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadGateway, "store failed")
		return
	}
	writeJSON(w, http.StatusCreated, valueResponse{Key: key, Type: v.Kind().String()})
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := chi.URLParam(r, "key")
	as := r.URL.Query().Get("as")
	if as == "" {
		as = "string"
	}

	var (
		value any
		found bool
		err   error
	)
	switch as {
	case "string":
		value, found, err = s.deps.Cache.GetString(ctx, key)
	case "bytes":
		value, found, err = cache.GetAs[[]byte](ctx, s.deps.Cache, key, cache.DecodeBytes)
	case "int":
		value, found, err = s.deps.Cache.GetInt(ctx, key)
	case "float":
		var f float64
		f, found, err = s.deps.Cache.GetFloat(ctx, key)
		value = jsonFloat(f)
	default:
		writeError(w, http.StatusBadRequest, "as must be one of string, bytes, int, float")
		return
	}

	switch {
	case errors.Is(err, cache.ErrTypeConversion):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		s.deps.Logger.Error(ctx, "get failed", observe.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadGateway, "get failed")
	case !found:
		writeError(w, http.StatusNotFound, "key not found")
	default:
		writeJSON(w, http.StatusOK, valueResponse{Key: key, Type: as, Value: value})
	}
}

// jsonFloat keeps non-finite floats representable in JSON.
func jsonFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return f
}

func (s *server) handleReplay(w http.ResponseWriter, r *http.Request) {
	op := chi.URLParam(r, "op")
	trace, err := replay.Load(r.Context(), s.deps.Cache.Backend(), op)
	switch {
	case errors.Is(err, instrument.ErrMissingName):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, replay.ErrInvalidCount):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, "replay failed")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = trace.WriteTo(w)
}

func (s *server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target := r.URL.Query().Get("url")
	if u, err := url.Parse(target); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		writeError(w, http.StatusBadRequest, "url must be an absolute http(s) URL")
		return
	}

	body, err := s.deps.Pages.Get(ctx, target)
	if err != nil {
		var serr *webcache.StatusError
		if errors.As(err, &serr) {
			writeError(w, http.StatusBadGateway, serr.Error())
			return
		}
		s.deps.Logger.Warn(ctx, "page fetch failed",
			observe.Field{Key: "url", Value: target},
			observe.Field{Key: "error", Value: err.Error()},
		)
		writeError(w, http.StatusBadGateway, "fetch failed")
		return
	}

	if n, err := s.deps.Pages.AccessCount(ctx, target); err == nil {
		w.Header().Set("X-Access-Count", strconv.FormatInt(n, 10))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
