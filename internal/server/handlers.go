package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/OCharnyshevich/planet-generator/internal/planet/mesh"
	"github.com/OCharnyshevich/planet-generator/internal/planet/noise"
	"github.com/OCharnyshevich/planet-generator/internal/storage"
	"github.com/OCharnyshevich/planet-generator/internal/wire"
)

const (
	maxBodySize      = 1 << 20
	maxClientMessage = 64 << 10
)

var errBadRequest = errors.New("bad request")

// Request selects a planet. Spec takes precedence over Preset; with
// neither, the configured default spec is used. A nil Seed and an empty
// Kernel fall back to the server configuration.
type Request struct {
	Preset string     `json:"preset,omitempty"`
	Spec   *mesh.Spec `json:"spec,omitempty"`
	Seed   *int64     `json:"seed,omitempty"`
	Kernel string     `json:"kernel,omitempty"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, "ok")
}

func (s *Server) handleKernels(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, noise.Kernels())
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.ListPresets()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	spec, err := s.store.LoadPreset(mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, spec)
}

func (s *Server) handlePutPreset(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var spec mesh.Spec
	if err := decodeBody(w, r, &spec); err != nil {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("%w: empty body", errBadRequest)
		}
		s.writeError(w, err)
		return
	}
	if err := s.checkLimits(spec); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.SavePreset(name, spec); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePlanet generates one mesh from the JSON spec in the body. An empty
// body falls back to ?preset= or the default spec.
func (s *Server) handlePlanet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := Request{
		Preset: q.Get("preset"),
		Kernel: q.Get("kernel"),
	}
	if raw := q.Get("seed"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: seed %q: %v", errBadRequest, raw, err))
			return
		}
		req.Seed = &seed
	}

	var spec mesh.Spec
	switch err := decodeBody(w, r, &spec); {
	case err == nil:
		req.Spec = &spec
	case errors.Is(err, io.EOF):
	default:
		s.writeError(w, err)
		return
	}

	frame, err := s.generate(req, r.RemoteAddr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(frame)))
	w.Write(frame)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade", "error", err, "remote", r.RemoteAddr)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxClientMessage)

	sess := s.sessions.Add(conn)
	defer s.sessions.Remove(sess.ID)
	s.log.Info("websocket connected", "session", sess.ID, "remote", r.RemoteAddr)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("websocket read", "session", sess.ID, "error", err)
			}
			break
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			err = fmt.Errorf("%w: %v", errBadRequest, err)
			if werr := sess.WriteJSON(errorMessage{Type: "error", Error: err.Error()}); werr != nil {
				break
			}
			continue
		}

		frame, err := s.generate(req, r.RemoteAddr)
		if err != nil {
			if werr := sess.WriteJSON(errorMessage{Type: "error", Error: err.Error()}); werr != nil {
				break
			}
			continue
		}
		if err := sess.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			s.log.Warn("websocket write", "session", sess.ID, "error", err)
			break
		}
	}

	s.log.Info("websocket disconnected", "session", sess.ID)
}

// resolve fills the defaults of req and returns what to generate.
func (s *Server) resolve(req Request) (mesh.Spec, int64, string, error) {
	spec := s.cfg.DefaultSpec
	switch {
	case req.Spec != nil:
		spec = *req.Spec
	case req.Preset != "":
		p, err := s.store.LoadPreset(req.Preset)
		if err != nil {
			return mesh.Spec{}, 0, "", err
		}
		spec = p
	}

	seed := s.cfg.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}
	kernel := req.Kernel
	if kernel == "" {
		kernel = s.cfg.Kernel
	}

	if err := s.checkLimits(spec); err != nil {
		return mesh.Spec{}, 0, "", err
	}
	return spec, seed, kernel, nil
}

// generate builds the mesh for req and returns it as a wire frame.
func (s *Server) generate(req Request, remote string) ([]byte, error) {
	spec, seed, kernel, err := s.resolve(req)
	if err != nil {
		return nil, err
	}
	gen, err := s.generators.GetOrCreate(kernel, seed)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	b, err := gen.GeneratePlanet(spec)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	h := wire.MeshHeader{Seed: seed, Kernel: kernel, Radius: spec.Radius}
	if err := wire.WriteMesh(&buf, h, b); err != nil {
		return nil, fmt.Errorf("encode mesh: %w", err)
	}

	st := b.Stats()
	s.log.Info("planet served",
		"remote", remote,
		"seed", seed,
		"kernel", kernel,
		"divisions", spec.Divisions,
		"vertices", st.Vertices,
		"triangles", st.Triangles,
		"bytes", buf.Len(),
		"elapsed", time.Since(start),
	)
	return buf.Bytes(), nil
}

func (s *Server) checkLimits(spec mesh.Spec) error {
	if limit := s.cfg.DivisionLimit(); spec.Divisions > limit {
		return fmt.Errorf("%w: divisions %d exceeds limit %d", mesh.ErrInvalidConfiguration, spec.Divisions, limit)
	}
	return nil
}

// decodeBody decodes a JSON body into v. An empty body yields io.EOF.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrPresetNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, storage.ErrInvalidPresetName),
		errors.Is(err, noise.ErrUnknownKernel),
		mesh.IsInvalid(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, errorMessage{Type: "error", Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("write response", "error", err)
	}
}
