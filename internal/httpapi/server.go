package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"modelrepomgr/internal/manager"
	"modelrepomgr/pkg/types"
)

// Service defines the methods the HTTP API layer needs from a Manager.
// Kept as an interface (rather than importing *manager.Manager directly
// into every handler) so tests can substitute a fake.
type Service interface {
	ListModels() []types.Model
	VersionStates(name string) (types.VersionStateMap, error)
	RepositoryIndex(readyOnly bool) ([]types.ModelIndex, error)
	LoadUnloadModel(ctx context.Context, names []string, action manager.Action, unloadDependents bool) (manager.WriteResult, error)
	RegisterModelRepository(path string, modelMapping map[string]string) error
	UnregisterModelRepository(path string) error
	PollAndUpdate(ctx context.Context) (manager.WriteResult, error)
	UnloadAllModels(ctx context.Context) error
	StopAllModels(ctx context.Context) error
	Ready() bool
}

// NewMux builds the router for the model repository manager's HTTP API.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/models", handleListModels(svc))
		r.Get("/models/{name}/versions", handleModelVersions(svc))

		r.Get("/repository/index", handleRepositoryIndex(svc))
		r.Post("/repository/models/{name}/load", handleLoad(svc))
		r.Post("/repository/models/{name}/unload", handleUnload(svc))
		r.Post("/repository/poll", handlePoll(svc))
		r.Post("/repository/unload-all", handleUnloadAllModels(svc))
		r.Post("/repository/drain", handleDrain(svc))

		r.Post("/repositories", handleRegisterRepository(svc))
		r.Delete("/repositories", handleUnregisterRepository(svc))
	})

	MountSwagger(r)
	return r
}

// writeJSON encodes v as the response body, or emits a 500 on failure.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

// @Summary List known models
// @Produce json
// @Success 200 {object} types.ModelsResponse
// @Router /v1/models [get]
func handleListModels(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.ModelsResponse{Models: svc.ListModels()})
	}
}

// @Summary Get per-version state of one model
// @Produce json
// @Param name path string true "model name"
// @Success 200 {object} types.ModelStateResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /v1/models/{name}/versions [get]
func handleModelVersions(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		vs, err := svc.VersionStates(name)
		if err != nil {
			writeManagerError(w, err)
			return
		}
		resp := types.ModelStateResponse{Name: name}
		for v, s := range vs {
			entry := types.VersionStateEntry{Version: v, State: s.State.String()}
			if !s.Status.IsOK() {
				entry.Status = s.Status.Error()
			}
			resp.Versions = append(resp.Versions, entry)
		}
		writeJSON(w, resp)
	}
}

// @Summary Enumerate the repository index
// @Produce json
// @Param ready_only query bool false "restrict to models with a ready version"
// @Success 200 {object} types.RepositoryIndexResponse
// @Router /v1/repository/index [get]
func handleRepositoryIndex(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		readyOnly, _ := strconv.ParseBool(r.URL.Query().Get("ready_only"))
		idx, err := svc.RepositoryIndex(readyOnly)
		if err != nil {
			writeManagerError(w, err)
			return
		}
		resp := types.RepositoryIndexResponse{Models: make([]types.ModelIndexEntry, 0, len(idx))}
		for _, m := range idx {
			entry := types.ModelIndexEntry{Name: m.Name, Reason: m.Reason}
			if !m.NameOnly {
				entry.Version = m.Version
				entry.State = m.State.String()
			}
			resp.Models = append(resp.Models, entry)
		}
		writeJSON(w, resp)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeOpResultJSON(w http.ResponseWriter, r *http.Request, op string, result manager.WriteResult, err error) {
	opID := uuid.NewString()
	if err != nil {
		logWrite(r, op, http.StatusInternalServerError, "", err)
		writeManagerError(w, err)
		return
	}
	perModel := make(map[string]string, len(result.PerModel))
	for name, st := range result.PerModel {
		perModel[name] = st.Kind.String()
	}
	status := http.StatusOK
	if !result.Overall.IsOK() {
		status = http.StatusConflict
	}
	logWrite(r, op, status, result.Overall.Kind.String(), nil)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.WriteOpResult{
		OperationID: opID,
		Overall:     result.Overall.Kind.String(),
		PerModel:    perModel,
	})
}

// @Summary Load a model
// @Accept json
// @Produce json
// @Param name path string true "model name"
// @Param body body types.LoadRequest false "load options"
// @Success 200 {object} types.WriteOpResult
// @Router /v1/repository/models/{name}/load [post]
func handleLoad(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		var req types.LoadRequest
		if !decodeBody(w, r, &req) {
			return
		}
		id := types.ModelIdentifier{Namespace: req.Namespace, Name: name}
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		result, err := svc.LoadUnloadModel(ctx, []string{id.String()}, manager.ActionLoad, false)
		writeOpResultJSON(w, r, "load", result, err)
	}
}

// @Summary Unload a model
// @Accept json
// @Produce json
// @Param name path string true "model name"
// @Param body body types.UnloadRequest false "unload options"
// @Success 200 {object} types.WriteOpResult
// @Router /v1/repository/models/{name}/unload [post]
func handleUnload(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		var req types.UnloadRequest
		if !decodeBody(w, r, &req) {
			return
		}
		id := types.ModelIdentifier{Namespace: req.Namespace, Name: name}
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		result, err := svc.LoadUnloadModel(ctx, []string{id.String()}, manager.ActionUnload, req.UnloadDependents)
		writeOpResultJSON(w, r, "unload", result, err)
	}
}

// @Summary Poll the repository and bring the graph up to date
// @Produce json
// @Success 200 {object} types.WriteOpResult
// @Router /v1/repository/poll [post]
func handlePoll(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		result, err := svc.PollAndUpdate(ctx)
		writeOpResultJSON(w, r, "poll", result, err)
	}
}

// @Summary Unload every model and clear the dependency graph
// @Success 204
// @Router /v1/repository/unload-all [post]
func handleUnloadAllModels(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if err := svc.UnloadAllModels(ctx); err != nil {
			writeManagerError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// @Summary Drain the manager: stop accepting writes and wait for
// in-flight lifecycle calls to finish before tearing down the backend
// @Success 204
// @Router /v1/repository/drain [post]
func handleDrain(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if err := svc.StopAllModels(ctx); err != nil {
			writeManagerError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// @Summary Register a repository root
// @Accept json
// @Param body body types.RegisterRepositoryRequest true "repository"
// @Success 204
// @Router /v1/repositories [post]
func handleRegisterRepository(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.RegisterRepositoryRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Path) == "" {
			writeJSONError(w, http.StatusBadRequest, "path is required")
			return
		}
		if err := svc.RegisterModelRepository(req.Path, req.ModelMapping); err != nil {
			writeManagerError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// @Summary Unregister a repository root
// @Param path query string true "repository path"
// @Success 204
// @Router /v1/repositories [delete]
func handleUnregisterRepository(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		if strings.TrimSpace(path) == "" {
			writeJSONError(w, http.StatusBadRequest, "path is required")
			return
		}
		if err := svc.UnregisterModelRepository(path); err != nil {
			writeManagerError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
