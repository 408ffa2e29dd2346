package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID, Recover, AccessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", HealthHandler{}.Health)

	// Runs
	rh := RunHandler{RunStatus: d.RunStatus, Trigger: d.TriggerRun}
	r.Get("/status", rh.Status)

	// Ledger
	lh := LeadsHandler{Ledger: d.Ledger, CfgVal: d.CfgVal}
	r.Get("/leads", lh.List)

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	r.Get("/config", ch.Get)
	r.Get("/config/path", ch.Path)
	r.Get("/config/validate", ch.Validate)

	// Secrets (use CfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal}

	// Mutations are local only: a saved config is reloaded with keychain
	// secrets filled in.
	r.Group(func(r chi.Router) {
		r.Use(LocalOnly)
		r.Post("/run", rh.Run)
		r.Put("/config", ch.Put)
		r.Post("/api/secrets/{kind}", sh.Set)
		if d.Checkpoint != nil {
			r.Post("/db/checkpoint", CheckpointHandler{CheckpointFn: d.Checkpoint}.Checkpoint)
		}
	})

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	r.Get("/events", eh.ServeSSE)

	g := d.Gatherer
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	return r
}
