package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

const apiPrefix = "/empa/api/v1"

// Router 使用标准库 http.ServeMux
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// method 只允许一种方法
func method(m string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != m {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// RegisterHealthRoutes 存活检查
func (r *Router) RegisterHealthRoutes(check func() error) {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				r.logger.Warn("health check failed", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, Fail(err.Error()))
				return
			}
		}
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
}

// RegisterAssessmentRoutes 注册评估相关路由
func (r *Router) RegisterAssessmentRoutes(h *AssessmentHandler) {
	r.Handle(apiPrefix+"/catalog", method(http.MethodGet, h.GetCatalog))
	r.Handle(apiPrefix+"/questionnaire", method(http.MethodGet, h.GetQuestionnaire))
	r.Handle(apiPrefix+"/score", method(http.MethodPost, h.Score))
	r.Handle(apiPrefix+"/anatomy/hit-test", method(http.MethodPost, h.HitTest))

	// /patients/{id}/areas[/{name}] | /progression[/chart.png] | /assessments
	r.Handle(apiPrefix+"/patients/", h.ServePatients)
	// /assessments/{id}[/report.pdf|/report.xlsx]
	r.Handle(apiPrefix+"/assessments/", h.ServeAssessments)
}
