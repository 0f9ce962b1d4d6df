package reference

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(t *Tables) http.Handler {
	r := chi.NewRouter()
	h := handler{tables: t}

	r.Get("/census", h.ListZips)
	r.Get("/census/{zip}", h.Census)
	r.Get("/elections", h.Elections)
	r.Get("/elections/{precinct}", h.Election)
	return r
}
