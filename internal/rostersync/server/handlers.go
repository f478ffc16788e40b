package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/tansive/rostersync/internal/common/httpx"
	"github.com/tansive/rostersync/internal/rostersync/domain"
)

func (s *RosterServer) listTenants(r *http.Request) (*httpx.Response, error) {
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   s.repo.Tenants(),
	}, nil
}

// mountTable registers the list, get, add, update and delete endpoints of one kind.
func mountTable[E domain.Entity](r chi.Router, repo *Repository, t *table[E]) {
	var zero E
	kind := string(zero.Kind())
	r.Route("/"+kind, func(r chi.Router) {
		r.Get("/", httpx.WrapHttpRsp(func(r *http.Request) (*httpx.Response, error) {
			tenantID, err := tenantFromRequest(r)
			if err != nil {
				return nil, err
			}
			items, err := list(repo, t, tenantID)
			if err != nil {
				return nil, err
			}
			return &httpx.Response{StatusCode: http.StatusOK, Response: items}, nil
		}))

		r.Get("/{id}", httpx.WrapHttpRsp(func(r *http.Request) (*httpx.Response, error) {
			tenantID, err := tenantFromRequest(r)
			if err != nil {
				return nil, err
			}
			id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if err != nil {
				return nil, httpx.ErrNotFound(kind + " " + chi.URLParam(r, "id"))
			}
			e, err := get(repo, t, tenantID, id)
			if err != nil {
				return nil, err
			}
			return &httpx.Response{StatusCode: http.StatusOK, Response: e}, nil
		}))

		r.Post("/add", httpx.WrapHttpRsp(func(r *http.Request) (*httpx.Response, error) {
			tenantID, err := tenantFromRequest(r)
			if err != nil {
				return nil, err
			}
			var draft E
			if err := httpx.GetRequestData(r, &draft); err != nil {
				return nil, err
			}
			created, err := add(repo, t, tenantID, draft)
			if err != nil {
				return nil, err
			}
			id, _ := created.Identity()
			log.Ctx(r.Context()).Info().Str("kind", kind).Int64("id", id).Msg("entity added")
			return &httpx.Response{StatusCode: http.StatusOK, Response: created}, nil
		}))

		r.Post("/update", httpx.WrapHttpRsp(func(r *http.Request) (*httpx.Response, error) {
			tenantID, err := tenantFromRequest(r)
			if err != nil {
				return nil, err
			}
			var e E
			if err := httpx.GetRequestData(r, &e); err != nil {
				return nil, err
			}
			updated, err := update(repo, t, tenantID, e)
			if err != nil {
				return nil, err
			}
			return &httpx.Response{StatusCode: http.StatusOK, Response: updated}, nil
		}))

		r.Delete("/{id}", httpx.WrapHttpRsp(func(r *http.Request) (*httpx.Response, error) {
			tenantID, err := tenantFromRequest(r)
			if err != nil {
				return nil, err
			}
			id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if err != nil {
				return nil, httpx.ErrInvalidRequest("invalid id")
			}
			removed, err := remove(repo, t, tenantID, id)
			if err != nil {
				return nil, err
			}
			if !removed {
				log.Ctx(r.Context()).Info().Str("kind", kind).Int64("id", id).Msg("removal declined")
			}
			return &httpx.Response{StatusCode: http.StatusOK, Response: removed}, nil
		}))
	})
}

func tenantFromRequest(r *http.Request) (int, error) {
	tenantID, err := strconv.Atoi(chi.URLParam(r, "tenantId"))
	if err != nil || tenantID < 0 {
		return 0, httpx.ErrInvalidTenantId()
	}
	return tenantID, nil
}
