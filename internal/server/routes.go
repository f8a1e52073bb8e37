package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"adspace/internal/domain"
	"adspace/internal/messaging"
	"adspace/internal/services"
	apperrors "adspace/pkg/errors"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const messagingStatusTimeout = 5 * time.Second

func (s *Server) mountSystem() {
	s.handle(http.MethodGet, "/health", func(ctx context.Context, _ *http.Request) (int, any, error) {
		return http.StatusOK, s.svc.Health.Check(ctx), nil
	})

	s.handle(http.MethodGet, "/messaging/status", func(ctx context.Context, _ *http.Request) (int, any, error) {
		ctx, cancel := context.WithTimeout(ctx, messagingStatusTimeout)
		defer cancel()
		return http.StatusOK, messaging.StatusOf(ctx, s.svc.Messaging), nil
	}, ScopeAdmin)
}

func (s *Server) mountAuth() {
	auth := s.svc.Auth

	s.handle(http.MethodPost, "/login", func(ctx context.Context, r *http.Request) (int, any, error) {
		var req services.LoginRequest
		if err := decode(r, &req); err != nil {
			return 0, nil, err
		}
		res, err := auth.Login(ctx, &req)
		return http.StatusOK, res, err
	})

	s.handle(http.MethodGet, "/me", func(ctx context.Context, _ *http.Request) (int, any, error) {
		u, err := auth.Me(ctx)
		return http.StatusOK, u, err
	}, ScopeAdmin)

	s.handle(http.MethodGet, "/users", func(ctx context.Context, _ *http.Request) (int, any, error) {
		users, err := auth.ListUsers(ctx)
		return http.StatusOK, users, err
	}, ScopeSuperAdmin)

	s.handle(http.MethodPost, "/users", func(ctx context.Context, r *http.Request) (int, any, error) {
		var req services.CreateUserRequest
		if err := decode(r, &req); err != nil {
			return 0, nil, err
		}
		u, err := auth.CreateUser(ctx, &req)
		return http.StatusCreated, u, err
	}, ScopeSuperAdmin)

	s.handle(http.MethodPatch, "/users/{id}", func(ctx context.Context, r *http.Request) (int, any, error) {
		var req services.UpdateUserRequest
		if err := decode(r, &req); err != nil {
			return 0, nil, err
		}
		u, err := auth.UpdateUser(ctx, s.param(r, "id"), &req)
		return http.StatusOK, u, err
	}, ScopeSuperAdmin)

	s.handle(http.MethodDelete, "/users/{id}", func(ctx context.Context, r *http.Request) (int, any, error) {
		return http.StatusNoContent, nil, auth.DeleteUser(ctx, s.param(r, "id"))
	}, ScopeSuperAdmin)
}

type forwardRequest struct {
	ForwardingEmail string `json:"forwardingEmail"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type noteRequest struct {
	Content string `json:"content"`
}

func (s *Server) mountContact() {
	contact := s.svc.Contact

	s.handle(http.MethodPost, "/contact/inquiry", func(ctx context.Context, r *http.Request) (int, any, error) {
		var req services.InquiryRequest
		if err := decode(r, &req); err != nil {
			return 0, nil, err
		}
		inq, err := contact.Submit(ctx, &req)
		return http.StatusCreated, inq, err
	})

	s.handle(http.MethodGet, "/contact/inquiries", func(ctx context.Context, _ *http.Request) (int, any, error) {
		items, err := contact.List(ctx)
		if items == nil {
			items = []domain.Inquiry{}
		}
		return http.StatusOK, items, err
	}, ScopeAdmin)

	s.handle(http.MethodGet, "/contact/inquiries/{id}", func(ctx context.Context, r *http.Request) (int, any, error) {
		inq, err := contact.Get(ctx, s.param(r, "id"))
		return http.StatusOK, inq, err
	}, ScopeAdmin)

	s.handle(http.MethodPost, "/contact/inquiries/{id}/view", func(ctx context.Context, r *http.Request) (int, any, error) {
		inq, err := contact.View(ctx, s.param(r, "id"))
		return http.StatusOK, inq, err
	}, ScopeAdmin)

	s.handle(http.MethodPost, "/contact/inquiries/{id}/forward", func(ctx context.Context, r *http.Request) (int, any, error) {
		var req forwardRequest
		if err := decode(r, &req); err != nil {
			return 0, nil, err
		}
		inq, err := contact.Forward(ctx, s.param(r, "id"), req.ForwardingEmail)
		return http.StatusOK, inq, err
	}, ScopeAdmin)

	s.handle(http.MethodPatch, "/contact/inquiries/{id}/status", func(ctx context.Context, r *http.Request) (int, any, error) {
		var req statusRequest
		if err := decode(r, &req); err != nil {
			return 0, nil, err
		}
		inq, err := contact.UpdateStatus(ctx, s.param(r, "id"), req.Status)
		return http.StatusOK, inq, err
	}, ScopeAdmin)

	s.handle(http.MethodPost, "/contact/inquiries/{id}/notes", func(ctx context.Context, r *http.Request) (int, any, error) {
		var req noteRequest
		if err := decode(r, &req); err != nil {
			return 0, nil, err
		}
		inq, err := contact.AddNote(ctx, s.param(r, "id"), req.Content)
		return http.StatusOK, inq, err
	}, ScopeAdmin)
}

// mountContent mounts list/get (public), create/update (admin) and delete
// (superAdmin) under base.
func mountContent[T any, PT domain.Entity[T]](s *Server, base string, svc *services.ContentService[T, PT]) {
	s.handle(http.MethodGet, base, func(ctx context.Context, _ *http.Request) (int, any, error) {
		items, err := svc.List(ctx)
		return http.StatusOK, items, err
	})

	s.handle(http.MethodGet, base+"/{id}", func(ctx context.Context, r *http.Request) (int, any, error) {
		item, err := svc.Get(ctx, s.param(r, "id"))
		return http.StatusOK, item, err
	})

	s.handle(http.MethodPost, base, func(ctx context.Context, r *http.Request) (int, any, error) {
		item := PT(new(T))
		if err := decode(r, item); err != nil {
			return 0, nil, err
		}
		created, err := svc.Create(ctx, item)
		return http.StatusCreated, created, err
	}, ScopeAdmin)

	s.handle(http.MethodPut, base+"/{id}", func(ctx context.Context, r *http.Request) (int, any, error) {
		item := PT(new(T))
		if err := decode(r, item); err != nil {
			return 0, nil, err
		}
		updated, err := svc.Update(ctx, s.param(r, "id"), item)
		return http.StatusOK, updated, err
	}, ScopeAdmin)

	s.handle(http.MethodDelete, base+"/{id}", func(ctx context.Context, r *http.Request) (int, any, error) {
		return http.StatusNoContent, nil, svc.Delete(ctx, s.param(r, "id"))
	}, ScopeSuperAdmin)
}

// multipart overhead allowed on top of the file size limit
const formOverhead = 1 << 20

func (s *Server) mountMedia() {
	media := s.svc.Media

	s.handle(http.MethodPost, "/media", func(ctx context.Context, r *http.Request) (int, any, error) {
		r.Body = http.MaxBytesReader(nil, r.Body, s.cfg.Media.MaxUploadBytes+formOverhead)
		file, header, err := r.FormFile("file")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return 0, nil, apperrors.Validation("file is too large")
		}
		if err != nil {
			return 0, nil, apperrors.Validation("multipart field file is required")
		}
		defer file.Close()
		if r.MultipartForm != nil {
			defer func() { _ = r.MultipartForm.RemoveAll() }()
		}
		obj, err := media.Upload(ctx, header.Filename, file)
		return http.StatusCreated, obj, err
	}, ScopeAdmin)

	s.handle(http.MethodDelete, "/media/{ref}", func(ctx context.Context, r *http.Request) (int, any, error) {
		return http.StatusNoContent, nil, media.Delete(ctx, s.param(r, "ref"))
	}, ScopeAdmin)

	// Objects are streamed rather than encoded.
	s.mux.Handle(http.MethodGet, "/media/{ref}", func(w http.ResponseWriter, r *http.Request) {
		rd, err := media.Open(r.Context(), s.param(r, "ref"))
		if err != nil {
			s.encodeError(r.Context(), w, r, err)
			return
		}
		defer rd.Close()

		w.Header().Set("Content-Type", rd.ContentType())
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		if _, err := io.Copy(w, rd); err != nil {
			s.log.Warn("failed to stream media", zap.String("ref", s.param(r, "ref")), zap.Error(err))
		}
	})
}
