package handler

import (
	"errors"
	"net/http"
	"os"

	"github.com/josh-kwaku/tizim-bank/internal/auth"
	"github.com/josh-kwaku/tizim-bank/internal/domain"
	"github.com/josh-kwaku/tizim-bank/internal/logging"
)

type mediaOpener interface {
	Open(rel string) (*os.File, os.FileInfo, error)
}

type MediaHandler struct {
	files    mediaOpener
	accounts accountFinder
}

func NewMediaHandler(files mediaOpener, accounts accountFinder) *MediaHandler {
	return &MediaHandler{files: files, accounts: accounts}
}

// Serve is mounted on GET /media/{kind}/{name}. Customers only get the
// images attached to their own account; staff may fetch any. Anything else
// is reported as not found, so file names leak nothing.
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	rel := r.PathValue("kind") + "/" + r.PathValue("name")

	if !auth.IsStaff(r.Context()) {
		_, acct, appErr := callerAccount(r, h.accounts)
		if appErr != nil {
			RespondAppError(w, appErr, nil)
			return
		}
		if !ownsMedia(acct, rel) {
			log.Warn("media access denied", "path", rel)
			RespondAppError(w, ErrResourceNotFound, nil)
			return
		}
	}

	f, info, err := h.files.Open(rel)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error("failed to open media", "path", rel, "error", err)
		}
		RespondDomainError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Cache-Control", "private, no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func ownsMedia(acct *domain.Account, rel string) bool {
	return (acct.ProfileImage != nil && *acct.ProfileImage == rel) ||
		(acct.FaceReference != nil && *acct.FaceReference == rel)
}
