package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"twinklepod/application/ports"
	"twinklepod/domain/core/valueobjects"
	"twinklepod/pkg/common"
	pkgerrors "twinklepod/pkg/errors"
	"twinklepod/pkg/utils"

	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 64 << 10

// ChildGuard checks that the authenticated account owns a child profile
type ChildGuard struct {
	directory ports.ChildDirectory
}

// NewChildGuard creates a new guard
func NewChildGuard(directory ports.ChildDirectory) *ChildGuard {
	return &ChildGuard{directory: directory}
}

// Authorize returns the caller's user id when it owns childID. An unknown
// child is reported as Forbidden so callers cannot discover which profiles exist.
func (g *ChildGuard) Authorize(ctx context.Context, childID string) (string, error) {
	userID, ok := common.GetUserID(ctx)
	if !ok {
		return "", pkgerrors.NewUnauthorizedError("")
	}
	id, err := valueobjects.NewChildID(childID)
	if err != nil {
		return "", err
	}

	owner, err := g.directory.OwnerOf(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return "", pkgerrors.NewForbiddenError("child profile does not belong to this account")
		}
		return "", err
	}
	if owner.String() != userID {
		return "", pkgerrors.NewForbiddenError("child profile does not belong to this account")
	}
	return userID, nil
}

// decodeBody parses and validates a JSON request body
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := common.ParseJSONBody(w, r, v, maxBodyBytes); err != nil {
		return pkgerrors.NewInvalidInputError("Invalid request body: " + err.Error())
	}
	if err := utils.ValidateStruct(v); err != nil {
		return pkgerrors.NewInvalidInputError(err.Error())
	}
	return nil
}

// queryInt reads an optional integer query parameter
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.NewInvalidInputErrorf("%s must be an integer", name)
	}
	return n, nil
}

func requestMeta(r *http.Request, nextCursor string) *common.MetaInfo {
	return &common.MetaInfo{
		RequestID:  middleware.GetReqID(r.Context()),
		NextCursor: nextCursor,
	}
}

// unexpectedResult reports a bus handler that returned the wrong type
func unexpectedResult(v interface{}) error {
	return pkgerrors.NewInternalError("unexpected result type").WithCause(fmt.Errorf("got %T", v))
}
