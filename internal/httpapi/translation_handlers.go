package httpapi

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"horse.fit/transpop/internal/coordinator"
)

func (s *Server) handleSelection(c echo.Context) error {
	var body selectionBody
	if ok, err := s.bindBody(c, selectionRequestSchema, &body); !ok {
		return err
	}

	// The pipeline outlives the request so a client that disconnects right
	// after 202 still gets its result broadcast.
	replies := s.coord.Dispatch(c.Request().Context(), coordinator.SelectionTranslate{Text: body.Text})
	go s.logDetachedReply(replies)

	return successWithStatus(c, http.StatusAccepted, map[string]any{
		"accepted": true,
	})
}

func (s *Server) handleTranslate(c echo.Context) error {
	var body translateBody
	if ok, err := s.bindBody(c, translateRequestSchema, &body); !ok {
		return err
	}

	reply, err := s.await(c, coordinator.TranslateRequest{Text: body.Text, Origin: body.Origin})
	if err != nil {
		return err
	}
	if !reply.OK {
		return replyFailure(c, reply)
	}
	return success(c, map[string]any{
		"translation": reply.Result,
	})
}

func (s *Server) handleLatest(c echo.Context) error {
	reply, err := s.await(c, coordinator.GetLatest{})
	if err != nil {
		return err
	}
	if !reply.OK {
		return replyFailure(c, reply)
	}
	return success(c, map[string]any{
		"translation": reply.Result,
	})
}

// bindBody reads and schema-checks the request body. When ok is false the
// response has already been written and err is what the handler returns.
func (s *Server) bindBody(c echo.Context, schemaName string, dst any) (ok bool, err error) {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxRequestBodyBytes+1))
	if err != nil {
		return false, failValidation(c, map[string]string{"body": "could not be read"})
	}
	if len(raw) > maxRequestBodyBytes {
		return false, fail(c, http.StatusRequestEntityTooLarge, "Request body too large", nil)
	}

	fields, err := decodeBody(raw, schemaName, dst)
	if err != nil {
		s.logger.Error().Err(err).Str("schema", schemaName).Msg("decode request body failed")
		return false, internalError(c, "Failed to decode request")
	}
	if len(fields) > 0 {
		return false, failValidation(c, fields)
	}
	return true, nil
}

// await waits for req's reply while the client is connected. A client that
// leaves stops waiting; the dispatched work still runs to completion.
func (s *Server) await(c echo.Context, req coordinator.Request) (coordinator.Reply, error) {
	ctx := c.Request().Context()
	select {
	case reply := <-s.coord.Dispatch(ctx, req):
		return reply, nil
	case <-ctx.Done():
		return coordinator.Reply{}, ctx.Err()
	}
}

func (s *Server) logDetachedReply(replies <-chan coordinator.Reply) {
	reply := <-replies
	switch {
	case reply.Skipped:
		s.logger.Debug().Msg("blank selection skipped")
	case !reply.OK:
		s.logger.Warn().
			Str("failure", string(reply.Failure)).
			Str("message", reply.Error).
			Msg("selection translation failed")
	}
}

func replyFailure(c echo.Context, reply coordinator.Reply) error {
	switch reply.Failure {
	case coordinator.FailureValidation:
		return fail(c, http.StatusUnprocessableEntity, reply.Error, map[string]any{
			"validation_errors": map[string]string{"text": reply.Error},
		})
	case coordinator.FailureRequest:
		return errorWithStatus(c, http.StatusBadGateway, reply.Error)
	case coordinator.FailureStore:
		return errorWithStatus(c, http.StatusServiceUnavailable, reply.Error)
	default:
		return internalError(c, fmt.Sprintf("Unexpected failure: %s", reply.Error))
	}
}
