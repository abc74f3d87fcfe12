package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"

	cerrors "github.com/canonica-labs/identlab/internal/errors"
	"github.com/canonica-labs/identlab/pkg/api"
	"github.com/canonica-labs/identlab/pkg/models"
)

// writeJSON writes v with HTML escaping disabled so SQL text keeps its
// '<', '>' and '&'. The body is encoded before the status is sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		w.Header().Set(api.HeaderContentType, api.ContentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"response encoding failed"}` + "\n"))
		return
	}

	w.Header().Set(api.HeaderContentType, api.ContentTypeJSON)
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// nonNil keeps an empty result serializing as [] instead of null.
func nonNil(rows []*string) []*string {
	if rows == nil {
		return []*string{}
	}
	return rows
}

func writeRows(w http.ResponseWriter, ep Endpoint, query string, rows []*string) {
	if ep.Safe {
		writeJSON(w, http.StatusOK, models.RowsResponse{Rows: nonNil(rows)})
		return
	}
	writeJSON(w, http.StatusOK, models.QueryRowsResponse{Query: query, Rows: nonNil(rows)})
}

// writeError renders err. Only vulnerable endpoints echo the query.
func writeError(w http.ResponseWriter, ep Endpoint, query string, err error) {
	status := cerrors.HTTPStatus(err)
	msg := cerrors.PublicMessage(err)
	if ep.Safe {
		writeJSON(w, status, models.ErrorResponse{Error: msg})
		return
	}
	writeJSON(w, status, models.QueryErrorResponse{Query: query, Error: msg})
}

func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "not found"})
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	w.Header().Set("Allow", http.MethodGet)
	writeJSON(w, http.StatusMethodNotAllowed, models.ErrorResponse{Error: "method not allowed"})
}
