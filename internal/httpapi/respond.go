package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

const maxBodySize = 64 << 10

// message is the body of a successful form submission.
type message struct {
	Message string `json:"message"`
	Next    string `json:"next,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeNotice writes {"code":<status>,"message":<text>}.
func writeNotice(w http.ResponseWriter, status int, text string) {
	writeError(w, status, text, false)
}

// writeConfirm writes a prompt the client must answer by resubmitting with
// confirm set.
func writeConfirm(w http.ResponseWriter, prompt string) {
	writeError(w, http.StatusConflict, prompt, true)
}

func writeError(w http.ResponseWriter, status int, text string, confirm bool) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(text)
	if confirm {
		e.FieldStart("confirm")
		e.Bool(true)
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// internalError logs err and hides it from the client.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeNotice(w, http.StatusInternalServerError, "internal error")
}

// readObject decodes a JSON object body, handing each field to fn. Unknown
// fields must be skipped by fn.
func readObject(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	if err := jx.DecodeBytes(body).Obj(fn); err != nil {
		return errors.Wrap(err, "decode body")
	}
	return nil
}

func badRequest(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Debug("Bad request", zap.Error(err))
	writeNotice(w, http.StatusBadRequest, "invalid request body")
}

// text reads a string field. Numbers are accepted verbatim so that amounts
// may be sent either way; null reads as "".
func text(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return string(n), nil
	case jx.Null:
		return "", d.Null()
	default:
		return "", errors.Errorf("unexpected %s", d.Next())
	}
}

// flag reads a boolean field; null reads as false.
func flag(d *jx.Decoder) (bool, error) {
	if d.Next() == jx.Null {
		return false, d.Null()
	}
	return d.Bool()
}
