package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/creastat/booking"
)

const maxBodyBytes = 1 << 20

// decodeBody reads a JSON or form encoded request body. An empty body
// decodes to an empty record.
func decodeBody(w http.ResponseWriter, r *http.Request) (booking.Record, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		body := booking.Record{}
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		return body, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form body: %w", err)
	}
	body := booking.Record{}
	for key, values := range r.PostForm {
		if len(values) > 0 {
			body[key] = values[0]
		}
	}
	return body, nil
}

// hasAll reports whether every key in body holds a usable value: a
// non-empty string or a non-zero number. Booleans, null and nested values
// count as missing.
func hasAll(body booking.Record, keys ...string) bool {
	for _, key := range keys {
		if !present(body[key]) {
			return false
		}
	}
	return true
}

func present(v any) bool {
	switch v := v.(type) {
	case string:
		return v != ""
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	default:
		return false
	}
}
