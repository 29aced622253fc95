package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"

	svcerrors "github.com/R3E-Network/appstore_gateway/internal/errors"
	"github.com/R3E-Network/appstore_gateway/internal/httputil"
)

// Fetch calls one upstream operation and returns its payload. Transport
// failures, error statuses and error payloads all become backend errors.
func Fetch(ctx context.Context, client *httputil.Client, operation string, query url.Values) ([]byte, error) {
	body, err := client.Get(ctx, operation, query)
	if err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) {
			if msg, ok := upstreamMessage(statusErr.Body); ok {
				return nil, svcerrors.Backend(msg, err)
			}
			return nil, svcerrors.Backend(statusErr.Error(), err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, svcerrors.Backend("upstream request timed out", err)
		}
		return nil, svcerrors.Backend(err.Error(), err)
	}

	if !gjson.ValidBytes(body) {
		return nil, svcerrors.Backend(fmt.Sprintf("invalid %s payload from upstream", operation), nil)
	}
	if msg, ok := upstreamMessage(body); ok {
		return nil, svcerrors.Backend(msg, nil)
	}
	return body, nil
}

// upstreamMessage extracts an error message from an object payload.
func upstreamMessage(body []byte) (string, bool) {
	if !gjson.ValidBytes(body) {
		return "", false
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return "", false
	}
	for _, path := range []string{"message", "error.message", "error"} {
		if v := root.Get(path); v.Exists() && v.Type == gjson.String && v.String() != "" {
			return v.String(), true
		}
	}
	return "", false
}

// DecodeRecords decodes an array payload, unwrapping {results: [...]} and
// {data: [...]} envelopes, and applies fields to every element.
func DecodeRecords(body []byte, fields FieldMap) ([]Record, error) {
	items, err := arrayOf(body)
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		rec, err := decodeObject(item.Raw)
		if err != nil {
			return nil, err
		}
		out = append(out, fields.Apply(rec))
	}
	return out, nil
}

// DecodeRecord decodes a single object payload.
func DecodeRecord(body []byte, fields FieldMap) (Record, error) {
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, svcerrors.Backend("expected an object from upstream", nil)
	}
	rec, err := decodeObject(root.Raw)
	if err != nil {
		return nil, err
	}
	return fields.Apply(rec), nil
}

// DecodeStrings decodes an array of strings. Objects contribute their "term"
// field so both suggestion formats are accepted.
func DecodeStrings(body []byte) ([]string, error) {
	items, err := arrayOf(body)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		switch {
		case item.Type == gjson.String:
			out = append(out, item.String())
		case item.IsObject() && item.Get("term").Exists():
			out = append(out, item.Get("term").String())
		}
	}
	return out, nil
}

// DecodeList decodes an array of arbitrary values.
func DecodeList(body []byte) ([]any, error) {
	items, err := arrayOf(body)
	if err != nil {
		return nil, err
	}

	out := make([]any, 0, len(items))
	for _, item := range items {
		v, err := decodeAny(item.Raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// DecodeValue decodes any JSON payload as-is.
func DecodeValue(body []byte) (any, error) {
	return decodeAny(string(body))
}

func arrayOf(body []byte) ([]gjson.Result, error) {
	root := gjson.ParseBytes(body)
	if root.IsArray() {
		return root.Array(), nil
	}
	if root.IsObject() {
		for _, key := range []string{"results", "data"} {
			if inner := root.Get(key); inner.IsArray() {
				return inner.Array(), nil
			}
		}
	}
	return nil, svcerrors.Backend("expected a list from upstream", nil)
}

func decodeObject(raw string) (Record, error) {
	var rec Record
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return nil, svcerrors.Backend("failed to decode upstream record", err)
	}
	return rec, nil
}

func decodeAny(raw string) (any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, svcerrors.Backend("failed to decode upstream payload", err)
	}
	return v, nil
}
