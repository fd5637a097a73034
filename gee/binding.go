package gee

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

var (
	ErrEmptyBody     = errors.New("empty body")
	ErrTrailingJSON  = errors.New("body must contain only one JSON value")
	maxJSONBodyBytes = int64(64 << 10)
)

// ShouldBindJSON 严格解析：拒绝未知字段和多余的 JSON 值
func (c *Context) ShouldBindJSON(dst any) error {
	decoder := json.NewDecoder(io.LimitReader(c.Req.Body, maxJSONBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return ErrTrailingJSON
	}
	return nil
}

// BindJSON 失败时直接回 400
func (c *Context) BindJSON(dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithError(http.StatusBadRequest, "invalid json")
		return err
	}
	return nil
}
