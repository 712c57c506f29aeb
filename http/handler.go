package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fwojciec/selectql"
	"github.com/gin-gonic/gin"
)

// parseRequest is the body of POST /parse. Fields are decoded loosely so
// that wrong types produce the same messages as missing fields.
type parseRequest struct {
	HTML     any             `json:"html"`
	Vars     json.RawMessage `json:"vars"`
	Template json.RawMessage `json:"template"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleParse(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes)

	var body parseRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	html, _ := body.HTML.(string)
	if html == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing html"})
		return
	}
	if !isObject(body.Template) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing template"})
		return
	}

	var vars selectql.Variables
	if len(body.Vars) > 0 && !bytes.Equal(bytes.TrimSpace(body.Vars), []byte("null")) {
		if err := json.Unmarshal(body.Vars, &vars); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "vars must be an object"})
			return
		}
	}

	tmpl, err := selectql.ParseTemplate(body.Template)
	if err != nil {
		s.fail(c, err)
		return
	}

	res, err := s.runner.Run(&selectql.Request{HTML: html, Vars: vars, Template: tmpl})
	if err != nil {
		s.fail(c, err)
		return
	}

	// PureJSON keeps extracted markup readable instead of escaping <, > and &.
	c.PureJSON(http.StatusOK, gin.H{"result": res})
}

// fail reports a terminal engine error. Every engine error is a 500 with
// the error message, whatever its code.
func (s *Server) fail(c *gin.Context, err error) {
	s.logger.Error("parse failed",
		"request_id", c.GetString(requestIDKey),
		"code", selectql.ErrorCode(err),
		"err", err,
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": selectql.ErrorMessage(err)})
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
