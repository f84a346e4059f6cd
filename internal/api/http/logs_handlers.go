package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/harshit-164/clio-agent-editor/internal/terminal"
)

const logFileName = "terminal-log.txt"

// DownloadLog serves the terminal scrollback as a text file, optionally
// compressed with compress=gzip or compress=zstd.
func (h *Handlers) DownloadLog(c *gin.Context) {
	text := h.session.Download()
	if text == nil {
		h.fail(c, terminal.ErrNoView)
		return
	}

	name, contentType := logFileName, "text/plain; charset=utf-8"
	body := text
	switch mode := c.Query("compress"); mode {
	case "":
	case "gzip":
		out, err := gzipBytes(text)
		if err != nil {
			h.fail(c, err)
			return
		}
		body, name, contentType = out, logFileName+".gz", "application/gzip"
	case "zstd":
		out, err := zstdBytes(text)
		if err != nil {
			h.fail(c, err)
			return
		}
		body, name, contentType = out, logFileName+".zst", "application/zstd"
	default:
		badRequest(c, fmt.Sprintf("unsupported compression %q", mode))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, contentType, body)
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	zw.Name = logFileName
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("gzip log: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip log: %w", err)
	}
	return buf.Bytes(), nil
}

func zstdBytes(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("zstd log: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}
