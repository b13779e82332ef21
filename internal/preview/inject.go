package preview

import (
	"net/http"
	"strings"
)

const (
	injectTag     = `<script async src="/livereload.js"></script>`
	injectMaxSize = 512 * 1024
)

// injectReloadScript wraps a handler so HTML responses carry the live
// reload client script. Asset and API responses pass through untouched.
func injectReloadScript(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		htmlPath := p == "" || p == "/" || strings.HasSuffix(p, "/") || strings.HasSuffix(p, ".html")
		if !htmlPath {
			next.ServeHTTP(w, r)
			return
		}

		inj := &scriptInjector{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(inj, r)
		inj.finalize()
	})
}

// scriptInjector buffers an HTML response so the reload script can be
// placed before </body>. Responses that turn out not to be HTML, or that
// outgrow the buffer limit, fall back to streaming unmodified.
type scriptInjector struct {
	http.ResponseWriter
	status      int
	buf         []byte
	wroteHeader bool
	passthrough bool
}

func (s *scriptInjector) WriteHeader(code int) {
	s.status = code
	if s.passthrough {
		s.ResponseWriter.WriteHeader(code)
		s.wroteHeader = true
	}
}

func (s *scriptInjector) Write(data []byte) (int, error) {
	if !s.wroteHeader && !s.passthrough && s.buf == nil {
		ct := s.Header().Get("Content-Type")
		if ct != "" && !strings.Contains(ct, "text/html") {
			s.passthrough = true
			s.ResponseWriter.WriteHeader(s.status)
			s.wroteHeader = true
			return s.ResponseWriter.Write(data)
		}
		s.buf = make([]byte, 0, 64*1024)
	}

	if s.passthrough {
		return s.ResponseWriter.Write(data)
	}

	if len(s.buf)+len(data) > injectMaxSize {
		s.passthrough = true
		s.Header().Del("Content-Length")
		s.ResponseWriter.WriteHeader(s.status)
		s.wroteHeader = true
		if len(s.buf) > 0 {
			if _, err := s.ResponseWriter.Write(s.buf); err != nil {
				return 0, err
			}
			s.buf = nil
		}
		return s.ResponseWriter.Write(data)
	}

	s.buf = append(s.buf, data...)
	return len(data), nil
}

func (s *scriptInjector) finalize() {
	if s.passthrough || len(s.buf) == 0 {
		if !s.wroteHeader {
			s.ResponseWriter.WriteHeader(s.status)
		}
		return
	}

	body := string(s.buf)
	if i := strings.LastIndex(body, "</body>"); i >= 0 {
		body = body[:i] + injectTag + body[i:]
	} else {
		body += injectTag
	}

	s.Header().Del("Content-Length")
	s.ResponseWriter.WriteHeader(s.status)
	_, _ = s.ResponseWriter.Write([]byte(body))
}
