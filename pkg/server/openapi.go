package server

import (
	"net/http"

	"gopkg.in/yaml.v3"
)

// openapiSpec is the API description served at /openapi-yaml and, converted,
// at /openapi-json
const openapiSpec = `openapi: 3.0.3
info:
  title: Event Server API
  description: Stateless ingestion server for signed event packages
  version: 1.0.0
paths:
  /health:
    get:
      summary: Health check
      responses:
        "200":
          description: Overall and per-dependency health
  /api/v1/pow/challenge:
    post:
      summary: Issue a proof-of-work challenge
      responses:
        "200":
          description: Challenge with id, data, difficulty and expiry
  /api/v1/pow/verify:
    post:
      summary: Verify a challenge solution and issue a certificate
      responses:
        "200":
          description: Certificate bearer token bound to the relay identity
        "400":
          description: Missing fields or invalid solution hash
        "401":
          description: Challenge unknown, expired or below difficulty
  /api/v1/events:
    post:
      summary: Submit an event package
      security:
        - bearerAuth: []
      responses:
        "200":
          description: Processing result with canonical hash and location
        "401":
          description: Invalid certificate or event signature
  /api/v1/events/package:
    post:
      summary: Submit an event package stored as a ZIP archive
      security:
        - bearerAuth: []
      responses:
        "200":
          description: Package processing result
  /api/v1/events/upload:
    post:
      summary: Notify the server of a completed upload
      security:
        - bearerAuth: []
      responses:
        "200":
          description: Acknowledgement
  /api/v1/events/{hash}/verify:
    get:
      summary: Check whether an event hash is known to storage
      security:
        - bearerAuth: []
      parameters:
        - name: hash
          in: path
          required: true
          schema:
            type: string
      responses:
        "200":
          description: Existence report (advisory)
        "400":
          description: Hash is not 64 hex characters
  /api/v1/relays:
    get:
      summary: List relays visible to the caller
      security:
        - bearerAuth: []
      responses:
        "200":
          description: Relay list
components:
  securitySchemes:
    bearerAuth:
      type: http
      scheme: bearer
      bearerFormat: JWT
`

const docsPage = `<!DOCTYPE html>
<html>
<head><title>Event Server API</title></head>
<body>
<h1>Event Server API</h1>
<ul>
<li><a href="/openapi-json">OpenAPI (JSON)</a></li>
<li><a href="/openapi-yaml">OpenAPI (YAML)</a></li>
</ul>
</body>
</html>
`

func (s *Server) handleDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(docsPage))
}

func (s *Server) handleOpenAPIYAML(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write([]byte(openapiSpec))
}

func (s *Server) handleOpenAPIJSON(w http.ResponseWriter, _ *http.Request) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal([]byte(openapiSpec), &doc); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}
