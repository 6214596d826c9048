package httpapi

import (
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/logger"
)

// queryRequest is the body of POST /query. Omitted threshold and overlap
// fields fall back to the configured defaults; an explicit 0 is honoured.
type queryRequest struct {
	Query               string   `json:"query"`
	OwnerID             string   `json:"ownerId"`
	SessionID           string   `json:"sessionId"`
	DocumentIDs         []string `json:"documentIds"`
	UseSemanticSearch   *bool    `json:"useSemanticSearch"`
	RequireSemantic     bool     `json:"requireSemantic"`
	TopK                int      `json:"topK"`
	Threshold           *float64 `json:"threshold"`
	ConversationContext string   `json:"conversationContext"`
}

// ingestRequest is the JSON body of POST /documents.
type ingestRequest struct {
	DocumentID string `json:"documentId"`
	OwnerID    string `json:"ownerId"`
	Text       string `json:"text"`
	ChunkSize  int    `json:"chunkSize"`
	Overlap    *int   `json:"overlap"`
}

func (s *Server) health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), healthTimeout)
	defer cancel()

	names := make([]string, 0, len(s.ports.Checks))
	for name := range s.ports.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	components := make(fiber.Map, len(names))
	for _, name := range names {
		if err := s.ports.Checks[name](ctx); err != nil {
			status = "degraded"
			components[name] = err.Error()
			continue
		}
		components[name] = "ok"
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{"status": status, "components": components})
}

func (s *Server) query(c fiber.Ctx) error {
	var body queryRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	input := domain.QueryInput{
		Query:             body.Query,
		OwnerID:           body.OwnerID,
		SessionID:         body.SessionID,
		UseSemanticSearch: true,
		RequireSemantic:   body.RequireSemantic,
		DocumentIDs:       body.DocumentIDs,
		TopK:              body.TopK,
		Threshold:         body.Threshold,
	}
	if body.UseSemanticSearch != nil {
		input.UseSemanticSearch = *body.UseSemanticSearch
	}
	var history string
	if body.SessionID != "" && s.ports.Conversation != nil && s.ports.HistoryTurns > 0 {
		var err error
		history, err = s.ports.Conversation.BuildContext(ctx, body.SessionID, s.ports.HistoryTurns)
		if err != nil {
			logger.Warn("Loading history for session %s: %v", body.SessionID, err)
		}
	}
	input.ConversationContext = domain.JoinConversationContext(history, body.ConversationContext)

	result, err := s.ports.RAG.RunQuery(ctx, input)
	if err != nil {
		return writeError(c, err)
	}
	if result.ReferencedDocuments == nil {
		result.ReferencedDocuments = []string{}
	}
	return c.JSON(result)
}

func (s *Server) sessionTurns(c fiber.Ctx) error {
	if s.ports.Conversation == nil {
		return notFound(c)
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return badRequest(c, "limit must be a non-negative integer")
		}
		limit = n
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	turns, err := s.ports.Conversation.History(ctx, c.Params("id"), limit)
	if err != nil {
		return writeError(c, err)
	}
	if turns == nil {
		turns = []domain.ConversationTurn{}
	}
	return c.JSON(fiber.Map{"turns": turns})
}

func (s *Server) clearSession(c fiber.Ctx) error {
	if s.ports.Conversation == nil {
		return notFound(c)
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	if err := s.ports.Conversation.Clear(ctx, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) ingest(c fiber.Ctx) error {
	if s.ports.Ingestion == nil {
		return notFound(c)
	}
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return s.ingestFile(c)
	}

	var body ingestRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	result, err := s.ports.Ingestion.IngestDocument(ctx, domain.IngestRequest{
		DocumentID: body.DocumentID,
		OwnerID:    body.OwnerID,
		Text:       body.Text,
		ChunkSize:  body.ChunkSize,
		Overlap:    body.Overlap,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// ingestFile handles multipart uploads with fields documentId, ownerId and file.
func (s *Server) ingestFile(c fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}
	f, err := header.Open()
	if err != nil {
		return badRequest(c, "unreadable upload")
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return badRequest(c, "unreadable upload")
	}

	documentID := c.FormValue("documentId")
	if documentID == "" {
		documentID = header.Filename
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	result, err := s.ports.Ingestion.IngestFile(ctx, domain.FileIngestRequest{
		DocumentID: documentID,
		OwnerID:    c.FormValue("ownerId"),
		Filename:   header.Filename,
		MIMEType:   header.Header.Get(fiber.HeaderContentType),
		Content:    content,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (s *Server) deleteDocument(c fiber.Ctx) error {
	if s.ports.Ingestion == nil {
		return notFound(c)
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	if err := s.ports.Ingestion.DeleteDocument(ctx, c.Params("id"), c.Query("owner")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyInput),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnsupportedType):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrGenerationFailed):
		return fiber.StatusBadGateway
	case errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrVectorStoreUnavailable),
		errors.Is(err, domain.ErrLLMUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c fiber.Ctx, err error) error {
	code := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		logger.Error("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{"error": domain.UserMessage(err)})
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func notFound(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
}
