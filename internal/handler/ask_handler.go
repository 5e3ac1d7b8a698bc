package handler

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/go-code-rag-ollama/internal/service"
)

// AskHandler handles question-answering over a project's indexed files.
type AskHandler struct {
	answerer *service.Answerer
}

// NewAskHandler creates a new ask handler.
func NewAskHandler(answerer *service.Answerer) *AskHandler {
	return &AskHandler{answerer: answerer}
}

// Register sets up the ask route.
func (h *AskHandler) Register(router fiber.Router) {
	router.Post("/projects/:id/ask", h.Ask)
}

// Ask streams an answer via Server-Sent Events: one "sources" event with the
// evidence list, then "chunk" events with answer text, then "done". Failures
// never surface as HTTP errors; the answerer folds them into the answer text.
func (h *AskHandler) Ask(c fiber.Ctx) error {
	projectID := c.Params("id")

	var body struct {
		Question string `json:"question"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	stream, evidence := h.answerer.Ask(c.Context(), projectID, body.Question)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		sources, _ := json.Marshal(fiber.Map{"sources": evidence})
		fmt.Fprintf(w, "event: sources\ndata: %s\n\n", string(sources))
		w.Flush()

		for chunk := range stream {
			data, _ := json.Marshal(fiber.Map{"text": chunk})
			fmt.Fprintf(w, "event: chunk\ndata: %s\n\n", string(data))
			w.Flush()
		}

		fmt.Fprintf(w, "event: done\ndata: {}\n\n")
		w.Flush()
	})
}
