package handler

import (
	"github.com/gin-gonic/gin"

	"docsense/internal/domain"
	"docsense/internal/schema"
)

// SchemaHandler exposes the configured field schema.
type SchemaHandler struct {
	schema *schema.Schema
}

// NewSchemaHandler creates a new SchemaHandler.
func NewSchemaHandler(s *schema.Schema) *SchemaHandler {
	return &SchemaHandler{schema: s}
}

// FieldDTO is the JSON form of a schema field.
type FieldDTO struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
}

// CategoryDTO is the JSON form of a schema category.
type CategoryDTO struct {
	Category string     `json:"category"`
	Fields   []FieldDTO `json:"fields"`
}

// List handles GET /schema
func (h *SchemaHandler) List(c *gin.Context) {
	out := make([]CategoryDTO, 0)
	for _, name := range h.schema.Categories() {
		out = append(out, h.category(name))
	}
	RespondOK(c, out)
}

// Get handles GET /schema/:category
func (h *SchemaHandler) Get(c *gin.Context) {
	name := c.Param("category")
	if !h.schema.Has(name) {
		HandleError(c, domain.ErrUnknownCategory)
		return
	}
	RespondOK(c, h.category(name))
}

func (h *SchemaHandler) category(name string) CategoryDTO {
	fields := h.schema.Fields(name)
	dto := CategoryDTO{Category: name, Fields: make([]FieldDTO, 0, len(fields))}
	for _, f := range fields {
		dto.Fields = append(dto.Fields, FieldDTO{Name: f.Name, Aliases: f.Aliases})
	}
	return dto
}
