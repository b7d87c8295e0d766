package genai

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fleetline/rentassist/internal/models"
)

// Category-specific system prompts. Each skeleton sets the assistant's role
// for one support category; queries outside the known categories fall back
// to the generic skeleton.
var categoryPrompts = map[string]string{
	models.CategoryVehicleInfo: "Eres un experto asesor de RentaCar. " +
		"Proporciona información detallada sobre el vehículo solicitado. " +
		"Responde de manera profesional y detallada.",
	models.CategoryPricing: "Eres un asesor de ventas de RentaCar. " +
		"Proporciona información clara sobre precios y condiciones. " +
		"Incluye información sobre tarifas, seguros y servicios adicionales.",
	models.CategoryBooking: "Eres un agente de reservas de RentaCar. " +
		"Ayuda al cliente con su reserva de vehículo. " +
		"Guía al cliente en el proceso de reserva.",
	models.CategoryDamage: "Eres un especialista en evaluación de daños de RentaCar. " +
		"Analiza y responde consultas sobre daños en vehículos. " +
		"Proporciona información clara sobre el proceso de reporte de daños.",
	models.CategoryClaims: "Eres un agente de atención al cliente de RentaCar. " +
		"Atiende los reclamos y quejas de manera profesional. " +
		"Ofrece soluciones y alternativas al cliente.",
}

const genericPrompt = "Eres un asistente de RentaCar. Responde la consulta del cliente de manera profesional."

// SystemPromptFor returns the category-specific system prompt, or the
// generic fallback for unknown categories.
func SystemPromptFor(category string) string {
	if p, ok := categoryPrompts[category]; ok {
		return p
	}
	return genericPrompt
}

// UserPrompt composes the user message from the query and the flat
// situational context. Context keys are sorted so the prompt is stable for
// identical inputs.
func UserPrompt(query string, context map[string]string) string {
	var b strings.Builder
	if len(context) > 0 {
		b.WriteString("Contexto:\n")
		keys := make([]string, 0, len(context))
		for k := range context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, context[k])
		}
		b.WriteString("\n")
	}
	b.WriteString("Consulta: ")
	b.WriteString(query)
	return b.String()
}
