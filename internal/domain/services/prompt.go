package services

import (
	"fmt"
	"strings"

	"github.com/ersonp/jurisflow/internal/domain/entities"
)

// EnrichmentTargetLength is the length the backend is asked to stay under.
// Outputs are still truncated to entities.MaxDescriptionLength afterwards.
const EnrichmentTargetLength = 180

const enrichmentPrompt = `Você consolida a linha do tempo de um processo judicial.

Andamento base (tipo: %s, data: %s):
%s

Informação contextual%s:
%s

Regras:
- Mantenha o tipo do andamento base (%s); não o transforme em outro ato processual.
- Use apenas fatos presentes na informação contextual; não invente datas, nomes ou valores.
- %s
- Se a informação contextual não acrescentar nada relevante, responda exatamente com o andamento base, sem alterações.

Responda somente com a descrição final, sem aspas, rótulos ou quebras de linha.`

// variantStyles holds the wording rule for each prompt variant.
var variantStyles = map[entities.PromptVariant]string{
	entities.PromptStandard: fmt.Sprintf("Escreva uma descrição clara com no máximo %d caracteres.", EnrichmentTargetLength),
	entities.PromptConcise:  fmt.Sprintf("Escreva uma única frase curta e objetiva, com no máximo %d caracteres.", EnrichmentTargetLength),
	entities.PromptFormal:   fmt.Sprintf("Use linguagem jurídica formal, com no máximo %d caracteres.", EnrichmentTargetLength),
}

// BuildEnrichmentPrompt renders the instruction sent to the text-generation backend.
// Unknown variants fall back to the standard wording.
func BuildEnrichmentPrompt(variant entities.PromptVariant, base entities.TimelineEntry, contextualText, sourceDocumentName string) string {
	style, ok := variantStyles[variant]
	if !ok {
		style = variantStyles[entities.PromptStandard]
	}

	eventType := strings.TrimSpace(base.EventType)
	if eventType == "" {
		eventType = "não informado"
	}

	source := ""
	if name := strings.TrimSpace(sourceDocumentName); name != "" {
		source = fmt.Sprintf(" (documento: %s)", name)
	}

	return fmt.Sprintf(enrichmentPrompt,
		eventType,
		base.EventDate.Format("02/01/2006"),
		base.Description,
		source,
		contextualText,
		eventType,
		style,
	)
}
