package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ersonp/jurisflow/internal/domain/entities"
)

func TestBuildEnrichmentPrompt(t *testing.T) {
	base := testEntry("e1", "Despacho judicial determinando nova data", day0)
	base.EventType = "Despacho"

	prompt := BuildEnrichmentPrompt(entities.PromptStandard, base, "Audiência designada para 15/04/2024", "decisao.pdf")

	assert.Contains(t, prompt, "Despacho judicial determinando nova data")
	assert.Contains(t, prompt, "Audiência designada para 15/04/2024")
	assert.Contains(t, prompt, "01/03/2024")
	assert.Contains(t, prompt, "(documento: decisao.pdf)")
	assert.Contains(t, prompt, "Mantenha o tipo do andamento base (Despacho)")
	assert.Contains(t, prompt, variantStyles[entities.PromptStandard])
}

func TestBuildEnrichmentPrompt_Variants(t *testing.T) {
	base := testEntry("e1", "Despacho", day0)

	for _, v := range entities.PromptVariants {
		assert.Contains(t, BuildEnrichmentPrompt(v, base, "contexto", ""), variantStyles[v])
	}

	unknown := BuildEnrichmentPrompt("poetic", base, "contexto", "")
	assert.Contains(t, unknown, variantStyles[entities.PromptStandard])
	assert.NotContains(t, unknown, "documento:")
}

func TestBuildEnrichmentPrompt_MissingEventType(t *testing.T) {
	base := testEntry("e1", "Despacho", day0)
	base.EventType = " "

	assert.Contains(t, BuildEnrichmentPrompt(entities.PromptStandard, base, "contexto", ""), "tipo: não informado")
}
