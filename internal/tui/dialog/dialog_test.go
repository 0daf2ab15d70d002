package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderShowsTitleMessageAndHint(t *testing.T) {
	out := Alert{Title: "Solicitação", Message: "Solicitação encerrada com sucesso."}.Render()

	assert.Contains(t, out, "Solicitação")
	assert.Contains(t, out, "encerrada com sucesso.")
	assert.Contains(t, out, "enter: OK")
}
