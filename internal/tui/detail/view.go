package detail

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Additional-Code/repairdesk/internal/tui/theme"
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.Header.Render("Solicitação"))
	b.WriteString("\n\n")

	switch m.state {
	case StateLoading:
		b.WriteString(m.spinner.View() + " Carregando...")
	case StateLoadFailed:
		b.WriteString(theme.Error.Render("Não foi possível exibir a solicitação."))
		b.WriteString("\n\n")
		b.WriteString(theme.Help.Render("r: tentar novamente • esc: voltar"))
	default:
		b.WriteString(m.renderOrder())
	}

	if m.alert != nil {
		b.WriteString("\n\n")
		b.WriteString(m.alert.Render())
	}
	return b.String()
}

func (m Model) renderOrder() string {
	o := m.order
	var b strings.Builder

	if o.IsClosed() {
		b.WriteString(theme.Closed.Render("✔ " + strings.ToUpper(o.StatusLabel())))
	} else {
		b.WriteString(theme.Open.Render("⧗ " + strings.ToUpper(o.StatusLabel())))
	}
	b.WriteString("\n\n")

	b.WriteString(card("EQUIPAMENTO", "Patrimônio "+o.Patrimony, "", ""))
	b.WriteString("\n")
	b.WriteString(card("DESCRIÇÃO DO PROBLEMA", o.Description, "Registrado em "+o.When, ""))
	b.WriteString("\n")

	var input, footer string
	if o.Closed != "" {
		footer = "Encerrado em " + o.Closed
	}
	if !o.IsClosed() {
		input = m.solution.View()
	}
	b.WriteString(card("SOLUÇÃO", o.Solution, footer, input))
	b.WriteString("\n")

	switch {
	case m.state == StateSubmitting:
		b.WriteString(m.spinner.View() + " Encerrando...")
	case !o.IsClosed():
		b.WriteString(theme.Button.Render("Encerrar solicitação"))
		b.WriteString("\n")
		b.WriteString(theme.Help.Render("ctrl+s: encerrar • esc: voltar"))
	default:
		b.WriteString(theme.Help.Render("esc: voltar"))
	}
	return b.String()
}

func card(title, description, footer, child string) string {
	parts := []string{theme.CardTitle.Render(title)}
	if description != "" {
		parts = append(parts, theme.CardBody.Render(description))
	}
	if child != "" {
		parts = append(parts, child)
	}
	if footer != "" {
		parts = append(parts, theme.CardFooter.Render(footer))
	}
	return theme.Card.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
