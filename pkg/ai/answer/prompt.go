package answer

import (
	"encoding/json"
	"strings"

	"einvoice-assistant-be/pkg/ai/response"
	"einvoice-assistant-be/pkg/lang"
	"einvoice-assistant-be/pkg/llm"
	"einvoice-assistant-be/pkg/store"
	"einvoice-assistant-be/pkg/taxonomy"
)

var assistantRole = map[lang.Code]string{
	lang.English: "You are an assistant for e-invoice data analysis in the United Arab Emirates. Answer questions about e-invoicing, tax compliance, fraud detection and financial analysis using the data described below.",
	lang.Arabic:  "أنت مساعد لتحليل بيانات الفواتير الإلكترونية في دولة الإمارات العربية المتحدة. أجب عن الأسئلة المتعلقة بالفواتير الإلكترونية والامتثال الضريبي وكشف الاحتيال والتحليل المالي باستخدام البيانات الموضحة أدناه.",
}

var sampleIntro = map[lang.Code]string{
	lang.English: "Here are sample rows from the %s table:",
	lang.Arabic:  "فيما يلي صفوف نموذجية من جدول %s:",
}

// promptBuilder assembles the message list for one answer.
type promptBuilder struct {
	tx      *taxonomy.Taxonomy
	code    lang.Code
	table   *taxonomy.Table
	domain  *taxonomy.Domain
	sample  []map[string]any
	history []llm.Message
	query   string
}

func (b *promptBuilder) build() []llm.Message {
	messages := []llm.Message{{Role: llm.RoleSystem, Content: b.system()}}
	if s := b.samples(); s != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: s})
	}
	messages = append(messages, b.history...)
	return append(messages, llm.Message{Role: llm.RoleUser, Content: b.query})
}

func (b *promptBuilder) system() string {
	var p strings.Builder
	p.WriteString(assistantRole[b.code])
	p.WriteString("\n\n")

	if b.table != nil {
		p.WriteString(b.table.Description.In(b.code))
		p.WriteString("\n")
	}
	if b.domain != nil {
		for _, c := range b.domain.Constraints.In(b.code) {
			p.WriteString("- ")
			p.WriteString(c)
			p.WriteString("\n")
		}
	}
	p.WriteString("\n")
	p.WriteString(response.ReplyLanguage(b.code))
	return p.String()
}

func (b *promptBuilder) samples() string {
	if b.table == nil || len(b.sample) == 0 {
		return ""
	}
	data, err := json.MarshalIndent(b.sample, "", "  ")
	if err != nil {
		return ""
	}
	var p strings.Builder
	p.WriteString(strings.Replace(sampleIntro[b.code], "%s", b.table.Names.In(b.code), 1))
	p.WriteString("\n")
	p.Write(data)
	return p.String()
}

// History returns the last window question/answer turns as chat messages,
// oldest first. Clarifications, refusals and fallbacks are not context for
// the backend.
func History(turns []store.ChatTurn, window int) []llm.Message {
	if window <= 0 {
		return nil
	}
	var picked []store.ChatTurn
	for i := len(turns) - 1; i >= 0 && len(picked) < window; i-- {
		t := turns[i]
		switch {
		case t.Role == store.RoleUser && t.Kind == store.KindQuestion:
		case t.Role == store.RoleAssistant && t.Kind == store.KindAnswer:
		default:
			continue
		}
		picked = append(picked, t)
	}

	messages := make([]llm.Message, 0, len(picked))
	for i := len(picked) - 1; i >= 0; i-- {
		role := llm.RoleUser
		if picked[i].Role == store.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: picked[i].Text})
	}
	return messages
}
