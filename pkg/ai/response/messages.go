// Package response holds every user-visible text the core produces without
// asking a generation backend: greetings, clarifying questions, scope
// guidance and fallback apologies.
package response

import (
	"fmt"
	"strings"

	"einvoice-assistant-be/pkg/ai/scope"
	"einvoice-assistant-be/pkg/lang"
	"einvoice-assistant-be/pkg/llm"
	"einvoice-assistant-be/pkg/store"
	"einvoice-assistant-be/pkg/taxonomy"
)

type text struct {
	en, ar string
}

func (t text) in(code lang.Code) string {
	if code == lang.Arabic {
		return t.ar
	}
	return t.en
}

var (
	welcome = text{
		en: "👋 Hello! I'm your e-invoice assistant. Ask me anything about the e-invoice data, tax compliance, or fraud detection.",
		ar: "👋 مرحبًا! أنا مساعدك للفواتير الإلكترونية. اسألني أي شيء عن بيانات الفواتير الإلكترونية أو الامتثال الضريبي أو كشف الاحتيال.",
	}
	outOfDomain = text{
		en: "I can only provide information related to e-invoicing, tax compliance, fraud detection, and financial analysis in the UAE context. For other topics, please consult a different resource.",
		ar: "يمكنني فقط تقديم معلومات متعلقة بالفواتير الإلكترونية والامتثال الضريبي وكشف الاحتيال والتحليل المالي في سياق الإمارات العربية المتحدة. للموضوعات الأخرى، يرجى الرجوع إلى مصدر مختلف.",
	}
	supportedIntro = text{en: "I can help with: %s.", ar: "يمكنني المساعدة في: %s."}
	notPermitted   = text{
		en: "The %s data does not cover %s. For %s I can help with: %s.",
		ar: "بيانات %s لا تغطي %s. بالنسبة إلى %s يمكنني المساعدة في: %s.",
	}
	unknownTable = text{
		en: "I don't know a table called \"%s\". Available tables: %s.",
		ar: "لا أعرف جدولًا باسم \"%s\". الجداول المتاحة: %s.",
	}
	clarifyIntro = text{
		en: "Your question could refer to more than one kind of data. Which did you mean?",
		ar: "قد يشير سؤالك إلى أكثر من نوع من البيانات. أيهما تقصد؟",
	}
	clarifyConfirm = text{
		en: "Just to be sure, did you mean this?",
		ar: "للتأكد فقط، هل تقصد هذا؟",
	}
	clarifyRetry = text{
		en: "Sorry, I didn't catch which one you meant.",
		ar: "عذرًا، لم أفهم أي خيار تقصد.",
	}
	clarifyHint = text{
		en: "Reply with a number or a name.",
		ar: "أجب برقم الخيار أو باسمه.",
	}
	listSeparator = text{en: ", ", ar: "، "}
	overview      = text{
		en: "Give me an overview of the %s data.",
		ar: "أعطني نظرة عامة على بيانات %s.",
	}
	replyLanguage = text{
		en: "Always answer in English.",
		ar: "أجب دائمًا باللغة العربية.",
	}
	retryLanguage = text{
		en: "Your previous answer was not in English. Answer again, in English only.",
		ar: "لم تكن إجابتك السابقة باللغة العربية. أجب مرة أخرى باللغة العربية فقط.",
	}
)

var fallbacks = map[llm.FailureReason]text{
	llm.ReasonTimeout: {
		en: "Sorry, the answer took too long to generate. Please try again in a moment, or ask a narrower question.",
		ar: "عذرًا، استغرق إنشاء الإجابة وقتًا طويلاً. يرجى المحاولة مرة أخرى بعد قليل أو طرح سؤال أكثر تحديدًا.",
	},
	llm.ReasonAuth: {
		en: "Sorry, I couldn't reach the language model because the API key is missing or invalid. Please check the API key in the settings and try again.",
		ar: "عذرًا، تعذر الوصول إلى نموذج اللغة لأن مفتاح API مفقود أو غير صالح. يرجى التحقق من مفتاح API في الإعدادات والمحاولة مرة أخرى.",
	},
	llm.ReasonQuota: {
		en: "Sorry, the rate limit of the language model was exceeded. Please wait a moment and try again.",
		ar: "عذرًا، تم تجاوز حد الاستخدام لنموذج اللغة. يرجى الانتظار قليلاً والمحاولة مرة أخرى.",
	},
	llm.ReasonMalformed: {
		en: "Sorry, the language model returned a response I couldn't use. Please rephrase your question and try again.",
		ar: "عذرًا، أعاد نموذج اللغة ردًا لا يمكنني استخدامه. يرجى إعادة صياغة سؤالك والمحاولة مرة أخرى.",
	},
	llm.ReasonUnavailable: {
		en: "Sorry, the language model is unavailable right now. Please try again later.",
		ar: "عذرًا، نموذج اللغة غير متاح حاليًا. يرجى المحاولة مرة أخرى لاحقًا.",
	},
}

var examples = map[lang.Code][]string{
	lang.English: {
		"What is the total VAT collected in Dubai?",
		"Show me the distribution of invoices by emirate",
		"What are the most common anomaly types in invoices?",
		"Compare tax compliance rates across different sectors",
		"Show me the monthly revenue trend over the past year",
	},
	lang.Arabic: {
		"ما هو إجمالي ضريبة القيمة المضافة المحصلة في دبي؟",
		"أظهر لي توزيع الفواتير حسب الإمارة",
		"ما هي أنواع الشذوذ الأكثر شيوعًا في الفواتير؟",
		"قارن بين معدلات الامتثال الضريبي عبر القطاعات المختلفة",
		"أظهر لي اتجاه الإيرادات الشهرية على مدار العام الماضي",
	},
}

func Welcome(code lang.Code) string {
	return welcome.in(code)
}

// Examples returns sample questions; the slice is a copy.
func Examples(code lang.Code) []string {
	return append([]string(nil), examples[code.OrDefault()]...)
}

// Clarification lists the candidates as a numbered question. attempts > 0
// prefixes an apology for the unmatched reply.
func Clarification(tx *taxonomy.Taxonomy, code lang.Code, candidates []store.Candidate, attempts int) string {
	var b strings.Builder
	if attempts > 0 {
		b.WriteString(clarifyRetry.in(code))
		b.WriteString(" ")
	}
	if len(candidates) == 1 {
		b.WriteString(clarifyConfirm.in(code))
	} else {
		b.WriteString(clarifyIntro.in(code))
	}
	for i, c := range candidates {
		fmt.Fprintf(&b, "\n%d. %s", i+1, Label(tx, code, c.Route()))
	}
	b.WriteString("\n")
	b.WriteString(clarifyHint.in(code))
	return b.String()
}

// Label renders a route as "Table: Domain".
func Label(tx *taxonomy.Taxonomy, code lang.Code, r store.Route) string {
	return tx.TableName(r.TableID, code) + ": " + tx.DomainName(r.DomainID, code)
}

// OutOfScope explains a rejected question and lists what is supported.
func OutOfScope(tx *taxonomy.Taxonomy, code lang.Code, v scope.OutOfScope) string {
	supported := domainNames(tx, code, v.Supported)
	switch v.Reason {
	case scope.ReasonDomainNotPermitted:
		table := tx.TableName(v.Candidate.TableID, code)
		return fmt.Sprintf(notPermitted.in(code), table, tx.DomainName(v.Candidate.DomainID, code), table, supported)
	case scope.ReasonUnknownTable:
		names := make([]string, 0, len(tx.Tables()))
		for _, t := range tx.Tables() {
			names = append(names, t.Names.In(code))
		}
		return fmt.Sprintf(unknownTable.in(code), v.Candidate.TableID, strings.Join(names, listSeparator.in(code)))
	default:
		return outOfDomain.in(code) + " " + fmt.Sprintf(supportedIntro.in(code), supported)
	}
}

func domainNames(tx *taxonomy.Taxonomy, code lang.Code, ids []string) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, tx.DomainName(id, code))
	}
	return strings.Join(names, listSeparator.in(code))
}

// Fallback is the apology used when generation fails.
func Fallback(code lang.Code, reason llm.FailureReason) string {
	t, ok := fallbacks[reason]
	if !ok {
		t = fallbacks[llm.ReasonUnavailable]
	}
	return t.in(code)
}

// Overview is the question asked on behalf of a user who only named a table.
func Overview(tx *taxonomy.Taxonomy, code lang.Code, tableID string) string {
	return fmt.Sprintf(overview.in(code), tx.TableName(tableID, code))
}

// ReplyLanguage instructs the backend which language to answer in.
func ReplyLanguage(code lang.Code) string {
	return replyLanguage.in(code)
}

// RetryLanguage asks the backend to repeat an answer in the right language.
func RetryLanguage(code lang.Code) string {
	return retryLanguage.in(code)
}
