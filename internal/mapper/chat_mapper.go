package mapper

import (
	"einvoice-assistant-be/internal/dto"
	"einvoice-assistant-be/pkg/ai/pipeline"
	"einvoice-assistant-be/pkg/ai/response"
	"einvoice-assistant-be/pkg/lang"
	"einvoice-assistant-be/pkg/store"
	"einvoice-assistant-be/pkg/taxonomy"
)

type ChatMapper struct {
	taxonomy *taxonomy.Taxonomy
}

func NewChatMapper(tx *taxonomy.Taxonomy) *ChatMapper {
	return &ChatMapper{taxonomy: tx}
}

// Turn Mappers

func (m *ChatMapper) TurnToDTO(t store.ChatTurn) dto.TurnDTO {
	return dto.TurnDTO{
		Id:        t.ID,
		Role:      string(t.Role),
		Kind:      string(t.Kind),
		Text:      t.Text,
		Language:  string(t.Language),
		Timestamp: t.Timestamp,
		Route:     t.Route,
		Chart:     t.Chart,
	}
}

func (m *ChatMapper) TurnsToDTO(turns []store.ChatTurn) []dto.TurnDTO {
	out := make([]dto.TurnDTO, 0, len(turns))
	for _, t := range turns {
		out = append(out, m.TurnToDTO(t))
	}
	return out
}

// Session Mappers

// SessionToResponse maps s without its turns unless withTurns is set.
func (m *ChatMapper) SessionToResponse(s *store.ChatSession, withTurns bool) *dto.SessionResponse {
	res := &dto.SessionResponse{
		Id:                    s.ID,
		Language:              string(s.Language),
		ActiveTable:           s.ActiveTable,
		ActiveDomain:          s.ActiveDomain,
		ModelName:             s.ModelConfig.ModelName,
		Temperature:           s.ModelConfig.Temperature,
		Filters:               s.Filters,
		AwaitingClarification: s.PendingClarification != nil,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
	if withTurns {
		res.Turns = m.TurnsToDTO(s.Turns)
	}
	return res
}

func (m *ChatMapper) ResultToResponse(sessionID string, code lang.Code, r *pipeline.TurnResult) *dto.QueryResponse {
	res := &dto.QueryResponse{
		SessionId: sessionID,
		ReplyText: r.Reply,
		ChartSpec: r.Chart,
		Outcome:   string(r.Outcome),
		Route:     r.Route,
		Via:       string(r.Via),
		Turns:     m.TurnsToDTO(r.Turns),
	}
	if r.Clarification != nil {
		res.ClarificationPrompt = m.clarification(code, r.Reply, r.Clarification)
	}
	return res
}

func (m *ChatMapper) clarification(code lang.Code, prompt string, c *store.ClarificationState) *dto.ClarificationDTO {
	options := make([]dto.ClarificationOptionDTO, 0, len(c.Candidates))
	for i, cand := range c.Candidates {
		options = append(options, dto.ClarificationOptionDTO{
			Index:      i + 1,
			TableId:    cand.TableID,
			DomainId:   cand.DomainID,
			Label:      response.Label(m.taxonomy, code, cand.Route()),
			Confidence: cand.Confidence,
		})
	}
	return &dto.ClarificationDTO{Prompt: prompt, Options: options, Attempts: c.Attempts}
}

// Taxonomy Mappers

func (m *ChatMapper) TaxonomyToResponse(code lang.Code) *dto.TaxonomyResponse {
	res := &dto.TaxonomyResponse{Language: string(code)}
	for _, t := range m.taxonomy.Tables() {
		res.Tables = append(res.Tables, dto.TaxonomyTableDTO{
			Id:          t.ID,
			Name:        t.Names.In(code),
			Description: t.Description.In(code),
			Domains:     m.taxonomy.PermittedDomains(t.ID),
		})
	}
	for _, d := range m.taxonomy.Domains() {
		res.Domains = append(res.Domains, dto.TaxonomyDomainDTO{Id: d.ID, Name: d.Names.In(code)})
	}
	return res
}
